// ABOUTME: In-memory KV with change fan-out to every watcher
// ABOUTME: Backs ephemeral sessions and lets several session managers share one store

package store

import (
	"context"
	"sync"
)

// MemoryKV is a process-local KV. Watchers receive every change, including
// their own.
type MemoryKV struct {
	mu     sync.Mutex
	data   map[string]string
	subs   map[int]chan Change
	nextID int
}

// NewMemoryKV creates an empty memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data: make(map[string]string),
		subs: make(map[int]chan Change),
	}
}

// Get returns the value for key
func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

// Set stores value under key
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.notify(key)
	return nil
}

// Delete removes key
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return nil
	}
	delete(m.data, key)
	m.notify(key)
	return nil
}

// notify must be called with mu held. A full subscriber buffer already holds
// a pending change, which triggers a re-read that observes this write too.
func (m *MemoryKV) notify(key string) {
	for _, ch := range m.subs {
		select {
		case ch <- Change{Key: key}:
		default:
		}
	}
}

// Watch registers a subscriber until ctx is done
func (m *MemoryKV) Watch(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 64)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, id)
		close(ch)
		m.mu.Unlock()
	}()
	return ch, nil
}
