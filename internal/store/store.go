// ABOUTME: Durable key-value contracts backing the session credential and subject
// ABOUTME: Backends report errors explicitly; the Adapter decides what to swallow

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Keys under which the session is persisted
const (
	CredentialKey = "token"
	SubjectKey    = "user"
)

var (
	// ErrNotFound is returned by KV.Get when the key has no value
	ErrNotFound = errors.New("store: key not found")

	// ErrCorrupt is returned by Adapter.Load when a persisted entry could not
	// be decoded. The entry has already been removed when this is returned.
	ErrCorrupt = errors.New("store: corrupted entry")
)

// KV is a durable string key-value store shared between processes.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Change notifies that a key was written or removed, possibly by another process.
type Change struct {
	Key string
}

// Watcher delivers change notifications until ctx is done.
// The returned channel is closed when watching stops.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}

// IsSessionKey reports whether key is one of the two session keys
func IsSessionKey(key string) bool {
	return key == CredentialKey || key == SubjectKey
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return nil
}
