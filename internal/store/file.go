// ABOUTME: File-backed KV storing one file per key in the ridectl config directory
// ABOUTME: Watches the directory with fsnotify so other processes see changes

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FileKV is a KV where each key is a file under dir
type FileKV struct {
	dir string
}

// NewFileKV creates a file store rooted at dir. The directory is created on first write.
func NewFileKV(dir string) *FileKV {
	return &FileKV{dir: dir}
}

// DefaultDir returns the default store directory following the XDG spec
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ridectl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ridectl")
}

// Dir returns the directory backing the store
func (f *FileKV) Dir() string {
	return f.dir
}

func (f *FileKV) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, key), nil
}

// Get reads the file for key
func (f *FileKV) Get(_ context.Context, key string) (string, error) {
	p, err := f.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Set atomically replaces the file for key. Files are private to the user
// since they hold a bearer credential.
func (f *FileKV) Set(_ context.Context, key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, p)
}

// Delete removes the file for key. Missing files are not an error.
func (f *FileKV) Delete(_ context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Watch reports changes to key files made by any process
func (f *FileKV) Watch(ctx context.Context) (<-chan Change, error) {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", f.dir, err)
	}

	ch := make(chan Change, 16)
	go func() {
		defer close(ch)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				key := filepath.Base(ev.Name)
				if strings.HasPrefix(key, ".") || ev.Op == fsnotify.Chmod {
					continue
				}
				select {
				case ch <- Change{Key: key}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("File store watcher error", "dir", f.dir, "error", err)
			}
		}
	}()
	return ch, nil
}
