package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// File persists entries as a JSON object. Every write replaces the file
// through a rename, so a crash leaves either the old or the new content.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]entry
}

var _ Store = (*File)(nil)

// OpenFile loads path, creating its directory when needed.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("kv: create dir: %w", err)
	}
	f := &File{path: path, data: make(map[string]entry)}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("kv: read %s: %w", path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &f.data); err != nil {
			return nil, fmt.Errorf("kv: decode %s: %w", path, err)
		}
	}
	return f, nil
}

// DefaultPath is the session file under the user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "omnisia-console", "session.json")
}

func (f *File) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.data[key]
	if !ok || e.expired(time.Now()) {
		return "", ErrNotFound
	}
	return e.Value, nil
}

func (f *File) Set(key, value string, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[key]
	f.data[key] = newEntry(value, exp)
	if err := f.flush(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) SetMany(values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := make(map[string]entry, len(f.data)+len(values))
	for k, e := range f.data {
		next[k] = e
	}
	for k, v := range values {
		next[k] = entry{Value: v}
	}
	prev := f.data
	f.data = next
	if err := f.flush(); err != nil {
		f.data = prev
		return err
	}
	return nil
}

func (f *File) Del(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.flush()
}

// flush must be called with f.mu held.
func (f *File) flush() error {
	now := time.Now()
	live := make(map[string]entry, len(f.data))
	for k, e := range f.data {
		if !e.expired(now) {
			live[k] = e
		}
	}
	raw, err := json.Marshal(live)
	if err != nil {
		return fmt.Errorf("kv: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("kv: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("kv: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("kv: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kv: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("kv: rename: %w", err)
	}
	return nil
}
