// Package kv is the durable client-side storage behind the session and
// locale: a small key/value interface with file, memory, redis and no-op
// backends.
package kv

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

// Store represents a key/value storage system.
type Store interface {
	// Get retrieves the value associated with the given key.
	Get(key string) (string, error)
	// Set stores a key/value pair; exp <= 0 means no expiration.
	Set(key, value string, exp time.Duration) error
	// SetMany stores every pair in one operation so readers never observe
	// a partial write.
	SetMany(values map[string]string) error
	// Del removes the keys. Missing keys are not an error.
	Del(keys ...string) error
}

// ExecutionContext tells storage-backed components whether they run in an
// interactive session. Headless runs get a no-op store: reads are empty and
// writes are dropped.
type ExecutionContext struct {
	Interactive bool
}

// Storage returns s in an interactive context and Noop otherwise.
func (ec ExecutionContext) Storage(s Store) Store {
	if !ec.Interactive || s == nil {
		return Noop{}
	}
	return s
}

// Noop is the store used outside an interactive context.
type Noop struct{}

var _ Store = Noop{}

func (Noop) Get(string) (string, error)              { return "", ErrNotFound }
func (Noop) Set(string, string, time.Duration) error { return nil }
func (Noop) SetMany(map[string]string) error         { return nil }
func (Noop) Del(...string) error                     { return nil }
