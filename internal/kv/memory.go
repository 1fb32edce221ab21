package kv

import (
	"sync"
	"time"
)

type entry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

func newEntry(value string, exp time.Duration) entry {
	e := entry{Value: value}
	if exp > 0 {
		e.ExpiresAt = time.Now().Add(exp)
	}
	return e
}

// Memory is a process-local store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]entry
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string]entry)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		return "", ErrNotFound
	}
	return e.Value, nil
}

func (m *Memory) Set(key, value string, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = newEntry(value, exp)
	return nil
}

func (m *Memory) SetMany(values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.data[k] = entry{Value: v}
	}
	return nil
}

func (m *Memory) Del(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
