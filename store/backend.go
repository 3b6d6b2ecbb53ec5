// Package store holds the client state that must survive restarts: the
// authentication session and the shopping cart. Both stores persist through
// a Backend and are the only writers of their keys.
package store

import (
	"errors"
	"sync"
)

// Keys under which the stores persist their state.
const (
	SessionKey = "fitly.session"
	CartKey    = "fitly.cart"
)

// ErrCorrupt is returned by backends that can detect a damaged value.
var ErrCorrupt = errors.New("stored value is corrupt")

// Backend is durable key/value storage for serialized state.
type Backend interface {
	// Get returns the stored bytes and whether the key exists.
	Get(key string) (data []byte, found bool, err error)
	// Set overwrites the value stored under key.
	Set(key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// MemoryBackend keeps values in process memory.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBackend) Set(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
