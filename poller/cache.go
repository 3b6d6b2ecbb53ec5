package poller

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/raushankrgupta/fitly-client/models"
)

// Cache holds fetched job results. Results are immutable once stored.
type Cache interface {
	Get(key string) (json.RawMessage, bool)
	// Put stores v unless key already holds a value, and returns the value
	// held afterwards.
	Put(key string, v json.RawMessage) json.RawMessage
}

// CacheKey identifies a job result across polls.
func CacheKey(kind models.JobKind, jobID int64) string {
	return fmt.Sprintf("%s:%d", kind, jobID)
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]json.RawMessage
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]json.RawMessage)}
}

func (c *MemoryCache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), v...), true
}

func (c *MemoryCache) Put(key string, v json.RawMessage) json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.m[key]; ok {
		return append(json.RawMessage(nil), existing...)
	}
	c.m[key] = append(json.RawMessage(nil), v...)
	return v
}
