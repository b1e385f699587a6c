package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryStore is an in-process TTL cache used by tests and by deployments
// that run without Redis.
type memoryStore struct {
	entries sync.Map
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory cache store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool) {
	val, found := s.entries.Load(key)
	if !found {
		return "", false
	}

	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		s.entries.Delete(key)
		return "", false
	}

	return entry.value, true
}

func (s *memoryStore) Set(_ context.Context, key string, value string, ttl time.Duration) {
	s.entries.Store(key, &memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
}

func (s *memoryStore) Delete(_ context.Context, keys ...string) {
	for _, key := range keys {
		s.entries.Delete(key)
	}
}

func (s *memoryStore) DeletePattern(_ context.Context, pattern string) {
	prefix := strings.TrimSuffix(pattern, "*")
	s.entries.Range(func(key, _ interface{}) bool {
		if strings.HasPrefix(key.(string), prefix) {
			s.entries.Delete(key)
		}
		return true
	})
}
