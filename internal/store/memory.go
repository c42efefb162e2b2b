package store

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps records in process memory. It is the default backend for
// tests and single-instance runs.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, gocache.NoExpiration),
	}
}

func (s *MemoryStore) Read(_ context.Context, key string) (string, error) {
	v, found := s.cache.Get(key)
	if !found {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (s *MemoryStore) Write(_ context.Context, key, value string) error {
	s.cache.Set(key, value, gocache.NoExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
