package schemacache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/chartpilot/chartpilot/internal/models"
)

// MemoryStore keeps analyses in process memory with a TTL. Suitable for
// single-instance deployments and as a fallback when no database is
// configured for the cache.
type MemoryStore struct {
	c *gocache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryStore{c: gocache.New(ttl, 10*time.Minute)}
}

func (s *MemoryStore) Load(_ context.Context, dataSourceID string) (*Entry, error) {
	v, ok := s.c.Get(dataSourceID)
	if !ok {
		return nil, nil
	}
	entry := v.(Entry)
	return &entry, nil
}

func (s *MemoryStore) Save(_ context.Context, dataSourceID, hash string, analysis models.SchemaAnalysis) error {
	s.c.Set(dataSourceID, Entry{Hash: hash, Analysis: analysis}, gocache.DefaultExpiration)
	return nil
}
