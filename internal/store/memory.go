package store

import (
	"context"
	"sync"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

// MemoryStore is an in-process Store for tests and single-process
// development.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

func key(resourceType, url string) string {
	return resourceType + "\x00" + url
}

func (s *MemoryStore) Upsert(_ context.Context, resourceType, url string, document map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key(resourceType, url)] = document
	return nil
}

func (s *MemoryStore) Get(_ context.Context, resourceType, url string) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key(resourceType, url)]
	return doc, ok, nil
}

// metadata extracts the _metadata envelope, which is a types.Metadata
// value when written via Document.Merge, or a plain map when round-tripped
// through JSON (e.g. a test fixture loaded from a file).
func metadata(doc map[string]any) (types.Metadata, bool) {
	raw, ok := doc["_metadata"]
	if !ok {
		return types.Metadata{}, false
	}
	switch m := raw.(type) {
	case types.Metadata:
		return m, true
	case map[string]any:
		meta := types.Metadata{}
		if v, ok := m["version"].(int); ok {
			meta.Version = v
		} else if v, ok := m["version"].(float64); ok {
			meta.Version = int(v)
		}
		if v, ok := m["type"].(string); ok {
			meta.Type = v
		}
		if v, ok := m["url"].(string); ok {
			meta.URL = v
		}
		if v, ok := m["etag"].(string); ok {
			meta.ETag = v
		}
		return meta, true
	default:
		return types.Metadata{}, false
	}
}

func (s *MemoryStore) ETag(ctx context.Context, resourceType, url string) (string, bool, error) {
	doc, ok, _ := s.Get(ctx, resourceType, url)
	if !ok {
		return "", false, nil
	}
	meta, ok := metadata(doc)
	if !ok || meta.ETag == "" {
		return "", false, nil
	}
	return meta.ETag, true, nil
}

func (s *MemoryStore) Version(ctx context.Context, resourceType, url string) (int, error) {
	doc, ok, _ := s.Get(ctx, resourceType, url)
	if !ok {
		return -1, nil
	}
	meta, ok := metadata(doc)
	if !ok {
		return -1, nil
	}
	return meta.Version, nil
}

func (s *MemoryStore) Close(_ context.Context) error { return nil }
