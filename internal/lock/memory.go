package lock

import (
	"context"
	"sync"
	"time"

	"github.com/ghcrawl/ghcrawl/internal/types"
	"github.com/ghcrawl/ghcrawl/internal/urn"
)

// MemoryService is an in-process Service for tests and single-process
// development. It enforces the same lease-expiry semantics as RedisService
// without a network round trip.
type MemoryService struct {
	mu   sync.Mutex
	held map[string]heldLease
}

type heldLease struct {
	token   string
	expires time.Time
}

// NewMemoryService builds an empty MemoryService.
func NewMemoryService() *MemoryService {
	return &MemoryService{held: make(map[string]heldLease)}
}

// Acquire makes a single attempt, mirroring RedisService: a URL already
// held by a live lease is contention, returned as ErrLockExceeded so the
// pipeline's requeue/backoff path is what retries it.
func (s *MemoryService) Acquire(_ context.Context, url string, ttl time.Duration) (*types.Lease, error) {
	key := urn.Canonicalize(url)
	token := newToken()

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.held[key]
	if ok && time.Now().Before(existing.expires) {
		return nil, &types.LockError{URL: url, Err: types.ErrLockExceeded}
	}
	s.held[key] = heldLease{token: token, expires: time.Now().Add(ttl)}
	return &types.Lease{URL: url, Token: token, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (s *MemoryService) Release(_ context.Context, lease *types.Lease) error {
	if lease == nil {
		return nil
	}
	key := urn.Canonicalize(lease.URL)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.held[key]; ok && existing.token == lease.Token {
		delete(s.held, key)
	}
	return nil
}

func (s *MemoryService) Extend(_ context.Context, lease *types.Lease, ttl time.Duration) error {
	key := urn.Canonicalize(lease.URL)
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.held[key]
	if !ok || existing.token != lease.Token {
		return &types.LockError{URL: lease.URL, Err: types.ErrLockExceeded}
	}
	s.held[key] = heldLease{token: lease.Token, expires: time.Now().Add(ttl)}
	lease.ExpiresAt = time.Now().Add(ttl)
	return nil
}

func (s *MemoryService) Close() error { return nil }
