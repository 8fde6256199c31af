package lock

import (
	"context"
	"testing"
	"time"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

func TestMemoryServiceAcquireRelease(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	lease, err := s.Acquire(ctx, "https://api.example.com/repos/foo", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if lease.Token == "" {
		t.Errorf("expected a non-empty lease token")
	}

	if err := s.Release(ctx, lease); err != nil {
		t.Fatalf("release: %v", err)
	}

	// Released, so a fresh acquire on the same URL must succeed.
	if _, err := s.Acquire(ctx, "https://api.example.com/repos/foo", time.Minute); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestMemoryServiceContentionIsSingleAttempt(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()
	url := "https://api.example.com/repos/bar"

	if _, err := s.Acquire(ctx, url, time.Minute); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	_, err := s.Acquire(ctx, url, time.Minute)
	if err == nil {
		t.Fatalf("expected contention error on second acquire")
	}
	if !types.IsLockExceeded(err) {
		t.Errorf("expected IsLockExceeded to recognize contention error, got %v", err)
	}
}

func TestMemoryServiceExpiredLeaseCanBeReacquired(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()
	url := "https://api.example.com/repos/baz"

	if _, err := s.Acquire(ctx, url, 5*time.Millisecond); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	time.Sleep(15 * time.Millisecond)

	if _, err := s.Acquire(ctx, url, time.Minute); err != nil {
		t.Errorf("expected expired lease to be reacquirable, got %v", err)
	}
}

func TestMemoryServiceCanonicalizesURL(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	if _, err := s.Acquire(ctx, "https://api.example.com/repos/foo", time.Minute); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	// Differs only by trailing slash, should canonicalize to the same key
	// and be treated as contention.
	_, err := s.Acquire(ctx, "https://api.example.com/repos/foo/", time.Minute)
	if err == nil {
		t.Errorf("expected canonicalized URL to collide with the held lease")
	}
}

func TestMemoryServiceExtend(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()
	url := "https://api.example.com/repos/qux"

	lease, err := s.Acquire(ctx, url, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if err := s.Extend(ctx, lease, time.Minute); err != nil {
		t.Fatalf("extend: %v", err)
	}

	time.Sleep(15 * time.Millisecond)

	// Had it not been extended, the original 10ms TTL would have expired by
	// now and this acquire would succeed; with the extension it must still
	// be held.
	if _, err := s.Acquire(ctx, url, time.Minute); err == nil {
		t.Errorf("expected extended lease to still be held")
	}
}

func TestMemoryServiceExtendUnknownLeaseFails(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	lease := &types.Lease{URL: "https://api.example.com/repos/never-acquired", Token: "bogus"}
	if err := s.Extend(ctx, lease, time.Minute); err == nil {
		t.Errorf("expected extending an unheld lease to fail")
	}
}
