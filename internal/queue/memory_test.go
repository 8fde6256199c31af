package queue

import (
	"context"
	"testing"
	"time"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

func req(url string) *types.Request {
	return &types.Request{Kind: types.KindReal, Type: "repo", URL: url}
}

func TestMemorySetPriorityOverNormal(t *testing.T) {
	s := NewMemorySet()
	defer s.Close()
	ctx := context.Background()

	if err := s.Push(ctx, Normal, req("normal"), 0); err != nil {
		t.Fatalf("push normal: %v", err)
	}
	if err := s.Push(ctx, Priority, req("priority"), 0); err != nil {
		t.Fatalf("push priority: %v", err)
	}

	d, err := s.Pop(ctx)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if d.Request.URL != "priority" {
		t.Errorf("expected priority item first, got %q", d.Request.URL)
	}

	d, err = s.Pop(ctx)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if d.Request.URL != "normal" {
		t.Errorf("expected normal item second, got %q", d.Request.URL)
	}
}

func TestMemorySetReadySoonBeforeNormal(t *testing.T) {
	s := NewMemorySet()
	defer s.Close()
	ctx := context.Background()

	if err := s.Push(ctx, Normal, req("normal"), 0); err != nil {
		t.Fatalf("push normal: %v", err)
	}
	// Already-elapsed delay: should be popped ahead of Normal once ready.
	if err := s.Push(ctx, Soon, req("soon"), time.Millisecond); err != nil {
		t.Fatalf("push soon: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	d, err := s.Pop(ctx)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if d.Request.URL != "soon" {
		t.Errorf("expected ready soon item first, got %q", d.Request.URL)
	}

	d, err = s.Pop(ctx)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if d.Request.URL != "normal" {
		t.Errorf("expected normal item second, got %q", d.Request.URL)
	}
}

func TestMemorySetSoonNotReadyWaits(t *testing.T) {
	s := NewMemorySet()
	defer s.Close()
	ctx := context.Background()

	if err := s.Push(ctx, Soon, req("soon"), 200*time.Millisecond); err != nil {
		t.Fatalf("push soon: %v", err)
	}

	popCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := s.Pop(popCtx); err == nil {
		t.Fatalf("expected pop to block on an unready soon item")
	}

	d, err := s.Pop(ctx)
	if err != nil {
		t.Fatalf("pop after delay elapses: %v", err)
	}
	if d.Request.URL != "soon" {
		t.Errorf("expected soon item, got %q", d.Request.URL)
	}
}

func TestMemorySetSoonZeroDelayIsNormal(t *testing.T) {
	s := NewMemorySet()
	defer s.Close()
	ctx := context.Background()

	if err := s.Push(ctx, Soon, req("soon-zero"), 0); err != nil {
		t.Fatalf("push soon: %v", err)
	}

	n, err := s.Len(ctx, Normal)
	if err != nil {
		t.Fatalf("len normal: %v", err)
	}
	if n != 1 {
		t.Errorf("expected a zero-delay Soon push to land in Normal, got Normal len %d", n)
	}
	n, err = s.Len(ctx, Soon)
	if err != nil {
		t.Fatalf("len soon: %v", err)
	}
	if n != 0 {
		t.Errorf("expected Soon heap to be empty, got %d", n)
	}
}

func TestMemorySetDeadDoesNotPop(t *testing.T) {
	s := NewMemorySet()
	defer s.Close()
	ctx := context.Background()

	if err := s.Push(ctx, Dead, req("dead"), 0); err != nil {
		t.Fatalf("push dead: %v", err)
	}

	n, err := s.Len(ctx, Dead)
	if err != nil {
		t.Fatalf("len dead: %v", err)
	}
	if n != 1 {
		t.Errorf("expected dead len 1, got %d", n)
	}

	letters := s.DeadLetters()
	if len(letters) != 1 || letters[0].URL != "dead" {
		t.Errorf("expected DeadLetters to return the pushed request, got %+v", letters)
	}

	popCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := s.Pop(popCtx); err == nil {
		t.Fatalf("expected Pop to never surface a Dead-queue item")
	}
}

func TestMemorySetPopOnClosedEmptyReturnsErrQueueEmpty(t *testing.T) {
	s := NewMemorySet()
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := s.Pop(ctx); err != types.ErrQueueEmpty {
		t.Errorf("expected ErrQueueEmpty on closed empty set, got %v", err)
	}
}

func TestMemorySetPushAfterCloseErrors(t *testing.T) {
	s := NewMemorySet()
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := s.Push(ctx, Normal, req("late"), 0); err != types.ErrCrawlStopped {
		t.Errorf("expected ErrCrawlStopped pushing after close, got %v", err)
	}
}

func TestDeliveryAbandonRequeueReturnsToNormal(t *testing.T) {
	s := NewMemorySet()
	defer s.Close()
	ctx := context.Background()

	if err := s.Push(ctx, Normal, req("retry-me"), 0); err != nil {
		t.Fatalf("push: %v", err)
	}
	d, err := s.Pop(ctx)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}

	if err := d.Abandon(true); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	n, err := s.Len(ctx, Normal)
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 1 {
		t.Errorf("expected abandoned-with-requeue item back in Normal, got len %d", n)
	}
}

func TestDeliveryAbandonWithoutRequeueDrops(t *testing.T) {
	s := NewMemorySet()
	defer s.Close()
	ctx := context.Background()

	if err := s.Push(ctx, Normal, req("drop-me"), 0); err != nil {
		t.Fatalf("push: %v", err)
	}
	d, err := s.Pop(ctx)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}

	if err := d.Abandon(false); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	n, err := s.Len(ctx, Normal)
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no-requeue abandon to drop the item, got Normal len %d", n)
	}
}
