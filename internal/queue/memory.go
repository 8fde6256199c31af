package queue

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

// MemorySet is an in-process QueueSet backed by a time-ordered heap,
// grounded on the teacher's Frontier priority queue. It is used for tests
// and single-process development; production deployments use AMQPSet.
type MemorySet struct {
	mu       sync.Mutex
	cond     *sync.Cond
	priority []*types.Request
	normal   []*types.Request
	soon     soonHeap
	dead     []*types.Request
	closed   bool
}

// NewMemorySet builds an empty MemorySet.
func NewMemorySet() *MemorySet {
	s := &MemorySet{}
	s.cond = sync.NewCond(&s.mu)
	heap.Init(&s.soon)
	return s
}

type soonItem struct {
	req   *types.Request
	ready time.Time
	index int
}

type soonHeap []*soonItem

func (h soonHeap) Len() int           { return len(h) }
func (h soonHeap) Less(i, j int) bool { return h[i].ready.Before(h[j].ready) }
func (h soonHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *soonHeap) Push(x any) {
	item := x.(*soonItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *soonHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

func (s *MemorySet) Push(_ context.Context, queue Name, req *types.Request, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrCrawlStopped
	}
	switch queue {
	case Dead:
		s.dead = append(s.dead, req)
		return nil
	case Priority:
		s.priority = append(s.priority, req)
		s.cond.Signal()
		return nil
	case Soon:
		if delay <= 0 {
			s.normal = append(s.normal, req)
			s.cond.Signal()
			return nil
		}
		heap.Push(&s.soon, &soonItem{req: req, ready: time.Now().Add(delay)})
		s.cond.Signal()
		return nil
	default: // Normal
		if delay > 0 {
			heap.Push(&s.soon, &soonItem{req: req, ready: time.Now().Add(delay)})
			s.cond.Signal()
			return nil
		}
		s.normal = append(s.normal, req)
		s.cond.Signal()
		return nil
	}
}

// popReady honors priority order: Priority first, then any Soon item
// whose delay has elapsed (drained eagerly ahead of Normal), then Normal.
func (s *MemorySet) popReady() *types.Request {
	if len(s.priority) > 0 {
		req := s.priority[0]
		s.priority = s.priority[1:]
		return req
	}
	if s.soon.Len() > 0 && !s.soon[0].ready.After(time.Now()) {
		item := heap.Pop(&s.soon).(*soonItem)
		return item.req
	}
	if len(s.normal) > 0 {
		req := s.normal[0]
		s.normal = s.normal[1:]
		return req
	}
	return nil
}

func (s *MemorySet) Pop(ctx context.Context) (*Delivery, error) {
	for {
		s.mu.Lock()
		if req := s.popReady(); req != nil {
			s.mu.Unlock()
			return s.wrap(req), nil
		}
		if s.closed {
			s.mu.Unlock()
			return nil, types.ErrQueueEmpty
		}
		var nextWake time.Duration = 50 * time.Millisecond
		if s.soon.Len() > 0 {
			if d := time.Until(s.soon[0].ready); d < nextWake {
				if d < 0 {
					d = 0
				}
				nextWake = d
			}
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(nextWake):
		}
	}
}

func (s *MemorySet) wrap(req *types.Request) *Delivery {
	return &Delivery{
		Request: req,
		ack:     func() error { return nil },
		abandon: func(requeue bool) error {
			if !requeue {
				return nil
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			s.normal = append(s.normal, req)
			s.cond.Signal()
			return nil
		},
	}
}

func (s *MemorySet) Len(_ context.Context, queue Name) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch queue {
	case Priority:
		return len(s.priority), nil
	case Normal:
		return len(s.normal), nil
	case Soon:
		return s.soon.Len(), nil
	case Dead:
		return len(s.dead), nil
	default:
		return 0, nil
	}
}

func (s *MemorySet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
	return nil
}

// DeadLetters returns a snapshot of dead-lettered requests, for tests and
// operator inspection.
func (s *MemorySet) DeadLetters() []*types.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Request, len(s.dead))
	copy(out, s.dead)
	return out
}
