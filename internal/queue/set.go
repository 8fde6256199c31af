// Package queue implements the QueueSet abstraction: four independently
// addressable named queues (priority, normal, soon, dead) with
// per-message ack/abandon/requeue semantics.
package queue

import (
	"context"
	"time"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

// Name identifies one of the four queues a QueueSet manages.
type Name string

const (
	// Priority holds requests that must be dequeued ahead of Normal work
	// (e.g. root-type seeds, operator-submitted requests).
	Priority Name = "priority"
	// Normal holds ordinary discovered work.
	Normal Name = "normal"
	// Soon holds requests that should not be dequeued before their delay
	// elapses (pagination backoff, empty-queue polling, retry backoff) but
	// are drained eagerly once ready, ahead of Normal.
	Soon Name = "soon"
	// Dead holds requests that exhausted types.MaxAttempts.
	Dead Name = "dead"
)

// Delivery wraps a dequeued Request together with the handle needed to
// ack, abandon (requeue), or dead-letter it.
type Delivery struct {
	Request *types.Request
	ack     func() error
	abandon func(requeue bool) error
}

// Ack confirms successful processing; the broker will not redeliver.
func (d *Delivery) Ack() error { return d.ack() }

// Abandon signals the delivery failed. When requeue is true the broker
// redelivers it unchanged (AttemptCount is not incremented); when false it is
// dropped (the caller is expected to have already routed it to Dead).
func (d *Delivery) Abandon(requeue bool) error { return d.abandon(requeue) }

// Set is the QueueSet abstraction a Crawler pops work from and pushes
// discovered/requeued/dead requests onto.
type Set interface {
	// Push enqueues req onto the named queue. Pushing onto Soon with a
	// zero delay is equivalent to pushing onto Normal.
	Push(ctx context.Context, queue Name, req *types.Request, delay time.Duration) error

	// Pop dequeues the next ready request, honoring Priority over any
	// ready Soon item over Normal. It blocks until one is ready or ctx is
	// cancelled, in which case it returns ctx.Err().
	Pop(ctx context.Context) (*Delivery, error)

	// Len reports the approximate depth of the named queue, for metrics.
	Len(ctx context.Context, queue Name) (int, error)

	// Close releases broker resources. Pending deliveries are not
	// guaranteed to be redelivered to the same caller after Close.
	Close() error
}
