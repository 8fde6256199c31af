package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ghcrawl/ghcrawl/internal/policy"
	"github.com/ghcrawl/ghcrawl/internal/types"
)

// AMQPSet is a QueueSet backed by RabbitMQ, grounded on the ack/nack/DLQ
// idiom used for durable work queues: priority/normal/soon are ordinary
// queues, soon messages are delayed client-side then republished onto
// normal once their delay elapses, and dead is a plain durable queue
// nothing ever reads back off automatically. Pop honors priority order
// by preferring a ready priority delivery over a normal one whenever
// both channels have something buffered.
type AMQPSet struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	prefix string
	log    *slog.Logger

	priorityQueue string
	normalQueue   string
	soonQueue     string
	deadQueue     string

	priorityDeliveries <-chan amqp.Delivery
	normalDeliveries   <-chan amqp.Delivery
}

// AMQPConfig configures the RabbitMQ-backed QueueSet.
type AMQPConfig struct {
	URL    string
	Prefix string
}

// NewAMQPSet dials RabbitMQ and declares the priority/normal/soon/dead
// topology under the configured queue name prefix.
func NewAMQPSet(cfg AMQPConfig, log *slog.Logger) (*AMQPSet, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.Qos(2, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp qos: %w", err)
	}

	s := &AMQPSet{
		conn:          conn,
		ch:            ch,
		prefix:        cfg.Prefix,
		log:           log.With("component", "queue.amqp"),
		priorityQueue: cfg.Prefix + "-priority",
		normalQueue:   cfg.Prefix + "-normal",
		soonQueue:     cfg.Prefix + "-soon",
		deadQueue:     cfg.Prefix + "-dead",
	}

	if err := s.declareTopology(); err != nil {
		conn.Close()
		return nil, err
	}

	priorityDeliveries, err := ch.Consume(s.priorityQueue, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp consume priority: %w", err)
	}
	s.priorityDeliveries = priorityDeliveries

	normalDeliveries, err := ch.Consume(s.normalQueue, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp consume normal: %w", err)
	}
	s.normalDeliveries = normalDeliveries

	return s, nil
}

func (s *AMQPSet) declareTopology() error {
	if _, err := s.ch.QueueDeclare(s.priorityQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare priority queue: %w", err)
	}
	if _, err := s.ch.QueueDeclare(s.normalQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare normal queue: %w", err)
	}
	if _, err := s.ch.QueueDeclare(s.deadQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead queue: %w", err)
	}
	// soon has no dead-letter exchange: per-message x-delay is not
	// available on stock RabbitMQ, so each push to soon schedules its own
	// timer client-side and republishes onto normal.
	if _, err := s.ch.QueueDeclare(s.soonQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare soon queue: %w", err)
	}
	return nil
}

func (s *AMQPSet) Push(ctx context.Context, queue Name, req *types.Request, delay time.Duration) error {
	body, err := json.Marshal(req.ToQueuable())
	if err != nil {
		return fmt.Errorf("marshal queuable: %w", err)
	}

	target := s.normalQueue
	switch queue {
	case Dead:
		target = s.deadQueue
	case Priority:
		target = s.priorityQueue
	case Soon:
		if delay > 0 {
			go s.publishDelayed(body, delay)
			return nil
		}
		target = s.normalQueue
	}

	return s.ch.PublishWithContext(ctx, "", target, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// publishDelayed sleeps out the delay before republishing onto normal. A
// process crash during the sleep drops the delayed message; soon-queue
// traffic is pagination backoff and empty-queue polling, both of which a
// restart safely regenerates, so this is an acceptable loss compared to
// the operational cost of a delayed-message-exchange plugin dependency.
func (s *AMQPSet) publishDelayed(body []byte, delay time.Duration) {
	time.Sleep(delay)
	if err := s.ch.PublishWithContext(context.Background(), "", s.normalQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}); err != nil {
		s.log.Error("delayed republish failed", "error", err)
	}
}

// Pop prefers a buffered priority delivery over a normal one; soon items
// surface here only after publishDelayed has moved them onto normal.
func (s *AMQPSet) Pop(ctx context.Context) (*Delivery, error) {
	select {
	case d, ok := <-s.priorityDeliveries:
		if !ok {
			return nil, types.ErrQueueEmpty
		}
		return s.wrap(d)
	default:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-s.priorityDeliveries:
		if !ok {
			return nil, types.ErrQueueEmpty
		}
		return s.wrap(d)
	case d, ok := <-s.normalDeliveries:
		if !ok {
			return nil, types.ErrQueueEmpty
		}
		return s.wrap(d)
	}
}

func (s *AMQPSet) wrap(d amqp.Delivery) (*Delivery, error) {
	var q types.Queuable
	if err := json.Unmarshal(d.Body, &q); err != nil {
		d.Nack(false, false)
		return nil, fmt.Errorf("unmarshal delivery: %w", err)
	}
	pol := policy.FromDescriptor(q.Policy)
	req := types.FromQueuable(q, pol)
	delivery := d
	return &Delivery{
		Request: req,
		ack:     func() error { return delivery.Ack(false) },
		abandon: func(requeue bool) error { return delivery.Nack(false, requeue) },
	}, nil
}

func (s *AMQPSet) Len(_ context.Context, queue Name) (int, error) {
	name := s.normalQueue
	switch queue {
	case Priority:
		name = s.priorityQueue
	case Soon:
		name = s.soonQueue
	case Dead:
		name = s.deadQueue
	}
	q, err := s.ch.QueueInspect(name)
	if err != nil {
		return 0, fmt.Errorf("inspect %s: %w", name, err)
	}
	return q.Messages, nil
}

func (s *AMQPSet) Close() error {
	if err := s.ch.Close(); err != nil {
		s.conn.Close()
		return err
	}
	return s.conn.Close()
}
