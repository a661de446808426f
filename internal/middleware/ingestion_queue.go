package middleware

import (
	"context"
	"errors"
	"sync"

	"RegimeWatch/internal/domain/models"
	domrepo "RegimeWatch/internal/domain/repository"
)

// ErrQueueClosed is returned by Put after Close.
var ErrQueueClosed = errors.New("ingestion queue closed")

// IngestionQueue is the bounded hand-off between the feed and the buffer writer.
// Put blocks while the queue is full; nothing is dropped.
type IngestionQueue struct {
	ch      chan models.Event
	done    chan struct{}
	once    sync.Once
	metrics domrepo.Metrics
}

type QueueOption func(*IngestionQueue)

// WithMetrics reports queue depth after every Put.
func WithMetrics(m domrepo.Metrics) QueueOption {
	return func(q *IngestionQueue) { q.metrics = m }
}

// NewIngestionQueue creates a queue holding at most size events.
func NewIngestionQueue(size int, opts ...QueueOption) *IngestionQueue {
	if size < 1 {
		size = 1
	}
	q := &IngestionQueue{
		ch:   make(chan models.Event, size),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Put enqueues ev, suspending while the queue is full.
func (q *IngestionQueue) Put(ctx context.Context, ev models.Event) error {
	// fail fast once closed, even if there is room
	select {
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case q.ch <- ev:
		if q.metrics != nil {
			q.metrics.RecordQueueDepth(len(q.ch))
		}
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is the consumer side. The channel itself is never closed; watch Done.
func (q *IngestionQueue) Events() <-chan models.Event { return q.ch }

// Done is closed by Close.
func (q *IngestionQueue) Done() <-chan struct{} { return q.done }

// Close stops producers. Safe to call more than once.
func (q *IngestionQueue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Len is the number of queued events.
func (q *IngestionQueue) Len() int { return len(q.ch) }

// Cap is the queue capacity.
func (q *IngestionQueue) Cap() int { return cap(q.ch) }

// Drain removes whatever is queued right now without blocking.
func (q *IngestionQueue) Drain(fn func(models.Event)) int {
	n := 0
	for {
		select {
		case ev := <-q.ch:
			fn(ev)
			n++
		default:
			return n
		}
	}
}

var _ domrepo.EventSink = (*IngestionQueue)(nil)
