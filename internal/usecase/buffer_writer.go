package usecase

import (
	"context"
	"errors"
	"sync"

	"RegimeWatch/internal/domain/models"
	drepo "RegimeWatch/internal/domain/repository"
	mid "RegimeWatch/internal/middleware"
	"RegimeWatch/internal/services/buffer"
	"RegimeWatch/pkg/logger"
)

// BufferWriter moves events from the ingestion queue into the market buffer.
// It is the only writer of the buffer.
type BufferWriter struct {
	queue   *mid.IngestionQueue
	buf     drepo.MarketBuffer
	metrics drepo.Metrics
	log     *logger.Logger

	once sync.Once
	done chan struct{}
}

func NewBufferWriter(q *mid.IngestionQueue, buf drepo.MarketBuffer, metrics drepo.Metrics, l *logger.Logger) *BufferWriter {
	if l == nil {
		l = logger.Nop()
	}
	return &BufferWriter{
		queue:   q,
		buf:     buf,
		metrics: metrics,
		log:     l.With(logger.String("component", "buffer_writer")),
		done:    make(chan struct{}),
	}
}

// Start runs the writer loop in the background.
func (w *BufferWriter) Start(ctx context.Context) {
	w.once.Do(func() { go w.run(ctx) })
}

// Wait blocks until the loop has drained the queue and exited.
func (w *BufferWriter) Wait() { <-w.done }

func (w *BufferWriter) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case ev := <-w.queue.Events():
			w.apply(ev)
		case <-w.queue.Done():
			n := w.queue.Drain(w.apply)
			w.log.Info("ingestion queue closed", logger.Int("drained", n))
			return
		case <-ctx.Done():
			w.queue.Drain(w.apply)
			return
		}
	}
}

func (w *BufferWriter) apply(ev models.Event) {
	if err := w.buf.Append(ev); err != nil {
		if errors.Is(err, buffer.ErrInvalidEvent) {
			w.metrics.RecordError("invalid_event")
			w.log.Warn("discarding invalid event", logger.Error(err))
			return
		}
		w.metrics.RecordError("buffer_append")
		w.log.Error("buffer append failed", logger.Error(err))
		return
	}
	w.metrics.RecordEvent(string(ev.Kind))
	w.metrics.RecordQueueDepth(w.queue.Len())
}
