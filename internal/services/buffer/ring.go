package buffer

import (
	"errors"
	"fmt"
	"sync"

	"RegimeWatch/internal/domain/models"
	drepo "RegimeWatch/internal/domain/repository"
)

// ErrInvalidEvent is returned by Append for events of unknown kind or with a missing payload.
var ErrInvalidEvent = errors.New("invalid event")

// ring is a fixed-capacity FIFO. Not safe for concurrent use on its own.
type ring[T any] struct {
	items []T
	head  int // index of the oldest element
	size  int
	seq   uint64
}

func newRing[T any](capacity int) ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return ring[T]{items: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	c := len(r.items)
	if r.size < c {
		r.items[(r.head+r.size)%c] = v
		r.size++
	} else {
		r.items[r.head] = v
		r.head = (r.head + 1) % c
	}
	r.seq++
}

// copyOut returns the contents oldest first.
func (r *ring[T]) copyOut() []T {
	out := make([]T, r.size)
	c := len(r.items)
	n := copy(out, r.items[r.head:min(r.head+r.size, c)])
	if n < r.size {
		copy(out[n:], r.items[:r.size-n])
	}
	return out
}

// RingBuffer keeps the most recent depth and trade events in two independent rings.
// One writer and any number of snapshot readers may use it concurrently.
type RingBuffer struct {
	mu     sync.RWMutex
	depth  ring[models.DepthEvent]
	trades ring[models.TradeEvent]
}

// New creates a buffer holding at most depthCap depth events and tradeCap trades.
func New(depthCap, tradeCap int) *RingBuffer {
	return &RingBuffer{
		depth:  newRing[models.DepthEvent](depthCap),
		trades: newRing[models.TradeEvent](tradeCap),
	}
}

// Append stores ev in the stream matching its kind, evicting the oldest entry when full.
func (b *RingBuffer) Append(ev models.Event) error {
	switch ev.Kind {
	case models.KindDepth:
		if ev.Depth == nil {
			return fmt.Errorf("%w: depth event without payload", ErrInvalidEvent)
		}
		b.mu.Lock()
		b.depth.push(*ev.Depth)
		b.mu.Unlock()
	case models.KindTrade:
		if ev.Trade == nil {
			return fmt.Errorf("%w: trade event without payload", ErrInvalidEvent)
		}
		b.mu.Lock()
		b.trades.push(*ev.Trade)
		b.mu.Unlock()
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, ev.Kind)
	}
	return nil
}

// DepthSnapshot returns a consistent copy of the depth stream.
func (b *RingBuffer) DepthSnapshot() models.DepthSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return models.DepthSnapshot{Events: b.depth.copyOut(), Seq: b.depth.seq}
}

// TradeSnapshot returns a consistent copy of the trade stream.
func (b *RingBuffer) TradeSnapshot() models.TradeSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return models.TradeSnapshot{Events: b.trades.copyOut(), Seq: b.trades.seq}
}

// Len returns the current number of depth and trade events.
func (b *RingBuffer) Len() (depth, trades int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.depth.size, b.trades.size
}

// Capacity returns the configured ring sizes.
func (b *RingBuffer) Capacity() (depth, trades int) {
	return len(b.depth.items), len(b.trades.items)
}

var _ drepo.MarketBuffer = (*RingBuffer)(nil)
