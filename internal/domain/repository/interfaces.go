package repository

import (
	"context"

	"RegimeWatch/internal/domain/models"
)

// EventSink accepts classified events from a market stream.
type EventSink interface {
	Put(ctx context.Context, ev models.Event) error
}

// MarketBuffer is the read/write surface of the bounded event history.
type MarketBuffer interface {
	Append(ev models.Event) error
	DepthSnapshot() models.DepthSnapshot
	TradeSnapshot() models.TradeSnapshot
}

// Notifier delivers a regime alert to one channel.
type Notifier interface {
	Name() string
	SendAlert(ctx context.Context, regime string, m models.Metrics) error
}

// SnapshotStore keeps the latest computed snapshot for out-of-band readers.
type SnapshotStore interface {
	Save(ctx context.Context, snap models.Snapshot) error
	Latest(ctx context.Context) (models.Snapshot, error)
}

type Metrics interface {
	RecordEvent(kind string)
	RecordError(kind string)
	RecordReconnect(symbol string)
	RecordQueueDepth(n int)
	RecordRegime(symbol string, regime models.Regime)
	RecordMetrics(symbol string, m models.Metrics)
	RecordAlert(channel, result string)
	RecordLatency(op string, seconds float64)
}
