package repository

import (
	"context"
	"time"

	"RegimeWatch/internal/domain/models"
	drepo "RegimeWatch/internal/domain/repository"

	"github.com/google/uuid"
)

// alertProducer is satisfied by pkg/kafka.Producer.
type alertProducer interface {
	Publish(ctx context.Context, key []byte, value interface{}) error
	Close() error
}

// KafkaAlertPublisher publishes regime transitions keyed by symbol.
type KafkaAlertPublisher struct {
	producer alertProducer
	symbol   string
	now      func() time.Time
}

func NewKafkaAlertPublisher(producer alertProducer, symbol string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer, symbol: symbol, now: time.Now}
}

func (p *KafkaAlertPublisher) Name() string { return "kafka" }

func (p *KafkaAlertPublisher) SendAlert(ctx context.Context, regime string, m models.Metrics) error {
	return p.producer.Publish(ctx, []byte(p.symbol), models.Alert{
		ID:      uuid.NewString(),
		Symbol:  p.symbol,
		Regime:  models.Regime(regime),
		At:      p.now().UTC(),
		Metrics: m,
	})
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ drepo.Notifier = (*KafkaAlertPublisher)(nil)
