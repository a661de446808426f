package repository

import (
	"context"
	"testing"
	"time"

	"RegimeWatch/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureProducer struct {
	key   []byte
	value interface{}
}

func (c *captureProducer) Publish(_ context.Context, key []byte, value interface{}) error {
	c.key, c.value = key, value
	return nil
}

func (c *captureProducer) Close() error { return nil }

func TestKafkaAlertPublisherPayload(t *testing.T) {
	prod := &captureProducer{}
	pub := NewKafkaAlertPublisher(prod, "BTCUSDT")
	at := time.Unix(1700000000, 0)
	pub.now = func() time.Time { return at }

	m := models.Metrics{Sigma: 0.06, Kappa: 3}
	require.NoError(t, pub.SendAlert(context.Background(), "TURBULENCE", m))

	assert.Equal(t, "kafka", pub.Name())
	assert.Equal(t, []byte("BTCUSDT"), prod.key)
	alert, ok := prod.value.(models.Alert)
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", alert.Symbol)
	assert.Equal(t, models.RegimeTurbulence, alert.Regime)
	assert.Equal(t, at.UTC(), alert.At)
	assert.Equal(t, m, alert.Metrics)
	_, err := uuid.Parse(alert.ID)
	assert.NoError(t, err)
}
