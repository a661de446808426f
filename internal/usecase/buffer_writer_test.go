package usecase

import (
	"context"
	"testing"
	"time"

	"RegimeWatch/internal/domain/models"
	mid "RegimeWatch/internal/middleware"
	"RegimeWatch/internal/services/buffer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriterDrainsQueueOnClose(t *testing.T) {
	q := mid.NewIngestionQueue(16)
	buf := buffer.New(8, 8)
	m := newFakeMetrics()
	w := NewBufferWriter(q, buf, m, nil)

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, q.Put(ctx, models.NewDepthEvent(now, 1)))
	require.NoError(t, q.Put(ctx, models.Event{Kind: models.KindTrade}))
	require.NoError(t, q.Put(ctx, models.NewTradeEvent(now, 100, 1)))
	require.NoError(t, q.Put(ctx, models.NewDepthEvent(now, 2)))
	q.Close()

	w.Start(ctx)
	w.Start(ctx)

	done := make(chan struct{})
	go func() { w.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not exit after queue close")
	}

	depth := buf.DepthSnapshot()
	require.Len(t, depth.Events, 2)
	assert.Equal(t, 1.0, depth.Events[0].Value)
	assert.Equal(t, 2.0, depth.Events[1].Value)
	require.Len(t, buf.TradeSnapshot().Events, 1)

	assert.Equal(t, 2, m.count(m.events, "depth"))
	assert.Equal(t, 1, m.count(m.events, "trade"))
	assert.Equal(t, 1, m.count(m.errors, "invalid_event"))
}

func TestBufferWriterAppliesWhileRunning(t *testing.T) {
	q := mid.NewIngestionQueue(4)
	buf := buffer.New(8, 8)
	w := NewBufferWriter(q, buf, newFakeMetrics(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, q.Put(ctx, models.NewDepthEvent(time.Now(), 7)))
	assert.Eventually(t, func() bool {
		return len(buf.DepthSnapshot().Events) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	w.Wait()
}
