package middleware

import (
	"context"
	"testing"
	"time"

	"RegimeWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ev(v float64) models.Event { return models.NewDepthEvent(time.Now(), v) }

func TestPutAndReceiveInOrder(t *testing.T) {
	q := NewIngestionQueue(3)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Put(ctx, ev(float64(i))))
	}
	assert.Equal(t, 3, q.Len())
	for i := 0; i < 3; i++ {
		got := <-q.Events()
		assert.Equal(t, float64(i), got.Depth.Value)
	}
}

func TestPutBlocksWhenFull(t *testing.T) {
	q := NewIngestionQueue(1)
	require.NoError(t, q.Put(context.Background(), ev(1)))

	putDone := make(chan error, 1)
	go func() { putDone <- q.Put(context.Background(), ev(2)) }()

	select {
	case <-putDone:
		t.Fatal("put on a full queue should block")
	case <-time.After(50 * time.Millisecond):
	}

	<-q.Events()
	select {
	case err := <-putDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("put did not resume after space freed")
	}
	assert.Equal(t, 2.0, (<-q.Events()).Depth.Value)
}

func TestPutHonoursCancellation(t *testing.T) {
	q := NewIngestionQueue(1)
	require.NoError(t, q.Put(context.Background(), ev(1)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := q.Put(ctx, ev(2))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseUnblocksProducers(t *testing.T) {
	q := NewIngestionQueue(1)
	require.NoError(t, q.Put(context.Background(), ev(1)))

	putDone := make(chan error, 1)
	go func() { putDone <- q.Put(context.Background(), ev(2)) }()
	time.Sleep(20 * time.Millisecond)

	q.Close()
	q.Close()
	select {
	case err := <-putDone:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("close did not release blocked producer")
	}

	assert.ErrorIs(t, q.Put(context.Background(), ev(3)), ErrQueueClosed)

	var drained []float64
	n := q.Drain(func(e models.Event) { drained = append(drained, e.Depth.Value) })
	assert.Equal(t, 1, n)
	assert.Equal(t, []float64{1}, drained)
}
