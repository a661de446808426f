package buffer

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"RegimeWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func depth(v float64) models.Event { return models.NewDepthEvent(t0, v) }

func trade(p float64) models.Event { return models.NewTradeEvent(t0, p, 1) }

func depthValues(s models.DepthSnapshot) []float64 {
	out := make([]float64, len(s.Events))
	for i, e := range s.Events {
		out[i] = e.Value
	}
	return out
}

func TestAppendAndSnapshot(t *testing.T) {
	b := New(10, 10)
	require.NoError(t, b.Append(depth(1)))
	require.NoError(t, b.Append(trade(10)))

	ds := b.DepthSnapshot()
	ts := b.TradeSnapshot()
	require.Len(t, ds.Events, 1)
	require.Len(t, ts.Events, 1)
	assert.Equal(t, 1.0, ds.Events[0].Value)
	assert.Equal(t, 10.0, ts.Events[0].Price)
	assert.Equal(t, uint64(1), ds.Seq)
}

func TestFIFOEviction(t *testing.T) {
	const capacity = 5
	b := New(capacity, capacity)

	rng := rand.New(rand.NewSource(42))
	var all []float64
	for i := 0; i < 200; i++ {
		v := float64(i)
		all = append(all, v)
		require.NoError(t, b.Append(depth(v)))

		d, _ := b.Len()
		require.LessOrEqual(t, d, capacity)

		if rng.Intn(7) == 0 || i == 199 {
			want := all
			if len(want) > capacity {
				want = want[len(want)-capacity:]
			}
			snap := b.DepthSnapshot()
			assert.Equal(t, want, depthValues(snap))
			assert.Equal(t, uint64(i+1), snap.Seq)
		}
	}
}

func TestStreamsAreIndependent(t *testing.T) {
	b := New(2, 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Append(depth(float64(i))))
	}
	require.NoError(t, b.Append(trade(100)))

	d, tr := b.Len()
	assert.Equal(t, 2, d)
	assert.Equal(t, 1, tr)
	assert.Equal(t, []float64{3, 4}, depthValues(b.DepthSnapshot()))
}

func TestAppendInvalidEventLeavesBufferUnchanged(t *testing.T) {
	b := New(4, 4)
	require.NoError(t, b.Append(depth(1)))

	cases := []models.Event{
		{Kind: "other", Depth: &models.DepthEvent{Value: 2}},
		{Kind: models.KindDepth},
		{Kind: models.KindTrade},
		{},
	}
	for _, ev := range cases {
		err := b.Append(ev)
		assert.ErrorIs(t, err, ErrInvalidEvent)
	}

	assert.Equal(t, []float64{1}, depthValues(b.DepthSnapshot()))
	assert.Empty(t, b.TradeSnapshot().Events)
	assert.Equal(t, uint64(1), b.DepthSnapshot().Seq)
}

func TestSnapshotIsACopy(t *testing.T) {
	b := New(3, 3)
	require.NoError(t, b.Append(depth(1)))
	snap := b.DepthSnapshot()
	snap.Events[0].Value = 99

	assert.Equal(t, []float64{1}, depthValues(b.DepthSnapshot()))
}

func TestConcurrentAppendAndSnapshot(t *testing.T) {
	const capacity = 64
	b := New(capacity, capacity)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			_ = b.Append(depth(float64(i)))
		}
	}()

	for i := 0; i < 500; i++ {
		snap := b.DepthSnapshot()
		require.LessOrEqual(t, len(snap.Events), capacity)
		for j := 1; j < len(snap.Events); j++ {
			// arrival order means consecutive values differ by exactly one
			require.Equal(t, snap.Events[j-1].Value+1, snap.Events[j].Value)
		}
	}
	wg.Wait()
}

func TestCapacity(t *testing.T) {
	b := New(0, 7)
	d, tr := b.Capacity()
	assert.Equal(t, 1, d)
	assert.Equal(t, 7, tr)
}
