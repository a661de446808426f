package engine

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"RegimeWatch/internal/domain/models"
	"RegimeWatch/internal/services/buffer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, depthCap, tradeCap int) (*MetricEngine, *buffer.RingBuffer) {
	t.Helper()
	buf := buffer.New(depthCap, tradeCap)
	return New(buf, DefaultConfig(), nil), buf
}

func addDepth(t *testing.T, b *buffer.RingBuffer, vs ...float64) {
	t.Helper()
	for i, v := range vs {
		require.NoError(t, b.Append(models.NewDepthEvent(t0.Add(time.Duration(i)*100*time.Millisecond), v)))
	}
}

func addTrades(t *testing.T, b *buffer.RingBuffer, ps ...float64) {
	t.Helper()
	for i, p := range ps {
		require.NoError(t, b.Append(models.NewTradeEvent(t0.Add(time.Duration(i)*100*time.Millisecond), p, 1)))
	}
}

func TestComputeEndToEndExample(t *testing.T) {
	e, buf := newEngine(t, 100, 100)
	addDepth(t, buf, 1, 2)
	addTrades(t, buf, 100, 101)

	m := e.Compute()

	assert.Equal(t, 3.0, m.D)
	assert.Equal(t, 1.0, m.OFI)
	assert.InDelta(t, 10.0, m.MuDot, 1e-9)
	assert.Greater(t, m.Phi, 0.0)
	assert.GreaterOrEqual(t, m.Sigma, 0.0)
	assert.Greater(t, m.TL, 0.0)
	assert.InDelta(t, 0.2/3, m.TL, 1e-9)
	assert.GreaterOrEqual(t, m.Kappa, 0.0)
}

func TestComputeSingleDepthSample(t *testing.T) {
	e, buf := newEngine(t, 100, 100)
	addDepth(t, buf, 2)

	m := e.Compute()
	assert.Equal(t, 2.0, m.D)
	assert.Equal(t, 1.0, m.CI)
	assert.Equal(t, 0.0, m.S)
	assert.Equal(t, 0.0, m.OFI)
	assert.Equal(t, 0.0, m.MuDot)
}

func TestEntropyConcentratedAndUniform(t *testing.T) {
	e, buf := newEngine(t, 100, 100)
	addDepth(t, buf, 5, 0, 0, 0)
	m := e.Compute()
	assert.InDelta(t, 0.0, m.S, 1e-9)
	assert.InDelta(t, 1.0, m.CI, 1e-9)

	e, buf = newEngine(t, 100, 100)
	addDepth(t, buf, 3, 3, 3, 3)
	m = e.Compute()
	assert.InDelta(t, math.Log(4), m.S, 1e-9)
	assert.InDelta(t, 0.0, m.CI, 1e-9)
}

func TestOFIEqualsSumOfIncreasingDeltas(t *testing.T) {
	e, buf := newEngine(t, 100, 100)
	addDepth(t, buf, 1, 2, 4, 7, 11) // deltas 1,2,3,4

	m := e.Compute()
	assert.Equal(t, 10.0, m.OFI)
	// median |δ| of {1,2,3,4} is 2.5
	assert.InDelta(t, math.Tanh(10/2.5), m.Phi, 1e-9)
}

func TestDeltasAreNotRecomputed(t *testing.T) {
	e, buf := newEngine(t, 100, 100)
	addDepth(t, buf, 1, 2, 4)

	first := e.Compute()
	second := e.Compute()
	assert.Equal(t, 3.0, first.OFI)
	assert.Equal(t, first.OFI, second.OFI)

	addDepth(t, buf, 10)
	third := e.Compute()
	assert.Equal(t, 9.0, third.OFI)
}

func TestOFIWindowIsBounded(t *testing.T) {
	e, buf := newEngine(t, 100, 100)
	for i := 0; i < 25; i++ {
		addDepth(t, buf, float64(i))
	}
	m := e.Compute()
	assert.Equal(t, 10.0, m.OFI)
	assert.Len(t, e.deltas, 10)
}

func TestDeltasAcrossEviction(t *testing.T) {
	e, buf := newEngine(t, 3, 10)
	addDepth(t, buf, 1, 2)
	assert.Equal(t, 1.0, e.Compute().OFI)

	// 5 new entries, ring keeps the last 3; the oldest retained one is diffed against the last seen value
	addDepth(t, buf, 3, 4, 5, 6, 7)
	m := e.Compute()
	// retained {5,6,7}: deltas 5-2, 1, 1 plus the original 1
	assert.Equal(t, 6.0, m.OFI)
	assert.Equal(t, 18.0, m.D)
}

func TestRateEMA(t *testing.T) {
	e, buf := newEngine(t, 100, 100)
	addDepth(t, buf, 1, 1, 1, 1)
	m := e.Compute()
	assert.InDelta(t, 0.4/4, m.TL, 1e-9)

	// no new entries: EMA decays
	m = e.Compute()
	assert.InDelta(t, 0.36/4, m.TL, 1e-9)
}

func TestEmptyDepthKeepsPreviousAndTradesStillCompute(t *testing.T) {
	e, buf := newEngine(t, 100, 100)
	addTrades(t, buf, 100, 100.5)

	m := e.Compute()
	assert.Equal(t, 0.0, m.D)
	assert.InDelta(t, 5.0, m.MuDot, 1e-9)
}

func TestTradeMetricsFollowTheRing(t *testing.T) {
	e, buf := newEngine(t, 100, 2)
	addTrades(t, buf, 100, 110)
	m := e.Compute()
	mu := m.MuDot
	require.InDelta(t, 100.0, mu, 1e-9)

	// ring of 2 still holds 2 trades; metrics move with the window
	addTrades(t, buf, 110)
	m = e.Compute()
	assert.InDelta(t, 0.0, m.MuDot, 1e-9)
}

func TestMuDotShortWindow(t *testing.T) {
	e, buf := newEngine(t, 100, 1000)
	prices := make([]float64, 100)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	addTrades(t, buf, prices...)

	m := e.Compute()
	// (p[99] - p[40]) / (60 * 0.1)
	assert.InDelta(t, 59.0/6.0, m.MuDot, 1e-9)
}

func TestSigmaOverLongWindow(t *testing.T) {
	e, buf := newEngine(t, 100, 1000)
	prices := []float64{100, 101, 100, 101, 100}
	addTrades(t, buf, prices...)
	m := e.Compute()

	up := math.Log(101.0 / 100.0)
	// returns alternate ±up, population std equals |up|
	assert.InDelta(t, up, m.Sigma, 1e-12)
	assert.InDelta(t, m.Sigma/(m.TL+eps), m.Kappa, 1e-3)
}

func TestPhiIsBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		e, buf := newEngine(t, 100, 10)
		v := 1000.0
		for j := 0; j < 15; j++ {
			step := 1 + 0.5*rng.Float64()
			if rng.Intn(2) == 0 {
				step = -step
			}
			v += step
			addDepth(t, buf, v)
		}
		m := e.Compute()
		assert.Greater(t, m.Phi, -1.0)
		assert.Less(t, m.Phi, 1.0)
	}
}

func TestLatestReturnsLastCompute(t *testing.T) {
	e, buf := newEngine(t, 10, 10)
	assert.Equal(t, models.Metrics{}, e.Latest())
	addDepth(t, buf, 4)
	m := e.Compute()
	assert.Equal(t, m, e.Latest())
}
