// Package engine computes market-microstructure statistics from buffer snapshots.
package engine

import (
	"math"
	"sync"

	"RegimeWatch/internal/domain/models"
	"RegimeWatch/internal/services/features"
	"RegimeWatch/pkg/logger"
)

const eps = 1e-12

// Config holds the window sizes and smoothing constants of the engine.
type Config struct {
	DT          float64 // assumed seconds between samples
	WindowShort int     // trades used for mu_dot
	WindowLong  int     // returns used for sigma
	OFIWindow   int     // depth deltas kept for OFI
	Alpha       float64 // update-rate EMA smoothing
}

// DefaultConfig returns the stock engine constants.
func DefaultConfig() Config {
	return Config{DT: 0.1, WindowShort: 60, WindowLong: 300, OFIWindow: 10, Alpha: 0.1}
}

// SnapshotSource is the read side of the market buffer.
type SnapshotSource interface {
	DepthSnapshot() models.DepthSnapshot
	TradeSnapshot() models.TradeSnapshot
}

// MetricEngine keeps incremental state (rate EMA, delta window, depth cursor) between Compute calls.
type MetricEngine struct {
	src SnapshotSource
	cfg Config
	log *logger.Logger

	mu        sync.Mutex
	metrics   models.Metrics
	rateEMA   float64
	deltas    []float64
	cursor    uint64
	lastDepth float64
	haveLast  bool
}

// New creates an engine reading from src.
func New(src SnapshotSource, cfg Config, l *logger.Logger) *MetricEngine {
	def := DefaultConfig()
	if cfg.DT <= 0 {
		cfg.DT = def.DT
	}
	if cfg.WindowShort <= 0 {
		cfg.WindowShort = def.WindowShort
	}
	if cfg.WindowLong <= 0 {
		cfg.WindowLong = def.WindowLong
	}
	if cfg.OFIWindow <= 0 {
		cfg.OFIWindow = def.OFIWindow
	}
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = def.Alpha
	}
	if l == nil {
		l = logger.Nop()
	}
	return &MetricEngine{
		src:    src,
		cfg:    cfg,
		log:    l,
		deltas: make([]float64, 0, cfg.OFIWindow),
	}
}

// Compute takes one snapshot of each stream and returns the updated metrics.
// Fields whose inputs are insufficient keep their previous values.
func (e *MetricEngine) Compute() models.Metrics {
	depth := e.src.DepthSnapshot()
	trades := e.src.TradeSnapshot()

	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.metrics
	e.computeDepth(&m, depth)
	e.computeTrades(&m, trades)
	e.metrics = m
	return m
}

// Latest returns the last computed metrics without recomputing.
func (e *MetricEngine) Latest() models.Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

func (e *MetricEngine) computeDepth(m *models.Metrics, snap models.DepthSnapshot) {
	n := len(snap.Events)
	if n == 0 {
		e.log.Debug("insufficient depth data, depth metrics unchanged")
		return
	}

	values := make([]float64, n)
	for i, ev := range snap.Events {
		values[i] = ev.Value
	}

	// D is resummed over the whole window on every call.
	d := features.Sum(values)
	m.D = d

	if d > 0 {
		s := entropy(values, d)
		m.S = s
		if n == 1 {
			m.CI = 1
		} else {
			m.CI = 1 - s/math.Log(float64(n)+eps)
		}
	} else {
		e.log.Debug("zero depth mass, S/CI unchanged", logger.Int("samples", n))
	}

	fresh := e.foldDeltas(values, snap.Seq)
	if len(e.deltas) > 0 {
		ofi := features.Sum(e.deltas)
		scale := features.MedianAbs(e.deltas)
		if scale == 0 {
			scale = 1.0
		}
		m.OFI = ofi
		m.Phi = math.Tanh(ofi / (scale + eps))
	} else {
		e.log.Debug("no depth deltas yet, OFI/phi unchanged")
	}

	e.rateEMA = e.cfg.Alpha*float64(fresh) + (1-e.cfg.Alpha)*e.rateEMA
	m.TL = e.rateEMA / (d + eps)
}

// foldDeltas appends deltas for entries not seen by a previous call and returns how many there were.
func (e *MetricEngine) foldDeltas(values []float64, seq uint64) int {
	n := len(values)
	fresh := 0
	if seq > e.cursor {
		fresh = int(min(seq-e.cursor, uint64(n)))
	}
	for i := n - fresh; i < n; i++ {
		switch {
		case i > 0:
			e.pushDelta(values[i] - values[i-1])
		case e.haveLast:
			e.pushDelta(values[i] - e.lastDepth)
		}
	}
	if fresh > 0 {
		e.lastDepth = values[n-1]
		e.haveLast = true
	}
	e.cursor = seq
	return fresh
}

func (e *MetricEngine) pushDelta(d float64) {
	if len(e.deltas) == e.cfg.OFIWindow {
		copy(e.deltas, e.deltas[1:])
		e.deltas = e.deltas[:len(e.deltas)-1]
	}
	e.deltas = append(e.deltas, d)
}

func (e *MetricEngine) computeTrades(m *models.Metrics, snap models.TradeSnapshot) {
	n := len(snap.Events)
	if n < 2 {
		e.log.Debug("insufficient trade data, mu_dot/sigma/kappa unchanged", logger.Int("trades", n))
		return
	}

	prices := make([]float64, n)
	for i, ev := range snap.Events {
		prices[i] = ev.Price
	}

	w := e.cfg.WindowShort
	if n > w {
		m.MuDot = (prices[n-1] - prices[n-w]) / (float64(w) * e.cfg.DT)
	} else {
		m.MuDot = (prices[n-1] - prices[0]) / (float64(n-1) * e.cfg.DT)
	}

	returns := features.ComputeLogReturns(prices)
	sigma := features.StdDev(features.Tail(returns, e.cfg.WindowLong))
	m.Sigma = sigma
	m.Kappa = sigma / (m.TL + eps)
}

// entropy is -Σ p·ln(p+ε) over the depth distribution p = v/total, clamped at zero.
func entropy(values []float64, total float64) float64 {
	s := 0.0
	for _, v := range values {
		p := v / total
		s -= p * math.Log(p+eps)
	}
	if s < 0 {
		return 0
	}
	return s
}
