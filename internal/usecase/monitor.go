package usecase

import (
	"context"
	"sync"
	"time"

	"RegimeWatch/internal/domain/models"
	drepo "RegimeWatch/internal/domain/repository"
	"RegimeWatch/internal/services/engine"
	"RegimeWatch/internal/services/regime"
	"RegimeWatch/pkg/logger"
)

// BufferStats reports how many events the buffer currently holds.
type BufferStats interface {
	Len() (depth, trades int)
}

// AlertSink receives regime transitions for delivery.
type AlertSink interface {
	Enqueue(tr models.Transition) bool
}

// Monitor is the periodic compute step: metrics, classification, export, alerts.
type Monitor struct {
	symbol     string
	engine     *engine.MetricEngine
	classifier *regime.Classifier
	stats      BufferStats
	store      drepo.SnapshotStore
	alerts     AlertSink
	metrics    drepo.Metrics
	log        *logger.Logger
	now        func() time.Time

	mu          sync.RWMutex
	last        models.Snapshot
	hasLast     bool
	history     []models.Snapshot
	historySize int
}

// NewMonitor wires the compute step. store and alerts may be nil.
func NewMonitor(
	symbol string,
	eng *engine.MetricEngine,
	cls *regime.Classifier,
	stats BufferStats,
	store drepo.SnapshotStore,
	alerts AlertSink,
	metrics drepo.Metrics,
	historySize int,
	l *logger.Logger,
) *Monitor {
	if l == nil {
		l = logger.Nop()
	}
	if historySize < 1 {
		historySize = 1
	}
	return &Monitor{
		symbol:      symbol,
		engine:      eng,
		classifier:  cls,
		stats:       stats,
		store:       store,
		alerts:      alerts,
		metrics:     metrics,
		log:         l.With(logger.String("component", "monitor"), logger.String("symbol", symbol)),
		now:         time.Now,
		historySize: historySize,
	}
}

// Tick runs one compute cycle and returns the produced snapshot.
func (m *Monitor) Tick(ctx context.Context) models.Snapshot {
	start := time.Now()

	metrics := m.engine.Compute()
	reg, tr := m.classifier.Classify(metrics)

	snap := models.Snapshot{
		Symbol:     m.symbol,
		Regime:     reg,
		Metrics:    metrics,
		ComputedAt: m.now(),
	}
	if m.stats != nil {
		snap.DepthLen, snap.TradeLen = m.stats.Len()
	}

	m.record(snap)
	m.metrics.RecordMetrics(m.symbol, metrics)
	m.metrics.RecordRegime(m.symbol, reg)

	if m.store != nil {
		if err := m.store.Save(ctx, snap); err != nil {
			m.metrics.RecordError("snapshot_save")
			m.log.Warn("failed to save snapshot", logger.Error(err))
		}
	}

	if tr != nil && m.alerts != nil {
		tr.Symbol = m.symbol
		if !m.alerts.Enqueue(*tr) {
			m.log.Warn("alert queue full, transition dropped",
				logger.String("to", tr.To.String()),
			)
		}
	}

	m.metrics.RecordLatency("tick", time.Since(start).Seconds())
	m.log.Debug("tick",
		logger.String("regime", reg.String()),
		logger.Float64("D", metrics.D),
		logger.Float64("sigma", metrics.Sigma),
		logger.Float64("kappa", metrics.Kappa),
	)
	return snap
}

func (m *Monitor) record(snap models.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = snap
	m.hasLast = true
	m.history = append(m.history, snap)
	if over := len(m.history) - m.historySize; over > 0 {
		n := copy(m.history, m.history[over:])
		m.history = m.history[:n]
	}
}

// Snapshot returns the most recent tick's output. ok is false before the first tick.
func (m *Monitor) Snapshot() (models.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.hasLast
}

// History returns up to limit most recent snapshots, oldest first.
func (m *Monitor) History(limit int) []models.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Snapshot, n)
	copy(out, m.history[len(m.history)-n:])
	return out
}

// Symbol is the monitored instrument.
func (m *Monitor) Symbol() string { return m.symbol }
