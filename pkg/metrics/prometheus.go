package metrics

import (
	"RegimeWatch/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var regimeLabels = []models.Regime{models.RegimeFlat, models.RegimeTrend, models.RegimeTurbulence}

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsTotal *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	reconnects  *prometheus.CounterVec
	queueDepth  prometheus.Gauge
	regime      *prometheus.GaugeVec
	metricValue *prometheus.GaugeVec
	alertsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		eventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimewatch_events_total",
				Help: "Total number of stream events accepted into the buffer",
			},
			[]string{"kind"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimewatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		reconnects: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimewatch_feed_reconnects_total",
				Help: "Total number of feed reconnect attempts",
			},
			[]string{"symbol"},
		),
		queueDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "regimewatch_ingestion_queue_depth",
				Help: "Events waiting in the ingestion queue",
			},
		),
		regime: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regimewatch_regime",
				Help: "1 for the currently held regime, 0 otherwise",
			},
			[]string{"symbol", "regime"},
		),
		metricValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regimewatch_metric_value",
				Help: "Latest computed microstructure metric",
			},
			[]string{"symbol", "metric"},
		),
		alertsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimewatch_alerts_total",
				Help: "Alert deliveries by channel and result",
			},
			[]string{"channel", "result"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regimewatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvent counts an event appended to the buffer.
func (r *Recorder) RecordEvent(kind string) {
	r.eventsTotal.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordReconnect(symbol string) {
	r.reconnects.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordQueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}

// RecordRegime flips the one-hot regime gauge for symbol.
func (r *Recorder) RecordRegime(symbol string, regime models.Regime) {
	for _, l := range regimeLabels {
		v := 0.0
		if l == regime {
			v = 1
		}
		r.regime.WithLabelValues(symbol, string(l)).Set(v)
	}
}

// RecordMetrics exports every metric field as a gauge.
func (r *Recorder) RecordMetrics(symbol string, m models.Metrics) {
	for name, v := range m.Fields() {
		r.metricValue.WithLabelValues(symbol, name).Set(v)
	}
}

func (r *Recorder) RecordAlert(channel, result string) {
	r.alertsTotal.WithLabelValues(channel, result).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
