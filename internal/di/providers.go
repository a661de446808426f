package di

import (
	"context"
	"fmt"
	"time"

	"RegimeWatch/internal/domain/repository"
	"RegimeWatch/internal/handler/api"
	mid "RegimeWatch/internal/middleware"
	internalrepo "RegimeWatch/internal/repository"
	"RegimeWatch/internal/service/binance"
	"RegimeWatch/internal/service/cache"
	"RegimeWatch/internal/service/ratelimit"
	"RegimeWatch/internal/service/telegram"
	"RegimeWatch/internal/service/webhook"
	"RegimeWatch/internal/services/buffer"
	"RegimeWatch/internal/services/engine"
	"RegimeWatch/internal/services/regime"
	"RegimeWatch/internal/usecase"
	"RegimeWatch/pkg/config"
	xhttp "RegimeWatch/pkg/http"
	pkgkafka "RegimeWatch/pkg/kafka"
	"RegimeWatch/pkg/logger"
	"RegimeWatch/pkg/metrics"
	"RegimeWatch/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger creates the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry shared by every collector.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegisterer(reg)
}

func ProvideRingBuffer(cfg *config.Config) *buffer.RingBuffer {
	return buffer.New(cfg.DepthCapacity(), cfg.TradeCapacity())
}

func ProvideIngestionQueue(cfg *config.Config, m repository.Metrics) *mid.IngestionQueue {
	return mid.NewIngestionQueue(cfg.Feed.QueueSize, mid.WithMetrics(m))
}

// ProvideConnector creates the Binance combined-stream connector.
func ProvideConnector(cfg *config.Config, q *mid.IngestionQueue, m repository.Metrics, l *logger.Logger) *binance.Connector {
	return binance.New(binance.Config{
		Symbol:           cfg.Feed.Symbol,
		BaseURL:          cfg.Feed.WebSocketURL,
		DepthSpeed:       cfg.Feed.DepthSpeed,
		MaxRetries:       cfg.Feed.MaxRetries,
		RetryDelay:       cfg.Feed.RetryDelay,
		HandshakeTimeout: cfg.Feed.HandshakeTimeout,
		ReadTimeout:      cfg.Feed.ReadTimeout,
		PingInterval:     cfg.Feed.PingInterval,
	}, q, m, l)
}

func ProvideBufferWriter(q *mid.IngestionQueue, buf *buffer.RingBuffer, m repository.Metrics, l *logger.Logger) *usecase.BufferWriter {
	return usecase.NewBufferWriter(q, buf, m, l)
}

func ProvideEngine(buf *buffer.RingBuffer, cfg *config.Config, l *logger.Logger) *engine.MetricEngine {
	return engine.New(buf, engine.Config{
		DT:          cfg.Engine.SampleDT,
		WindowShort: cfg.Engine.WindowShort,
		WindowLong:  cfg.Engine.WindowLong,
		OFIWindow:   cfg.Engine.OFIWindow,
		Alpha:       cfg.Engine.Alpha,
	}, l)
}

func ProvideClassifier(cfg *config.Config, l *logger.Logger) *regime.Classifier {
	return regime.New(regime.Thresholds{
		MuEps:     cfg.Regime.MuEps,
		SigmaLow:  cfg.Regime.SigmaLow,
		SigmaMed:  cfg.Regime.SigmaMed,
		SigmaHigh: cfg.Regime.SigmaHigh,
		KappaCrit: cfg.Regime.KappaCrit,
	}, l)
}

// ProvideSnapshotCache selects the snapshot backend. Redis is pinged up front.
func ProvideSnapshotCache(cfg *config.Config) (cache.BytesCache, error) {
	if cfg.Snapshot.Backend != "redis" {
		return cache.NewTTLCache(), nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("snapshot cache: %w", err)
	}
	return rc, nil
}

func ProvideSnapshotRepository(c cache.BytesCache, cfg *config.Config) *internalrepo.SnapshotRepository {
	return internalrepo.NewSnapshotRepository(c, cfg.Snapshot.Prefix, cfg.Feed.Symbol, cfg.Snapshot.TTL)
}

// ProvideKafkaAlertPublisher returns nil when Kafka alerts are disabled.
func ProvideKafkaAlertPublisher(cfg *config.Config, reg *prometheus.Registry) (*internalrepo.KafkaAlertPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Feed.Symbol), nil
}

// ProvideNotifiers builds every enabled alert channel.
func ProvideNotifiers(cfg *config.Config, kafkaPub *internalrepo.KafkaAlertPublisher, l *logger.Logger) ([]repository.Notifier, error) {
	var out []repository.Notifier
	if cfg.Telegram.Enabled {
		tg, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Feed.Symbol, cfg.Alerts.Timeout)
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		out = append(out, tg)
	}
	if cfg.Webhook.Enabled {
		client := xhttp.NewClient(xhttp.WithTimeout(cfg.Alerts.Timeout))
		out = append(out, webhook.New(client, cfg.Webhook.URL, cfg.Webhook.Headers, cfg.Feed.Symbol))
	}
	if kafkaPub != nil {
		out = append(out, kafkaPub)
	}

	names := make([]string, 0, len(out))
	for _, n := range out {
		names = append(names, n.Name())
	}
	l.Info("alert channels configured", logger.Strings("channels", names))
	return out, nil
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Alerts.Burst, cfg.Alerts.PerMinute)
}

func ProvideAlertDispatcher(
	notifiers []repository.Notifier,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.AlertDispatcher {
	return usecase.NewAlertDispatcher(notifiers, limiter, m, usecase.DispatcherConfig{
		RetryDelay: cfg.Alerts.RetryDelay,
		Timeout:    cfg.Alerts.Timeout,
		QueueSize:  cfg.Alerts.QueueSize,
	}, l)
}

func ProvideMonitor(
	cfg *config.Config,
	eng *engine.MetricEngine,
	cls *regime.Classifier,
	buf *buffer.RingBuffer,
	repo *internalrepo.SnapshotRepository,
	dispatcher *usecase.AlertDispatcher,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Monitor {
	return usecase.NewMonitor(cfg.Feed.Symbol, eng, cls, buf, repo, dispatcher, m, cfg.Engine.HistorySize, l)
}

func ProvideScheduler(l *logger.Logger) *usecase.Scheduler {
	return usecase.NewScheduler(l)
}

func ProvideSnapshotHandler(
	l *logger.Logger,
	mon *usecase.Monitor,
	buf *buffer.RingBuffer,
	conn *binance.Connector,
	repo *internalrepo.SnapshotRepository,
) *api.SnapshotEchoHandler {
	return api.NewSnapshotEchoHandler(l, mon, buf, conn, repo)
}

// ProvideHTTPServer creates the Echo server with the dashboard API and /metrics.
func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, h *api.SnapshotEchoHandler, reg *prometheus.Registry) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, []xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithRegistry(reg),
	)
}

// ProvideClosers collects clients released at the end of shutdown.
func ProvideClosers(repo *internalrepo.SnapshotRepository, kafkaPub *internalrepo.KafkaAlertPublisher) server.Closers {
	closers := server.Closers{repo}
	if kafkaPub != nil {
		closers = append(closers, kafkaPub)
	}
	return closers
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	q *mid.IngestionQueue,
	writer *usecase.BufferWriter,
	conn *binance.Connector,
	sched *usecase.Scheduler,
	mon *usecase.Monitor,
	dispatcher *usecase.AlertDispatcher,
	httpServer *xhttp.Server,
	closers server.Closers,
) *server.App {
	return server.New(cfg, l, q, writer, conn, sched, mon, dispatcher, httpServer, closers)
}
