package usecase

import (
	"context"
	"sync"
	"time"

	"RegimeWatch/internal/domain/models"
	drepo "RegimeWatch/internal/domain/repository"
	"RegimeWatch/internal/service/ratelimit"
	"RegimeWatch/pkg/logger"
)

type DispatcherConfig struct {
	RetryDelay time.Duration
	Timeout    time.Duration
	QueueSize  int
}

// AlertDispatcher fans regime transitions out to notifiers off the compute path.
// Each notifier gets one retry; failures after that are logged and dropped.
type AlertDispatcher struct {
	notifiers []drepo.Notifier
	limiter   *ratelimit.Limiter
	metrics   drepo.Metrics
	log       *logger.Logger
	cfg       DispatcherConfig

	mu      sync.RWMutex
	ch      chan models.Transition
	stopped bool
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewAlertDispatcher builds a dispatcher; limiter may be nil to disable throttling.
func NewAlertDispatcher(
	notifiers []drepo.Notifier,
	limiter *ratelimit.Limiter,
	metrics drepo.Metrics,
	cfg DispatcherConfig,
	l *logger.Logger,
) *AlertDispatcher {
	if l == nil {
		l = logger.Nop()
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &AlertDispatcher{
		notifiers: notifiers,
		limiter:   limiter,
		metrics:   metrics,
		log:       l.With(logger.String("component", "alerts")),
		cfg:       cfg,
		ch:        make(chan models.Transition, cfg.QueueSize),
		done:      make(chan struct{}),
	}
}

// Start launches the delivery loop.
func (d *AlertDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	go d.run(ctx)
}

// Enqueue hands a transition to the loop without blocking.
// It returns false when the queue is full or the dispatcher is stopped.
func (d *AlertDispatcher) Enqueue(tr models.Transition) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return false
	}
	select {
	case d.ch <- tr:
		return true
	default:
		d.metrics.RecordAlert("all", "dropped")
		return false
	}
}

// Stop refuses new transitions, then waits for queued ones until ctx expires.
func (d *AlertDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.ch)
	started, cancel := d.started, d.cancel
	d.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-d.done:
		cancel()
		return nil
	case <-ctx.Done():
		cancel()
		<-d.done
		return ctx.Err()
	}
}

func (d *AlertDispatcher) run(ctx context.Context) {
	defer close(d.done)
	for tr := range d.ch {
		d.deliver(ctx, tr)
	}
}

func (d *AlertDispatcher) deliver(ctx context.Context, tr models.Transition) {
	var wg sync.WaitGroup
	for _, n := range d.notifiers {
		if !d.limiter.Allow(n.Name()) {
			d.metrics.RecordAlert(n.Name(), "throttled")
			d.log.Warn("alert throttled",
				logger.String("channel", n.Name()),
				logger.String("regime", tr.To.String()),
			)
			continue
		}
		wg.Add(1)
		go func(n drepo.Notifier) {
			defer wg.Done()
			d.send(ctx, n, tr)
		}(n)
	}
	wg.Wait()
}

func (d *AlertDispatcher) send(ctx context.Context, n drepo.Notifier, tr models.Transition) {
	start := time.Now()
	err := d.attempt(ctx, n, tr)
	if err != nil && ctx.Err() == nil {
		d.log.Warn("alert delivery failed, retrying",
			logger.String("channel", n.Name()),
			logger.Duration("delay", d.cfg.RetryDelay),
			logger.Error(err),
		)
		if sleepCtx(ctx, d.cfg.RetryDelay) == nil {
			err = d.attempt(ctx, n, tr)
		}
	}
	d.metrics.RecordLatency("alert_"+n.Name(), time.Since(start).Seconds())

	if err != nil {
		d.metrics.RecordAlert(n.Name(), "failed")
		d.log.Error("alert dropped",
			logger.String("channel", n.Name()),
			logger.String("regime", tr.To.String()),
			logger.Error(err),
		)
		return
	}
	d.metrics.RecordAlert(n.Name(), "sent")
}

func (d *AlertDispatcher) attempt(ctx context.Context, n drepo.Notifier, tr models.Transition) error {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}
	return n.SendAlert(ctx, string(tr.To), tr.Metrics)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
