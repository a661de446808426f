package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RegimeWatch/internal/middleware"
	"RegimeWatch/internal/service/binance"
	"RegimeWatch/internal/usecase"
	"RegimeWatch/pkg/config"
	xhttp "RegimeWatch/pkg/http"
	applogger "RegimeWatch/pkg/logger"
)

// Closers are infrastructure clients released last on shutdown.
type Closers []io.Closer

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	queue      *middleware.IngestionQueue
	writer     *usecase.BufferWriter
	connector  *binance.Connector
	scheduler  *usecase.Scheduler
	monitor    *usecase.Monitor
	dispatcher *usecase.AlertDispatcher
	httpServer *xhttp.Server
	closers    Closers
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	queue *middleware.IngestionQueue,
	writer *usecase.BufferWriter,
	connector *binance.Connector,
	scheduler *usecase.Scheduler,
	monitor *usecase.Monitor,
	dispatcher *usecase.AlertDispatcher,
	httpServer *xhttp.Server,
	closers Closers,
) *App {
	return &App{
		cfg:        cfg,
		log:        l,
		queue:      queue,
		writer:     writer,
		connector:  connector,
		scheduler:  scheduler,
		monitor:    monitor,
		dispatcher: dispatcher,
		httpServer: httpServer,
		closers:    closers,
	}
}

// Run starts the application and blocks until interrupted or the feed fails for good.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run with an explicit stop context.
func (a *App) RunContext(ctx context.Context) error {
	// writer and dispatcher outlive ctx so they can drain during shutdown
	bg, cancelBG := context.WithCancel(context.Background())
	defer cancelBG()

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	a.writer.Start(bg)
	a.dispatcher.Start(bg)

	if err := a.connector.Start(ctx); err != nil {
		a.log.Error("feed start error", applogger.Error(err))
		a.shutdown()
		return err
	}
	a.log.Info("feed started",
		applogger.String("symbol", a.cfg.Feed.Symbol),
		applogger.String("url", a.connector.StreamURL()),
	)

	a.scheduler.Every(a.cfg.Engine.Interval, func(ctx context.Context) {
		a.monitor.Tick(ctx)
	})
	a.scheduler.Start(ctx)
	a.log.Info("monitor started", applogger.Duration("interval", a.cfg.Engine.Interval))

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case <-a.connector.Done():
		if runErr = a.connector.Err(); runErr != nil {
			a.log.Error("feed failed", applogger.Error(runErr))
		}
	}

	a.shutdown()
	return runErr
}

// shutdown stops components in dependency order: producers first, sinks last.
func (a *App) shutdown() {
	a.log.Info("shutting down...")
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	a.scheduler.Stop()
	a.connector.Stop()
	a.queue.Close()
	a.writer.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.dispatcher.Stop(ctx); err != nil {
		a.log.Warn("alert dispatcher stop error", applogger.Error(err))
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
