package binance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	drepo "RegimeWatch/internal/domain/repository"
	"RegimeWatch/pkg/logger"

	"github.com/gorilla/websocket"
)

var (
	// ErrRetriesExhausted is reported once reconnect attempts hit MaxRetries.
	ErrRetriesExhausted = errors.New("feed: reconnect retries exhausted")
	// ErrClosed is returned by Start after the connector has finished.
	ErrClosed = errors.New("feed: connector closed")
)

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateBackoff
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

type Config struct {
	Symbol           string
	BaseURL          string
	DepthSpeed       string
	MaxRetries       int
	RetryDelay       time.Duration
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
}

// sinkError marks a failure to hand an event downstream. It ends the loop without retrying.
type sinkError struct{ err error }

func (e sinkError) Error() string { return "feed sink: " + e.err.Error() }
func (e sinkError) Unwrap() error { return e.err }

// Connector maintains the combined depth+trade stream for one symbol and pushes
// every decoded event into the sink, reconnecting with exponential backoff.
type Connector struct {
	cfg     Config
	sink    drepo.EventSink
	metrics drepo.Metrics
	log     *logger.Logger
	dialer  *websocket.Dialer

	// wait sleeps between attempts; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	state   State
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// New builds a connector; metrics may be nil.
func New(cfg Config, sink drepo.EventSink, m drepo.Metrics, l *logger.Logger) *Connector {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DepthSpeed == "" {
		cfg.DepthSpeed = "100ms"
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Connector{
		cfg:     cfg,
		sink:    sink,
		metrics: m,
		log:     l.With(logger.String("component", "feed"), logger.String("symbol", cfg.Symbol)),
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		wait:  sleepCtx,
		state: StateIdle,
		done:  make(chan struct{}),
	}
}

// StreamURL is the combined-stream endpoint for the configured symbol.
func (c *Connector) StreamURL() string {
	sym := strings.ToLower(c.cfg.Symbol)
	streams := fmt.Sprintf("%s@depth@%s/%s@trade", sym, c.cfg.DepthSpeed, sym)
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return base + "/stream?streams=" + streams
}

// Start launches the background loop. Calling it again while running is a no-op.
func (c *Connector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		select {
		case <-c.done:
			return ErrClosed
		default:
			return nil
		}
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
	return nil
}

// Stop cancels the loop, closes the socket and waits for the loop to exit.
func (c *Connector) Stop() {
	c.mu.Lock()
	if !c.started {
		c.started = true
		c.state = StateStopped
		close(c.done)
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	<-c.done
}

// Done is closed when the loop has exited for any reason.
func (c *Connector) Done() <-chan struct{} { return c.done }

// Err is the terminal error, nil after a clean stop.
func (c *Connector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StateName is State().String(), for health reporting.
func (c *Connector) StateName() string { return c.State().String() }

func (c *Connector) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Connector) run(ctx context.Context) {
	defer close(c.done)

	backoff := NewBackoff(c.cfg.RetryDelay)
	attempt := 0
	for {
		if ctx.Err() != nil {
			c.finish(StateStopped, nil)
			return
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err == nil {
			attempt = 0
			backoff.Reset()
			c.setState(StateStreaming)
			c.log.Info("feed connected", logger.String("url", c.StreamURL()))
			err = c.stream(ctx, conn)
		}

		if ctx.Err() != nil {
			c.finish(StateStopped, nil)
			return
		}
		var se sinkError
		if errors.As(err, &se) {
			c.log.Warn("feed sink closed, stopping", logger.Error(err))
			c.finish(StateStopped, nil)
			return
		}

		attempt++
		c.recordError("feed_connection")
		if attempt >= c.cfg.MaxRetries {
			c.log.Error("feed retries exhausted",
				logger.Int("attempts", attempt),
				logger.Error(err),
			)
			c.finish(StateFailed, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempt, err))
			return
		}

		delay := backoff.Next()
		c.setState(StateBackoff)
		c.log.Warn("feed disconnected, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordReconnect(c.cfg.Symbol)
		}
		if err := c.wait(ctx, delay); err != nil {
			c.finish(StateStopped, nil)
			return
		}
	}
}

func (c *Connector) finish(s State, err error) {
	c.mu.Lock()
	c.state = s
	c.err = err
	c.mu.Unlock()
}

func (c *Connector) dial(ctx context.Context) (*websocket.Conn, error) {
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}
	conn, _, err := c.dialer.DialContext(ctx, c.StreamURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

// stream reads frames until the connection fails or ctx ends.
func (c *Connector) stream(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	c.extendDeadline(conn)
	conn.SetPongHandler(func(string) error {
		c.extendDeadline(conn)
		return nil
	})

	quit := make(chan struct{})
	defer close(quit)
	go c.keepAlive(ctx, conn, quit)

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		c.extendDeadline(conn)

		ev, ok, err := ParseMessage(b)
		if err != nil {
			c.recordError("decode")
			c.log.Warn("dropping malformed frame", logger.Error(err))
			continue
		}
		if !ok {
			c.log.Debug("ignoring frame from unknown stream")
			continue
		}
		if err := c.sink.Put(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return sinkError{err: err}
		}
	}
}

// keepAlive pings the server and closes the socket when ctx ends so ReadMessage unblocks.
func (c *Connector) keepAlive(ctx context.Context, conn *websocket.Conn, quit <-chan struct{}) {
	var tick <-chan time.Time
	if c.cfg.PingInterval > 0 {
		t := time.NewTicker(c.cfg.PingInterval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-quit:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
			return
		case <-tick:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				c.log.Debug("ping failed", logger.Error(err))
			}
		}
	}
}

func (c *Connector) extendDeadline(conn *websocket.Conn) {
	if c.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
}

func (c *Connector) recordError(kind string) {
	if c.metrics != nil {
		c.metrics.RecordError(kind)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
