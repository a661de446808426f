package api

import (
	"errors"
	"net/http"

	"RegimeWatch/internal/domain/models"
	domrepo "RegimeWatch/internal/domain/repository"
	"RegimeWatch/internal/repository"
	xhttp "RegimeWatch/pkg/http"
	xlogger "RegimeWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SnapshotSource is the in-process producer of snapshots.
type SnapshotSource interface {
	Snapshot() (models.Snapshot, bool)
	History(limit int) []models.Snapshot
	Symbol() string
}

// SeriesSource exposes the raw buffered streams.
type SeriesSource interface {
	DepthSnapshot() models.DepthSnapshot
	TradeSnapshot() models.TradeSnapshot
	Len() (depth, trades int)
	Capacity() (depth, trades int)
}

// FeedStatus reports the connector state name, e.g. "streaming".
type FeedStatus interface {
	StateName() string
}

// SnapshotEchoHandler serves the dashboard read API.
type SnapshotEchoHandler struct {
	logger *xlogger.Logger
	mon    SnapshotSource
	series SeriesSource
	feed   FeedStatus
	store  domrepo.SnapshotStore
}

// NewSnapshotEchoHandler builds the handler; store is consulted only before the first tick and may be nil.
func NewSnapshotEchoHandler(logger *xlogger.Logger, mon SnapshotSource, series SeriesSource, feed FeedStatus, store domrepo.SnapshotStore) *SnapshotEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SnapshotEchoHandler{logger: logger, mon: mon, series: series, feed: feed, store: store}
}

func (h *SnapshotEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/snapshot", h.Snapshot)
	g.GET("/metrics", h.Metrics)
	g.GET("/regime", h.Regime)
	g.GET("/depth", h.Depth)
	g.GET("/trades", h.Trades)
	g.GET("/history", h.History)
	e.GET("/healthz", h.Health)
}

func (h *SnapshotEchoHandler) latest(c echo.Context) (models.Snapshot, error) {
	if snap, ok := h.mon.Snapshot(); ok {
		return snap, nil
	}
	if h.store != nil {
		snap, err := h.store.Latest(c.Request().Context())
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			h.logger.Warn("snapshot store read failed", xlogger.Error(err))
		}
	}
	return models.Snapshot{}, xhttp.NoSnapshotError(h.mon.Symbol())
}

func (h *SnapshotEchoHandler) Snapshot(c echo.Context) error {
	snap, err := h.latest(c)
	if err != nil {
		return xhttp.Fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.OK(c, snap)
}

func (h *SnapshotEchoHandler) Metrics(c echo.Context) error {
	snap, err := h.latest(c)
	if err != nil {
		return xhttp.Fail(c, err)
	}
	return xhttp.OK(c, map[string]interface{}{
		"symbol":      snap.Symbol,
		"computed_at": snap.ComputedAt,
		"metrics":     snap.Metrics,
	})
}

func (h *SnapshotEchoHandler) Regime(c echo.Context) error {
	snap, err := h.latest(c)
	if err != nil {
		return xhttp.Fail(c, err)
	}
	return xhttp.OK(c, map[string]interface{}{
		"symbol":      snap.Symbol,
		"regime":      snap.Regime,
		"computed_at": snap.ComputedAt,
	})
}

func (h *SnapshotEchoHandler) Depth(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}
	since, aerr := xhttp.ParseSince(req.Since)
	if aerr != nil {
		return xhttp.Fail(c, aerr)
	}

	events := h.series.DepthSnapshot().Events
	rows, total := tail(events, req.Limit, func(e models.DepthEvent) bool {
		return !e.Timestamp.Before(since)
	})
	return xhttp.PageOf(c, rows, int64(total), req.Limit)
}

func (h *SnapshotEchoHandler) Trades(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}
	since, aerr := xhttp.ParseSince(req.Since)
	if aerr != nil {
		return xhttp.Fail(c, aerr)
	}

	events := h.series.TradeSnapshot().Events
	rows, total := tail(events, req.Limit, func(e models.TradeEvent) bool {
		return !e.Timestamp.Before(since)
	})
	return xhttp.PageOf(c, rows, int64(total), req.Limit)
}

func (h *SnapshotEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}
	all := h.mon.History(0)
	rows := all
	if len(rows) > req.Limit {
		rows = rows[len(rows)-req.Limit:]
	}
	return xhttp.PageOf(c, rows, int64(len(all)), req.Limit)
}

func (h *SnapshotEchoHandler) Health(c echo.Context) error {
	dl, tl := h.series.Len()
	dc, tc := h.series.Capacity()
	state := h.feed.StateName()

	body := models.Health{
		Status:   "ok",
		Feed:     state,
		Symbol:   h.mon.Symbol(),
		DepthLen: dl,
		TradeLen: tl,
		DepthCap: dc,
		TradeCap: tc,
	}
	code := http.StatusOK
	if state != "streaming" {
		body.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return xhttp.Respond(c, code, body)
}

// tail keeps events passing keep and returns the last limit of them plus the match count.
func tail[T any](events []T, limit int, keep func(T) bool) ([]T, int) {
	out := make([]T, 0, len(events))
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	total := len(out)
	if limit > 0 && total > limit {
		out = out[total-limit:]
	}
	return out, total
}
