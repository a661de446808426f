package binance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"RegimeWatch/internal/domain/models"
	"RegimeWatch/pkg/util"
)

// ErrMalformedMessage marks a frame that could not be decoded into an event.
var ErrMalformedMessage = errors.New("feed: malformed message")

// flexFloat accepts both "1.25" and 1.25.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := util.ParseFloat(s)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type envelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type depthUpdate struct {
	EventTime int64         `json:"E"`
	Bids      [][]flexFloat `json:"b"`
	Asks      [][]flexFloat `json:"a"`
}

type tradeUpdate struct {
	EventTime int64      `json:"E"`
	TradeTime int64      `json:"T"`
	Price     *flexFloat `json:"p"`
	Quantity  flexFloat  `json:"q"`
}

// streamKind maps a combined-stream name to an event kind.
// "btcusdt@depth@100ms" and "btcusdt@depth" are both depth.
func streamKind(stream string) (models.EventKind, bool) {
	s := stripSpeed(stream)
	switch {
	case strings.HasSuffix(s, "@depth"):
		return models.KindDepth, true
	case strings.HasSuffix(s, "@trade"):
		return models.KindTrade, true
	}
	return "", false
}

func stripSpeed(stream string) string {
	i := strings.LastIndexByte(stream, '@')
	if i < 0 {
		return stream
	}
	tail := stream[i+1:]
	if !strings.HasSuffix(tail, "ms") {
		return stream
	}
	digits := strings.TrimSuffix(tail, "ms")
	if digits == "" {
		return stream
	}
	if _, err := strconv.Atoi(digits); err != nil {
		return stream
	}
	return stream[:i]
}

// ParseMessage decodes one combined-stream frame.
// ok is false for streams that are neither depth nor trade.
func ParseMessage(b []byte) (ev models.Event, ok bool, err error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return models.Event{}, false, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	kind, ok := streamKind(env.Stream)
	if !ok {
		return models.Event{}, false, nil
	}
	if len(env.Data) == 0 {
		return models.Event{}, false, fmt.Errorf("%w: empty data for %s", ErrMalformedMessage, env.Stream)
	}

	switch kind {
	case models.KindDepth:
		ev, err = parseDepth(env.Data)
	case models.KindTrade:
		ev, err = parseTrade(env.Data)
	}
	if err != nil {
		return models.Event{}, false, err
	}
	return ev, true, nil
}

func parseDepth(raw json.RawMessage) (models.Event, error) {
	var d depthUpdate
	if err := json.Unmarshal(raw, &d); err != nil {
		return models.Event{}, fmt.Errorf("%w: depth: %v", ErrMalformedMessage, err)
	}
	total := 0.0
	for _, side := range [][][]flexFloat{d.Bids, d.Asks} {
		for _, lvl := range side {
			if len(lvl) < 2 {
				return models.Event{}, fmt.Errorf("%w: depth level %v", ErrMalformedMessage, lvl)
			}
			total += float64(lvl[1])
		}
	}
	return models.NewDepthEvent(util.FromUnixMilli(d.EventTime), total), nil
}

func parseTrade(raw json.RawMessage) (models.Event, error) {
	var t tradeUpdate
	if err := json.Unmarshal(raw, &t); err != nil {
		return models.Event{}, fmt.Errorf("%w: trade: %v", ErrMalformedMessage, err)
	}
	if t.Price == nil {
		return models.Event{}, fmt.Errorf("%w: trade without price", ErrMalformedMessage)
	}
	ts := t.TradeTime
	if ts <= 0 {
		ts = t.EventTime
	}
	return models.NewTradeEvent(util.FromUnixMilli(ts), float64(*t.Price), float64(t.Quantity)), nil
}
