package binance

import (
	"testing"
	"time"

	"RegimeWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantOK  bool
		wantErr bool
		check   func(t *testing.T, ev models.Event)
	}{
		{
			name:   "depth with speed suffix",
			frame:  `{"stream":"btcusdt@depth@100ms","data":{"E":1700000000000,"b":[["100.0","1.5"],["99.9","0.5"]],"a":[["100.1","2"]]}}`,
			wantOK: true,
			check: func(t *testing.T, ev models.Event) {
				require.Equal(t, models.KindDepth, ev.Kind)
				assert.InDelta(t, 4.0, ev.Depth.Value, 1e-12)
				assert.Equal(t, time.UnixMilli(1700000000000), ev.Depth.Timestamp)
			},
		},
		{
			name:   "depth without suffix and empty book",
			frame:  `{"stream":"btcusdt@depth","data":{"E":1,"b":[],"a":[]}}`,
			wantOK: true,
			check: func(t *testing.T, ev models.Event) {
				require.Equal(t, models.KindDepth, ev.Kind)
				assert.Equal(t, 0.0, ev.Depth.Value)
			},
		},
		{
			name:   "trade with string price",
			frame:  `{"stream":"btcusdt@trade","data":{"E":5,"T":1700000000123,"p":"27000.5","q":"0.01"}}`,
			wantOK: true,
			check: func(t *testing.T, ev models.Event) {
				require.Equal(t, models.KindTrade, ev.Kind)
				assert.Equal(t, 27000.5, ev.Trade.Price)
				assert.Equal(t, 0.01, ev.Trade.Quantity)
				assert.Equal(t, time.UnixMilli(1700000000123), ev.Trade.Timestamp)
			},
		},
		{
			name:   "trade with numeric price falls back to event time",
			frame:  `{"stream":"btcusdt@trade","data":{"E":1700000000999,"p":101.25}}`,
			wantOK: true,
			check: func(t *testing.T, ev models.Event) {
				assert.Equal(t, 101.25, ev.Trade.Price)
				assert.Equal(t, 0.0, ev.Trade.Quantity)
				assert.Equal(t, time.UnixMilli(1700000000999), ev.Trade.Timestamp)
			},
		},
		{name: "unknown stream", frame: `{"stream":"btcusdt@kline_1m","data":{"k":{}}}`},
		{name: "not json", frame: `hello`, wantErr: true},
		{name: "trade without price", frame: `{"stream":"btcusdt@trade","data":{"q":"1"}}`, wantErr: true},
		{name: "trade with bad price", frame: `{"stream":"btcusdt@trade","data":{"p":"abc"}}`, wantErr: true},
		{name: "short depth level", frame: `{"stream":"btcusdt@depth@100ms","data":{"b":[["1"]]}}`, wantErr: true},
		{name: "missing data", frame: `{"stream":"btcusdt@trade"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok, err := ParseMessage([]byte(tt.frame))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestStripSpeed(t *testing.T) {
	cases := map[string]string{
		"btcusdt@depth@100ms":  "btcusdt@depth",
		"btcusdt@depth@1000ms": "btcusdt@depth",
		"btcusdt@depth":        "btcusdt@depth",
		"btcusdt@trade":        "btcusdt@trade",
		"btcusdt@depth@ms":     "btcusdt@depth@ms",
		"btcusdt@depth@fastms": "btcusdt@depth@fastms",
		"plain":                "plain",
	}
	for in, want := range cases {
		assert.Equal(t, want, stripSpeed(in), in)
	}
}

func TestBackoffDoublesAndResets(t *testing.T) {
	b := NewBackoff(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, b.Next())
	assert.Equal(t, 200*time.Millisecond, b.Next())
	assert.Equal(t, 400*time.Millisecond, b.Next())
	b.Reset()
	assert.Equal(t, 100*time.Millisecond, b.Next())
}
