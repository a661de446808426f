package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"RegimeWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `mu\_dot \= 1\.5e\-05 \(ok\)\!`, escapeMarkdownV2("mu_dot = 1.5e-05 (ok)!"))
	assert.Equal(t, "plain", escapeMarkdownV2("plain"))
}

func TestFormatAlert(t *testing.T) {
	text := FormatAlert("BTCUSDT", "TURBULENCE", models.Metrics{D: 3, Sigma: 0.07, MuDot: -1.5})
	assert.True(t, strings.HasPrefix(text, "🌪 *BTCUSDT regime: TURBULENCE*"))
	assert.Contains(t, text, "`sigma ` 0\\.07\n")
	assert.Contains(t, text, "`mu_dot` \\-1\\.5\n")
	assert.Less(t, strings.Index(text, "`D     `"), strings.Index(text, "`mu_dot`"))
}

type botServer struct {
	mu   sync.Mutex
	form map[string]string
}

func (s *botServer) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"regimewatch","username":"regimewatch_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		s.mu.Lock()
		s.form = map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		}
		s.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func TestSendAlert(t *testing.T) {
	bs := &botServer{}
	srv := httptest.NewServer(http.HandlerFunc(bs.handler))
	defer srv.Close()

	n, err := NewWithEndpoint("TOKEN", "42", "BTCUSDT", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "telegram", n.Name())

	require.NoError(t, n.SendAlert(context.Background(), "TREND", models.Metrics{MuDot: 10}))

	bs.mu.Lock()
	defer bs.mu.Unlock()
	assert.Equal(t, "42", bs.form["chat_id"])
	assert.Equal(t, "MarkdownV2", bs.form["parse_mode"])
	assert.Contains(t, bs.form["text"], "regime: TREND")
}

func TestSendAlertHonoursCancelledContext(t *testing.T) {
	bs := &botServer{}
	srv := httptest.NewServer(http.HandlerFunc(bs.handler))
	defer srv.Close()

	n, err := NewWithEndpoint("TOKEN", "42", "BTCUSDT", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.SendAlert(ctx, "FLAT", models.Metrics{}), context.Canceled)
}

func TestInvalidChatID(t *testing.T) {
	_, err := NewWithEndpoint("TOKEN", "not-a-number", "BTCUSDT", "http://127.0.0.1:1/bot%s/%s", http.DefaultClient)
	assert.Error(t, err)
}
