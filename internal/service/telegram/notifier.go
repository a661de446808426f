// Package telegram delivers regime alerts to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"RegimeWatch/internal/domain/models"
	drepo "RegimeWatch/internal/domain/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends one MarkdownV2 message per alert. Retries are the dispatcher's job.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	symbol string
}

// New connects to the Bot API (a getMe round-trip) and returns a notifier for chatID.
func New(botToken, chatID, symbol string, timeout time.Duration) (*Notifier, error) {
	return NewWithEndpoint(botToken, chatID, symbol, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
}

// NewWithEndpoint is New against a custom API endpoint format ("<base>/bot%s/%s").
func NewWithEndpoint(botToken, chatID, symbol, endpoint string, client *http.Client) (*Notifier, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: id, symbol: symbol}, nil
}

func (n *Notifier) Name() string { return "telegram" }

func (n *Notifier) SendAlert(ctx context.Context, regime string, m models.Metrics) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatAlert(n.symbol, regime, m))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

var regimeEmoji = map[string]string{
	string(models.RegimeFlat):       "😴",
	string(models.RegimeTrend):      "📈",
	string(models.RegimeTurbulence): "🌪",
}

// metric display order
var metricOrder = []string{"D", "OFI", "S", "CI", "sigma", "T_L", "phi", "kappa", "mu_dot"}

// FormatAlert renders the alert as MarkdownV2.
func FormatAlert(symbol, regime string, m models.Metrics) string {
	var b strings.Builder
	emoji := regimeEmoji[regime]
	if emoji == "" {
		emoji = "🔔"
	}
	fmt.Fprintf(&b, "%s *%s regime: %s*\n\n", emoji, escapeMarkdownV2(symbol), escapeMarkdownV2(regime))

	fields := m.Fields()
	for _, name := range metricOrder {
		fmt.Fprintf(&b, "`%-6s` %s\n", name, escapeMarkdownV2(strconv.FormatFloat(fields[name], 'g', 6, 64)))
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

var _ drepo.Notifier = (*Notifier)(nil)
