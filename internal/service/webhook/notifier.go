// Package webhook posts regime alerts as JSON to an HTTP endpoint.
package webhook

import (
	"context"
	"fmt"
	"time"

	"RegimeWatch/internal/domain/models"
	drepo "RegimeWatch/internal/domain/repository"
	xhttp "RegimeWatch/pkg/http"

	"github.com/google/uuid"
)

type Notifier struct {
	client  *xhttp.Client
	url     string
	headers map[string]string
	symbol  string
	now     func() time.Time
}

func New(client *xhttp.Client, url string, headers map[string]string, symbol string) *Notifier {
	if client == nil {
		client = xhttp.NewClient()
	}
	return &Notifier{client: client, url: url, headers: headers, symbol: symbol, now: time.Now}
}

func (n *Notifier) Name() string { return "webhook" }

// SendAlert posts a models.Alert; any non-2xx response is an error.
func (n *Notifier) SendAlert(ctx context.Context, regime string, m models.Metrics) error {
	alert := models.Alert{
		ID:      uuid.NewString(),
		Symbol:  n.symbol,
		Regime:  models.Regime(regime),
		At:      n.now().UTC(),
		Metrics: m,
	}
	if err := n.client.PostJSON(ctx, n.url, n.headers, alert); err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	return nil
}

var _ drepo.Notifier = (*Notifier)(nil)
