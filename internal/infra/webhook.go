package infra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookNotifier posts JSON events to an operator webhook (chat bridge,
// incident tool). Calls go through a circuit breaker so a dead endpoint fails
// fast and the caller can retry later.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	cb     *CircuitBreaker
}

func NewWebhookNotifier(url string, cb *CircuitBreaker) *WebhookNotifier {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "boigordo-alerts/1").
		SetTimeout(10 * time.Second)
	return &WebhookNotifier{client: client, url: url, cb: cb}
}

// Enabled reports whether a webhook URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Notify posts payload as JSON. Any non-2xx response is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, payload interface{}) error {
	if !n.Enabled() {
		return fmt.Errorf("webhook: no URL configured")
	}
	call := func() error {
		resp, err := n.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post(n.url)
		if err != nil {
			return fmt.Errorf("webhook: post: %w", err)
		}
		if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
			return fmt.Errorf("webhook: endpoint returned %d", resp.StatusCode())
		}
		return nil
	}
	if n.cb == nil {
		return call()
	}
	return n.cb.Execute(call)
}
