// Package notify delivers plain-text messages to a Teams incoming webhook.
// The generation pipeline owns message formatting; this package only proves
// the channel is wired up.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwhitford/backlogctl/internal/errors"
)

const endpointName = "Teams webhook"

// Webhook posts messages to a single incoming webhook URL.
type Webhook struct {
	url   string
	httpc *http.Client
}

// NewWebhook creates a webhook sender for the given URL.
func NewWebhook(url string, timeout time.Duration) (*Webhook, error) {
	if url == "" {
		return nil, errors.ErrConfigMissing("webhook.url")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Webhook{
		url:   url,
		httpc: &http.Client{Timeout: timeout},
	}, nil
}

// Send posts a plain-text message to the webhook.
func (w *Webhook) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.ErrConfigInvalid("message", "webhook message must not be empty")
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpc.Do(req)
	if err != nil {
		return errors.ErrEndpointUnavailable(endpointName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if httpErr := errors.FromHTTPStatus(endpointName, resp.StatusCode, strings.TrimSpace(string(body))); httpErr != nil {
		return httpErr
	}
	return nil
}
