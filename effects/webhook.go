package effects

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/supportbot/action"
)

// Webhook forwards invocations to an HTTP endpoint as a JSON POST.
type Webhook struct {
	url    string
	client *http.Client
}

// WebhookConfig configures a Webhook. Headers are added to every request
// that does not already carry them.
type WebhookConfig struct {
	URL     string
	Headers map[string]string
	// Client overrides the HTTP client; Headers still apply.
	Client *http.Client
}

type webhookPayload struct {
	InvocationID string         `json:"invocationId"`
	Action       string         `json:"action"`
	EffectKind   string         `json:"effectKind"`
	Arguments    map[string]any `json:"arguments"`
	Timestamp    time.Time      `json:"timestamp"`
}

// NewWebhook validates cfg and returns a Webhook.
func NewWebhook(cfg WebhookConfig) (*Webhook, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("webhook URL is required")
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported webhook URL scheme %q", parsed.Scheme)
	}
	return &Webhook{url: cfg.URL, client: httpClientWithHeaders(cfg.Client, cfg.Headers)}, nil
}

// Post handles an invocation by POSTing it. A JSON response body becomes
// the payload; any other body is reported by status code only.
func (w *Webhook) Post(ctx context.Context, inv action.Invocation) (any, error) {
	body, err := json.Marshal(webhookPayload{
		InvocationID: inv.ID,
		Action:       inv.Action.Name,
		EffectKind:   string(inv.Action.EffectKind),
		Arguments:    inv.Arguments,
		Timestamp:    inv.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrWebhookStatus, resp.StatusCode)
	}

	var payload any
	if len(bytes.TrimSpace(data)) > 0 && json.Unmarshal(data, &payload) == nil {
		return payload, nil
	}
	return map[string]any{"status": resp.StatusCode}, nil
}

func httpClientWithHeaders(base *http.Client, headers map[string]string) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	clone := make(map[string]string, len(headers))
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		clone[k] = v
	}
	if len(clone) == 0 {
		return base
	}
	c := *base
	c.Transport = &headerRoundTripper{base: base.Transport, headers: clone}
	return &c
}

type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	base := h.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	for key, value := range h.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}
	return base.RoundTrip(req)
}
