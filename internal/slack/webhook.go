package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrDisabled      = errors.New("slack: notifier disabled")
	ErrRequestFailed = errors.New("slack: webhook request failed")
)

// Notifier posts plain-text messages to a Slack incoming webhook. An empty
// webhook URL disables it.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

type Config struct {
	WebhookURL string
	Timeout    time.Duration
	Client     *http.Client
}

func NewNotifier(cfg Config) *Notifier {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Notifier{
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		client:     client,
	}
}

func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// Notify posts one message. Callers treat failures as best-effort: a broken
// webhook must never fail a deployment.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if !n.Enabled() {
		return ErrDisabled
	}
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}
	return nil
}
