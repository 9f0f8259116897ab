// Package notify proxies noteworthy Brain events (Critical-risk confirmations
// opened, deep inspection enabled) to an external webhook,
// adapted from agents/manager/cmd/manager's notifier — a minimal JSON-over-
// HTTP POST, not a bot SDK (the teacher itself never imports
// go-telegram-bot-api directly; it proxies).
package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Notifier posts a JSON payload to a configured webhook URL. A nil *Notifier
// (no URL configured) makes every method a no-op.
type Notifier struct {
	url    string
	client *http.Client
	logger *log.Logger
}

// New returns nil if url is empty, so callers can always hold a *Notifier
// and call Send unconditionally.
func New(url string, logger *log.Logger) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

// Send fires payload at the webhook, logging (never returning) any failure —
// notification delivery must never block or fail a Brain operation.
func (n *Notifier) Send(payload map[string]any) {
	if n == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		n.logf("notify marshal error: %v", err)
		return
	}
	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(b))
	if err != nil {
		n.logf("notify build error: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		n.logf("notify send error: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logf("notify non-2xx: %s", resp.Status)
	}
}

func (n *Notifier) logf(format string, args ...any) {
	if n.logger != nil {
		n.logger.Printf(format, args...)
	}
}
