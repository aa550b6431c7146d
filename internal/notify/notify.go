// Package notify posts a short markdown summary of a dispatch to a WeCom
// style webhook. Notification failures are advisory and must never change
// the tool's exit code, mirroring the status poll contract.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

// Notifier sends markdown messages to a single webhook endpoint. The zero
// value is disabled.
type Notifier struct {
	WebhookURL string
	Key        string

	httpClient *http.Client
}

// New builds a notifier; webhookURL may be empty, which disables it.
func New(webhookURL, key string) *Notifier {
	return &Notifier{
		WebhookURL: webhookURL,
		Key:        key,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && strings.TrimSpace(n.WebhookURL) != ""
}

type markdownMessage struct {
	MsgType  string          `json:"msgtype"`
	Markdown markdownContent `json:"markdown"`
}

type markdownContent struct {
	Content string `json:"content"`
}

// Send posts content as a markdown message. The webhook key travels as a
// query parameter, the body as JSON.
func (n *Notifier) Send(ctx context.Context, content string) error {
	if !n.Enabled() {
		return nil
	}
	payload, err := json.Marshal(markdownMessage{
		MsgType:  "markdown",
		Markdown: markdownContent{Content: content},
	})
	if err != nil {
		return fmt.Errorf("notify: encode message: %w", err)
	}
	endpoint := n.WebhookURL
	if n.Key != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + "key=" + url.QueryEscape(n.Key)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	client := n.httpClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify: webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
