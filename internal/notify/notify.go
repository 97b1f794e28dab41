// Package notify delivers threshold alerts to webhook targets: Slack,
// Teams, or generic HTTP receivers. Delivery failures are logged and never
// affect the tracker.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vitalscope/vitalscope/internal/config"
	"github.com/vitalscope/vitalscope/vitals"
)

const deliverTimeout = 10 * time.Second

// Notifier fans alerts out to the configured webhook targets.
// A Notifier with no targets is valid; Deliver becomes a no-op.
type Notifier struct {
	targets []config.WebhookConfig
	client  *http.Client
	log     *slog.Logger
}

// New creates a Notifier from the webhook configuration.
func New(targets []config.WebhookConfig, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		targets: targets,
		client:  &http.Client{Timeout: deliverTimeout},
		log:     log,
	}
}

// Deliver sends each alert to every configured target. Errors are logged
// but do not affect the caller.
func (n *Notifier) Deliver(alerts []vitals.Alert) {
	if len(alerts) == 0 || len(n.targets) == 0 {
		return
	}

	for _, wh := range n.targets {
		url := wh.URL()
		if url == "" {
			continue
		}

		for _, a := range alerts {
			var err error
			switch wh.Type {
			case "slack":
				err = n.sendSlack(url, a)
			case "teams":
				err = n.sendTeams(url, a)
			case "http":
				err = n.sendHTTP(url, a)
			default:
				n.log.Warn("notify: unknown webhook type, skipping", "type", wh.Type)
				continue
			}

			if err != nil {
				n.log.Error("notify: webhook delivery failed",
					"type", wh.Type, "metric", a.Metric, "err", err)
			} else {
				n.log.Debug("notify: webhook delivered",
					"type", wh.Type, "metric", a.Metric)
			}
		}
	}
}

func (n *Notifier) sendSlack(url string, a vitals.Alert) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*[vitalscope]* %s", a.Message),
	})
	return n.post(url, body)
}

func (n *Notifier) sendTeams(url string, a vitals.Alert) error {
	payload := map[string]any{
		"@type":    "MessageCard",
		"@context": "http://schema.org/extensions",
		"summary":  string(a.Metric),
		"title":    fmt.Sprintf("vitalscope alert: %s", a.Metric),
		"text":     a.Message,
	}
	body, _ := json.Marshal(payload)
	return n.post(url, body)
}

func (n *Notifier) sendHTTP(url string, a vitals.Alert) error {
	body, _ := json.Marshal(map[string]any{"alert": a})
	return n.post(url, body)
}

func (n *Notifier) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
