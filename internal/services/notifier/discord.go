package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const discordAlertColor = 0xE67E22

// Discord posts embeds to a webhook.
type Discord struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

func (d *Discord) Send(ctx context.Context, message string) error {
	if d.webhookURL == "" {
		return errors.Wrap(ErrNotConfigured, "discord: set DISCORD_WEBHOOK_URL")
	}

	payload := map[string]any{
		"embeds": []map[string]any{
			{
				"title":       "Price alert",
				"description": message,
				"color":       discordAlertColor,
				"footer":      map[string]string{"text": "papertrade"},
				"timestamp":   d.now().UTC().Format(time.RFC3339),
			},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "discord: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "discord: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "discord: send")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.Errorf("discord returned status: %d", resp.StatusCode)
	}
	return nil
}
