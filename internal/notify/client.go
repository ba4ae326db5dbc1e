// Package notify implements the notification side-channel: an HTTP client
// used by the pipeline after a report is written, and the small API server
// that receives, logs, and acknowledges those notifications. Delivery is
// fire-and-forget; nothing in the pipeline depends on the acknowledgment.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
	"github.com/oncallzero/triage-cli/internal/config"
)

// Client posts notifications to the configured endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a notification client.
func NewClient(cfg config.NotifyConfig, logger *zap.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("notify.client"),
	}
}

// Notify implements schemas.Notifier.
func (c *Client) Notify(ctx context.Context, n *schemas.Notification) (*schemas.NotificationAck, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read notification response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("notification endpoint status %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope ackEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode acknowledgment: %w", err)
	}

	c.logger.Info("Notification delivered",
		zap.String("error_id", n.ErrorID),
		zap.String("notification_id", envelope.Ack.NotificationID))
	return &envelope.Ack, nil
}
