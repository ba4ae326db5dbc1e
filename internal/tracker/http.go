package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
	"github.com/oncallzero/triage-cli/internal/config"
)

// fatalFetchError marks a failure that must not be reported as transient,
// e.g. an undecodable response or an unexpected 4xx.
type fatalFetchError struct {
	err error
}

func (e *fatalFetchError) Error() string { return e.err.Error() }
func (e *fatalFetchError) Unwrap() error { return e.err }

// Client fetches error records from a remote tracking service over HTTP.
// Transient failures (network errors, 5xx, 429) are retried with
// exponential backoff; when retries are exhausted the caller sees a
// *schemas.TransientFetchError.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient initializes the HTTP tracking client.
func NewClient(cfg config.TrackerConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tracker base URL is required")
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("tracker.http"),
	}, nil
}

// FetchError implements schemas.Tracker.
func (c *Client) FetchError(ctx context.Context, errorID string) (*schemas.ErrorRecord, error) {
	url := fmt.Sprintf("%s/errors/%s", c.baseURL, errorID)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	b.MaxInterval = 5 * time.Second

	var record schemas.ErrorRecord

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(&fatalFetchError{fmt.Errorf("failed to create HTTP request: %w", err)})
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Network error fetching error record, retrying...",
				zap.String("error_id", errorID), zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			// Fall through to decode below.
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(&schemas.NotFoundError{ErrorID: errorID})
		case resp.StatusCode == http.StatusTooManyRequests,
			resp.StatusCode >= http.StatusInternalServerError:
			c.logger.Warn("Tracking service returned retryable status",
				zap.Int("status", resp.StatusCode), zap.String("error_id", errorID))
			return fmt.Errorf("tracking service status %d", resp.StatusCode)
		default:
			return backoff.Permanent(&fatalFetchError{fmt.Errorf("tracking service status %d: %s", resp.StatusCode, string(body))})
		}

		if err := json.Unmarshal(body, &record); err != nil {
			return backoff.Permanent(&fatalFetchError{fmt.Errorf("failed to decode error record: %w", err)})
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		var nf *schemas.NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		var fatal *fatalFetchError
		if errors.As(err, &fatal) {
			return nil, fatal.err
		}
		// Retries exhausted on a transient condition.
		return nil, &schemas.TransientFetchError{ErrorID: errorID, Err: err}
	}

	if record.ErrorID == "" {
		record.ErrorID = errorID
	}
	return &record, nil
}
