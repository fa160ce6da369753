// Package customerclient resolves customer classifications from the
// customer service over HTTP, guarded by a circuit breaker and bounded
// retries.
package customerclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"account-service/internal/config"
	"account-service/internal/domain/customer"

	"github.com/sony/gobreaker"
)

const initialBackoff = 100 * time.Millisecond

type customerPayload struct {
	ID             string `json:"id"`
	Classification string `json:"classification"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	maxRetries int
	logger     *slog.Logger
}

var _ customer.Classifier = (*Client)(nil)

func NewClient(cfg config.CustomerConfig, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "customer-service",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.ServiceURL,
		cb:         cb,
		maxRetries: cfg.MaxRetries,
		logger:     logger.With(slog.String("component", "CustomerClient")),
	}
}

// GetClassification fetches the customer record and returns its
// classification. A missing customer maps to customer.ErrNotFound and is
// not retried; transport and server failures are retried with backoff
// inside the circuit breaker.
func (c *Client) GetClassification(ctx context.Context, customerID string) (customer.Classification, error) {
	var payload customerPayload

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.retryWithBackoff(ctx, func() error {
			return c.fetchCustomer(ctx, customerID, &payload)
		})
	})
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			c.logger.WarnContext(ctx, "Customer not found in customer service", slog.String("customerID", customerID))
			return "", err
		}
		c.logger.ErrorContext(ctx, "Failed to fetch customer classification",
			slog.String("customerID", customerID), slog.Any("error", err))
		return "", fmt.Errorf("%w: %w", customer.ErrClassifierUnavailable, err)
	}

	classification := customer.Classification(payload.Classification)
	c.logger.DebugContext(ctx, "Resolved customer classification",
		slog.String("customerID", customerID), slog.String("classification", string(classification)))
	return classification, nil
}

func (c *Client) fetchCustomer(ctx context.Context, customerID string, payload *customerPayload) error {
	url := fmt.Sprintf("%s/customers/%s", c.baseURL, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: customer %s", customer.ErrNotFound, customerID)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("customer service returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(payload)
}

// retryWithBackoff retries fn with exponential backoff and jitter. It
// respects context cancellation and does not retry a definitive not
// found answer.
func (c *Client) retryWithBackoff(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil || errors.Is(lastErr, customer.ErrNotFound) {
			return lastErr
		}

		if attempt < c.maxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * initialBackoff
			jitter := time.Duration(rand.Int63n(int64(backoff / 2)))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}
	}
	return lastErr
}
