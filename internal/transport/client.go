// Package transport is the JSON-over-HTTP client shared by the provider clients.
// It paces every request through the shared rate limiter, retries transient
// failures with exponential backoff and guards the provider with a circuit breaker.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"banjocap/internal/domain"
	"banjocap/internal/observability"
	"banjocap/internal/ratelimit"
)

// Default configuration values.
const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 500 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultBackoffMult  = 2.0
	DefaultTripFailures = 5
	DefaultOpenTimeout  = 30 * time.Second
)

// Client performs GET requests against one provider and decodes JSON responses.
type Client struct {
	provider    domain.Source
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64

	limiter    *ratelimit.Limiter
	limiterKey string

	tripFailures uint32
	openTimeout  time.Duration
	breaker      *gobreaker.CircuitBreaker

	logger zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithRateLimiter gates every request on limiter under key.
func WithRateLimiter(limiter *ratelimit.Limiter, key string) Option {
	return func(c *Client) {
		c.limiter = limiter
		c.limiterKey = key
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how long it stays open.
func WithBreaker(consecutiveFailures uint32, openTimeout time.Duration) Option {
	return func(c *Client) {
		c.tripFailures = consecutiveFailures
		c.openTimeout = openTimeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for provider rooted at baseURL.
func New(provider domain.Source, baseURL string, opts ...Option) *Client {
	c := &Client{
		provider:     provider,
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: DefaultTimeout},
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		maxDelay:     DefaultMaxDelay,
		backoffMult:  DefaultBackoffMult,
		tripFailures: DefaultTripFailures,
		openTimeout:  DefaultOpenTimeout,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("provider", provider.String()).Logger()
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    provider.String(),
		Timeout: c.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.tripFailures
		},
		IsSuccessful: func(err error) bool {
			// Callers giving up is not a provider fault.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			observability.SetBreakerState(name, int(to))
		},
	})
	return c
}

// Provider returns the provider name.
func (c *Client) Provider() domain.Source {
	return c.provider
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// statusError is a non-2xx HTTP response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

// GetJSON requests path with query and decodes the body into out.
// op names the provider operation in errors and metrics.
// Every failure is a *domain.ProviderError.
func (c *Client) GetJSON(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.get(ctx, path, query, out)
	})
	observability.RecordProviderCall(c.provider.String(), op, time.Since(start).Seconds(), err)

	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.NewProviderError(c.provider, domain.KindProviderError, op, "circuit open, provider temporarily unavailable", err)
	}
	c.logger.Debug().Err(err).Str("op", op).Msg("provider request failed")
	return domain.NewProviderError(c.provider, domain.KindProviderError, op, "request failed", err)
}

// get performs the request with retries and exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
			c.logger.Debug().Int("attempt", attempt).Err(lastErr).Msg("retrying request")
		}

		if c.limiter != nil {
			if _, err := c.limiter.Acquire(ctx, c.limiterKey); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = &statusError{code: resp.StatusCode, body: truncate(string(body), 200)}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			// Client errors are not retried
			return &statusError{code: resp.StatusCode, body: truncate(string(body), 200)}
		}

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
