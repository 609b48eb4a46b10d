package resilience

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Resilient client errors.
var (
	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming.
	Name string

	// Timeout is the per-attempt HTTP timeout. Default: 10 seconds.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts after the first
	// try. Default: 3.
	MaxRetries uint64

	// InitialInterval is the first retry backoff interval. Default: 250ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff interval. Default: 5 seconds.
	MaxInterval time.Duration

	// Breaker configures the circuit breaker. Nil uses
	// DefaultBreakerConfig.
	Breaker *BreakerConfig
}

// DefaultClientConfig returns the defaults used for departure-board fetches.
// The public transit API rate-limits aggressively, so the initial backoff is
// longer than for a private upstream.
func DefaultClientConfig(name string) ClientConfig {
	breaker := DefaultBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Breaker:         &breaker,
	}
}

// Client is an HTTP client with circuit breaker and exponential-backoff
// retry for transient upstream failures.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 250 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.Breaker == nil {
		breaker := DefaultBreakerConfig(cfg.Name)
		cfg.Breaker = &breaker
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: NewBreaker[*http.Response](*cfg.Breaker), //nolint:bodyclose // type param, not a response
		config:  cfg,
	}
}

// Do executes the request, retrying transient failures (network errors,
// 5xx, and 429 throttling) with exponential backoff. If the circuit breaker
// is open the call fails immediately with ErrCircuitOpen.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0 // retries bounded by MaxRetries, not wall clock

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response

	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}

			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, &UpstreamError{StatusCode: r.StatusCode}
			}

			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}

			if resp != nil {
				lastResp = resp
			}
			return err
		}

		lastResp = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		// A 5xx/429 that exhausted retries still has a usable response.
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	return lastResp, nil
}

// UpstreamError is an HTTP status treated as a transient upstream failure.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return "upstream error: " + http.StatusText(e.StatusCode)
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// BreakerCounts returns the current circuit breaker counts.
func (c *Client) BreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}
