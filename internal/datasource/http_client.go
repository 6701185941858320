package datasource

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout             time.Duration
	MaxRetries          int
	RetryWaitMin        time.Duration
	RetryWaitMax        time.Duration
	RateLimit           float64       // requests per second
	CircuitBreakerMax   int           // max consecutive failures before circuit break
	CircuitResetTimeout time.Duration // how long the breaker stays open before a trial request
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             30 * time.Second,
		MaxRetries:          5,
		RetryWaitMin:        100 * time.Millisecond,
		RetryWaitMax:        10 * time.Second,
		RateLimit:           10.0,
		CircuitBreakerMax:   5,
		CircuitResetTimeout: time.Minute,
	}
}

// TripHandler is called when the circuit breaker opens. It runs under the client lock
// and must not call back into the client.
type TripHandler func(failures int, openUntil time.Time)

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and circuit breaker
type RateLimitedHTTPClient struct {
	client              *retryablehttp.Client
	limiter             *rate.Limiter
	circuitBreakerMax   int
	circuitResetTimeout time.Duration
	logger              *log.Logger
	onTrip              TripHandler
	now                 func() time.Time

	mu                sync.Mutex
	consecutiveErrors int
	openUntil         time.Time
	lastError         error
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *log.Logger) *RateLimitedHTTPClient {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.CircuitBreakerMax <= 0 {
		cfg.CircuitBreakerMax = 1
	}
	if cfg.CircuitResetTimeout <= 0 {
		cfg.CircuitResetTimeout = time.Minute
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = logger

	return &RateLimitedHTTPClient{
		client:              retryClient,
		limiter:             rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		circuitBreakerMax:   cfg.CircuitBreakerMax,
		circuitResetTimeout: cfg.CircuitResetTimeout,
		logger:              logger,
		now:                 time.Now,
	}
}

// OnTrip registers a callback fired each time the circuit breaker opens
func (c *RateLimitedHTTPClient) OnTrip(h TripHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrip = h
}

// IsOpen reports whether the circuit breaker is currently rejecting requests
func (c *RateLimitedHTTPClient) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpenLocked()
}

func (c *RateLimitedHTTPClient) isOpenLocked() bool {
	return !c.openUntil.IsZero() && c.now().Before(c.openUntil)
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	if c.isOpenLocked() {
		lastErr := c.lastError
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, lastErr)
	}
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to wrap request: %w", err)
	}

	resp, err := c.client.Do(retryReq)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case err != nil:
		c.recordFailureLocked(err)
		return nil, err
	case resp.StatusCode >= 500:
		c.recordFailureLocked(fmt.Errorf("upstream returned status %d", resp.StatusCode))
	default:
		c.consecutiveErrors = 0
		c.openUntil = time.Time{}
	}

	return resp, nil
}

func (c *RateLimitedHTTPClient) recordFailureLocked(err error) {
	c.consecutiveErrors++
	c.lastError = err
	if c.consecutiveErrors < c.circuitBreakerMax {
		return
	}
	c.openUntil = c.now().Add(c.circuitResetTimeout)
	c.logger.Printf("Circuit breaker opened after %d consecutive errors: %v", c.consecutiveErrors, err)
	if c.onTrip != nil {
		c.onTrip(c.consecutiveErrors, c.openUntil)
	}
	c.consecutiveErrors = 0
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if err != nil {
			return true, err
		}

		// Retry on rate limit (429) and server/gateway errors
		switch resp.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true, nil
		}

		return false, nil
	}
}
