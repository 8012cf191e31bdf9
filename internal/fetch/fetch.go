package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/internal/must"
)

const (
	DefaultAttempts   = 3
	DefaultBackoff    = 500 * time.Millisecond
	DefaultMaxBackoff = 5 * time.Second
	DefaultTimeout    = 30 * time.Second

	userAgent = "pv-carbon (+https://github.com/superdango/pv-carbon)"
)

// StatusError is returned when the server answered with a non 2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (statusErr *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", statusErr.StatusCode, statusErr.URL, statusErr.Body)
}

// Temporary reports whether retrying the request may succeed.
func (statusErr *StatusError) Temporary() bool {
	return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
}

// Client issues GET requests with a bounded exponential backoff.
type Client struct {
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
	maxBackoff time.Duration
}

type Option func(c *Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetry sets the number of attempts and the backoff boundaries.
func WithRetry(attempts int, backoff, maxBackoff time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.backoff = backoff
		c.maxBackoff = maxBackoff
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		attempts:   DefaultAttempts,
		backoff:    DefaultBackoff,
		maxBackoff: DefaultMaxBackoff,
	}

	for _, option := range opts {
		option(c)
	}

	must.Assert(c.attempts > 0, "fetch client needs at least one attempt")
	must.Assert(c.httpClient != nil, "fetch client needs an http client")

	return c
}

// Get returns the body of url. Network errors, 5xx and 429 responses are retried;
// once every attempt failed the error wraps pvcarbon.ErrUpstreamUnavailable.
// Other 4xx responses are returned immediately as a *StatusError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	wait := must.NewWait(c.maxBackoff)

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}

		statusErr := new(StatusError)
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", pvcarbon.ErrUpstreamUnavailable, url, ctx.Err())
		}

		lastErr = err
		if attempt == c.attempts {
			break
		}

		delay := wait.Exponentially(c.backoff)
		slog.Warn("upstream request failed, retrying", "url", url, "attempt", attempt, "delay", delay, "err", err)
		if err := wait.Sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", pvcarbon.ErrUpstreamUnavailable, url, err)
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %w", pvcarbon.ErrUpstreamUnavailable, url, c.attempts, lastErr)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
