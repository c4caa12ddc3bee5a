// Package fetch provides a JSON-over-HTTP client with retries, per-attempt
// timeouts and typed error classification.
package fetch

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
)

const (
	// DefaultTimeout is the per-attempt timeout used when none is given.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	retryBaseDelay = time.Second
	maxBackoff     = 10 * time.Second
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPError is returned when a response arrived with a non-2xx status.
type HTTPError struct {
	Status int
	URL    string
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d from %s", e.Status, e.URL)
}

// NetworkError is returned when no response reached the server at all.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is returned when a response was not received within the
// per-attempt budget.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}

// DecodeError is returned when a 2xx response body could not be decoded.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Options control a single GetJSON call.
type Options struct {
	// Timeout is the per-attempt budget. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	// Negative means DefaultMaxRetries; zero disables retrying.
	MaxRetries int
}

// Client fetches JSON documents over HTTP.
type Client struct {
	httpClient HTTPDoer
}

// NewClient creates a fetch client. A nil doer falls back to a plain
// http.Client; timeouts are enforced per attempt via context, not on the
// transport.
func NewClient(doer HTTPDoer) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	return &Client{httpClient: doer}
}

// GetJSON fetches url and decodes the response body into target.
//
// Retries happen only on network failures, timeouts and 5xx responses, with
// exponential backoff (1s base, doubling per attempt). Cancellation of ctx is
// never retried and surfaces as context.Canceled.
func (c *Client) GetJSON(ctx context.Context, rawURL string, target any, opts Options) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = DefaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= retries+1; attempt++ {
		err := c.doJSONRequest(ctx, rawURL, target, timeout)
		if err == nil {
			return nil
		}
		lastErr = err

		// Externally cancelled requests are terminal.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == retries+1 || !isRetryable(err) {
			return lastErr
		}

		select {
		case <-time.After(backoffDelay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (c *Client) doJSONRequest(ctx context.Context, rawURL string, target any, timeout time.Duration) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err, rawURL, timeout, ctx)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{Status: resp.StatusCode, URL: rawURL, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &DecodeError{URL: rawURL, Err: err}
	}
	return nil
}

// classifyTransportError maps a transport failure to the error taxonomy.
// The parent context distinguishes a caller cancellation from an attempt
// hitting its own deadline.
func classifyTransportError(err error, rawURL string, timeout time.Duration, parent context.Context) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: rawURL, Timeout: timeout}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &TimeoutError{URL: rawURL, Timeout: timeout}
	}
	return &NetworkError{URL: rawURL, Err: err}
}

func isRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500 && httpErr.Status < 600
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var toErr *TimeoutError
	return errors.As(err, &toErr)
}

func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay << uint(attempt-1)
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}
