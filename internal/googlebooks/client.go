// Package googlebooks provides a client for the Google Books volumes API.
package googlebooks

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/biblio/internal/fetch"
	"github.com/lepinkainen/biblio/internal/ratelimit"
)

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"

	// MaxResultsLimit is the hard page size ceiling of the volumes API.
	MaxResultsLimit = 40

	defaultRatePerSecond = 4

	// Interactive searches get a longer per-attempt budget but fewer
	// retries than passive detail lookups.
	searchTimeout = 15 * time.Second
	searchRetries = 2
	detailTimeout = 10 * time.Second
	detailRetries = 3
)

var (
	// ErrEmptyQuery is returned when the query is empty after normalization.
	ErrEmptyQuery = errors.New("search query must not be empty")
	// ErrMissingVolumeID is returned when a detail lookup has no id.
	ErrMissingVolumeID = errors.New("volume id must not be empty")
	// ErrNoCriteria is returned when an advanced query has no terms.
	ErrNoCriteria = errors.New("at least one search criteria must be provided")
)

// Client is a Google Books API client.
type Client struct {
	apiKey      string
	baseURL     string
	fetcher     *fetch.Client
	rateLimiter *ratelimit.Limiter
}

// NewClient creates a new Google Books API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:     defaultBaseURL,
		fetcher:     fetch.NewClient(nil),
		rateLimiter: ratelimit.New("GoogleBooks", defaultRatePerSecond),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithAPIKey sets the API key appended to every request.
func WithAPIKey(key string) Option {
	return func(client *Client) {
		client.apiKey = key
	}
}

// WithBaseURL sets a custom base URL for the volumes API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(doer fetch.HTTPDoer) Option {
	return func(client *Client) {
		if doer != nil {
			client.fetcher = fetch.NewClient(doer)
		}
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

var _ fetch.HTTPDoer = (*http.Client)(nil)
