package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lepinkainen/biblio/internal/fetch"
)

// Search order values accepted by the volumes API.
const (
	OrderByRelevance = "relevance"
	OrderByNewest    = "newest"
)

// SearchOptions control a single volumes search request.
type SearchOptions struct {
	StartIndex   int
	MaxResults   int    // clamped to [1, MaxResultsLimit]
	OrderBy      string // OrderByRelevance (default) or OrderByNewest
	LangRestrict string
	PrintType    string // "books" (default), "magazines" or "all"
}

// Search queries the volumes endpoint. The query must be non-empty after
// trimming; this is checked before any network activity.
//
// Transport failures carry their fetch classification in the error chain, so
// callers can branch on *fetch.HTTPError, *fetch.NetworkError and
// *fetch.TimeoutError, or on context.Canceled for aborted requests.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, ErrEmptyQuery
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.buildSearchURL(trimmed, opts)

	var response SearchResponse
	err := c.fetcher.GetJSON(ctx, endpoint, &response, fetch.Options{
		Timeout:    searchTimeout,
		MaxRetries: searchRetries,
	})
	if err != nil {
		return nil, enrichSearchError(err, trimmed)
	}

	return &response, nil
}

func (c *Client) buildSearchURL(query string, opts SearchOptions) string {
	maxResults := opts.MaxResults
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > MaxResultsLimit {
		maxResults = MaxResultsLimit
	}
	startIndex := opts.StartIndex
	if startIndex < 0 {
		startIndex = 0
	}
	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = OrderByRelevance
	}
	printType := opts.PrintType
	if printType == "" {
		printType = "books"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(startIndex))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("orderBy", orderBy)
	params.Set("printType", printType)
	params.Set("projection", "full")
	if opts.LangRestrict != "" {
		params.Set("langRestrict", opts.LangRestrict)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	return fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())
}

// enrichSearchError adds domain context for the statuses the catalog is known
// to return, keeping the classified error in the chain.
func enrichSearchError(err error, query string) error {
	var httpErr *fetch.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Status {
		case 400:
			return fmt.Errorf("invalid search query %q: %w", query, err)
		case 403:
			return fmt.Errorf("google books api quota exceeded: %w", err)
		case 429:
			return fmt.Errorf("too many requests to google books: %w", err)
		}
	}
	return err
}

// AdvancedQuery holds field-scoped search criteria.
type AdvancedQuery struct {
	Title     string
	Author    string
	ISBN      string
	Subject   string
	Publisher string
}

// BuildAdvancedQuery assembles a field-scoped query string
// (intitle:/inauthor:/isbn:/subject:/inpublisher:).
func BuildAdvancedQuery(criteria AdvancedQuery) (string, error) {
	var parts []string
	if criteria.Title != "" {
		parts = append(parts, "intitle:"+criteria.Title)
	}
	if criteria.Author != "" {
		parts = append(parts, "inauthor:"+criteria.Author)
	}
	if criteria.ISBN != "" {
		parts = append(parts, "isbn:"+normalizeISBN(criteria.ISBN))
	}
	if criteria.Subject != "" {
		parts = append(parts, "subject:"+criteria.Subject)
	}
	if criteria.Publisher != "" {
		parts = append(parts, "inpublisher:"+criteria.Publisher)
	}
	if len(parts) == 0 {
		return "", ErrNoCriteria
	}
	return strings.Join(parts, " "), nil
}

// normalizeISBN strips hyphens and spaces from an ISBN.
func normalizeISBN(isbn string) string {
	normalized := strings.ReplaceAll(isbn, "-", "")
	return strings.ReplaceAll(normalized, " ", "")
}
