// Package search implements the debounced, cancellable, cache-aware search
// pipeline over the Google Books gateway: latest-wins concurrency through a
// monotonic request token, stale-while-revalidate result caching, and
// dedup-aware pagination.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lepinkainen/biblio/internal/books"
	"github.com/lepinkainen/biblio/internal/googlebooks"
)

// Defaults for the controller options.
const (
	DefaultDebounceDelay  = 2500 * time.Millisecond
	DefaultMinQueryLength = 2
	DefaultPageSize       = 10
	DefaultCacheTTL       = 3 * time.Minute
)

// Gateway is the slice of the catalog client the controller needs.
type Gateway interface {
	Search(ctx context.Context, query string, opts googlebooks.SearchOptions) (*googlebooks.SearchResponse, error)
}

// Options configure a Controller. Zero values fall back to the defaults.
type Options struct {
	DebounceDelay  time.Duration
	MinQueryLength int
	PageSize       int
	CacheTTL       time.Duration
	OrderBy        string
	LangRestrict   string
}

func (o Options) withDefaults() Options {
	if o.DebounceDelay <= 0 {
		o.DebounceDelay = DefaultDebounceDelay
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = DefaultMinQueryLength
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.OrderBy == "" {
		o.OrderBy = googlebooks.OrderByRelevance
	}
	return o
}

// Pagination is the cursor into the remote result set.
type Pagination struct {
	StartIndex int
	TotalItems int
	HasMore    bool
}

// Snapshot is an immutable view of the controller state for rendering.
type Snapshot struct {
	Query             string
	Results           []books.Book
	Loading           bool
	LoadingMore       bool
	Typing            bool
	HasSearched       bool
	Error             string
	PendingQuery      string
	LastExecutedQuery string
	Pagination        Pagination
}

// IsEmpty reports a settled search that produced no results.
func (s Snapshot) IsEmpty() bool {
	return s.HasSearched && len(s.Results) == 0 && !s.Loading && s.Error == ""
}

// CanLoadMore reports whether a pagination fetch would do anything.
func (s Snapshot) CanLoadMore() bool {
	return s.Pagination.HasMore && !s.Loading && !s.LoadingMore
}

// ResultsCount is the number of books currently displayed.
func (s Snapshot) ResultsCount() int {
	return len(s.Results)
}

// Controller owns the search state machine: debounce timing, request
// cancellation, the pagination cursor and the loading/typing/error flags.
// All state mutation is serialized behind one mutex; the only suspension
// points are the gateway call and the debounce timer.
type Controller struct {
	gateway  Gateway
	opts     Options
	cache    *resultCache
	debounce *Debouncer

	mu             sync.Mutex
	active         bool
	token          uint64
	cancelInflight context.CancelFunc

	query        string
	results      []books.Book
	loading      bool
	loadingMore  bool
	typing       bool
	hasSearched  bool
	errMsg       string
	pendingQuery string
	lastExecuted string
	pagination   Pagination
}

// NewController creates a controller over the given gateway.
func NewController(gateway Gateway, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		gateway:  gateway,
		opts:     opts,
		cache:    newResultCache(opts.CacheTTL),
		debounce: NewDebouncer(opts.DebounceDelay),
		active:   true,
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	results := make([]books.Book, len(c.results))
	copy(results, c.results)
	return Snapshot{
		Query:             c.query,
		Results:           results,
		Loading:           c.loading,
		LoadingMore:       c.loadingMore,
		Typing:            c.typing,
		HasSearched:       c.hasSearched,
		Error:             c.errMsg,
		PendingQuery:      c.pendingQuery,
		LastExecutedQuery: c.lastExecuted,
		Pagination:        c.pagination,
	}
}

// SetQuery records user input and schedules a trailing-edge debounced search
// once the query reaches the minimum length. Shorter input cancels any
// pending debounce; fully empty input also resets the last-executed marker so
// the same text can be searched again later.
func (c *Controller) SetQuery(raw string) {
	normalized := books.NormalizeQuery(raw)

	c.mu.Lock()
	c.query = raw

	switch {
	case len(normalized) >= c.opts.MinQueryLength:
		c.typing = true
		c.pendingQuery = normalized
		c.mu.Unlock()
		c.debounce.Schedule(func() { c.debounceFired(normalized) })
	case len(normalized) > 0:
		c.typing = false
		c.pendingQuery = ""
		c.mu.Unlock()
		c.debounce.Cancel()
	default:
		c.typing = false
		c.pendingQuery = ""
		c.lastExecuted = ""
		c.mu.Unlock()
		c.debounce.Cancel()
	}
}

// debounceFired runs on the timer goroutine after the quiet period.
func (c *Controller) debounceFired(normalized string) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.typing = false
	c.pendingQuery = ""
	skip := normalized == c.lastExecuted && len(c.results) > 0
	c.mu.Unlock()

	// Identical to the last executed query with results on screen: skip the
	// duplicate fetch.
	if skip {
		return
	}
	c.execute(normalized, 0, false)
}

// Search sets the query and executes immediately, bypassing the debounce.
// It blocks until the request settles.
func (c *Controller) Search(raw string) {
	c.debounce.Cancel()

	c.mu.Lock()
	c.query = raw
	c.typing = false
	c.pendingQuery = ""
	c.mu.Unlock()

	c.execute(raw, 0, false)
}

// FlushPending fires a pending debounced search now instead of waiting out
// the quiet period.
func (c *Controller) FlushPending() {
	c.debounce.Flush()
}

// LoadMore fetches the next page and merges it into the current result set.
// It is a no-op while a fetch is in flight or when there is nothing more to
// load. Blocks until the request settles.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	if c.loading || c.loadingMore || !c.pagination.HasMore || strings.TrimSpace(c.query) == "" {
		c.mu.Unlock()
		return
	}
	c.loadingMore = true
	query := c.query
	startIndex := c.pagination.StartIndex
	c.mu.Unlock()

	c.execute(query, startIndex, true)

	c.mu.Lock()
	c.loadingMore = false
	c.mu.Unlock()
}

// Retry re-executes the current query from the first page if it still meets
// the minimum length; otherwise it does nothing.
func (c *Controller) Retry() {
	c.mu.Lock()
	query := c.query
	c.mu.Unlock()

	if len(books.NormalizeQuery(query)) < c.opts.MinQueryLength {
		return
	}
	c.execute(query, 0, false)
}

// Clear cancels any in-flight request and resets every piece of state to its
// initial value, unconditionally.
func (c *Controller) Clear() {
	c.debounce.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelInflight != nil {
		c.cancelInflight()
		c.cancelInflight = nil
	}

	c.query = ""
	c.results = nil
	c.loading = false
	c.loadingMore = false
	c.typing = false
	c.hasSearched = false
	c.errMsg = ""
	c.pendingQuery = ""
	c.lastExecuted = ""
	c.pagination = Pagination{}
}

// Close tears the controller down: pending debounce dropped, in-flight
// request cancelled, and any late resolutions discarded via the liveness
// flag.
func (c *Controller) Close() {
	c.debounce.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = false
	if c.cancelInflight != nil {
		c.cancelInflight()
		c.cancelInflight = nil
	}
}

// execute runs one search request against the gateway and applies the
// response under the latest-wins token protocol.
func (c *Controller) execute(rawQuery string, startIndex int, isAppend bool) {
	normalized := books.NormalizeQuery(rawQuery)

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}

	// Below the minimum length there is nothing to fetch. A fresh search
	// clears the result area; an append just fizzles.
	if len(normalized) < c.opts.MinQueryLength {
		if !isAppend {
			c.results = nil
			c.pagination = Pagination{}
			c.loading = false
			c.lastExecuted = ""
		}
		c.errMsg = ""
		c.mu.Unlock()
		return
	}

	// Re-running the identical query while its results are on screen is a
	// duplicate; skip it.
	if !isAppend && normalized == c.lastExecuted && len(c.results) > 0 {
		c.mu.Unlock()
		return
	}

	// At most one authoritative request in flight: cancel the previous one
	// before starting.
	if c.cancelInflight != nil {
		c.cancelInflight()
		c.cancelInflight = nil
	}

	if !isAppend {
		c.loading = true
		// Marked immediately so rapid repeat triggers are suppressed even
		// before the network resolves.
		c.lastExecuted = normalized

		// Stale-while-revalidate: show the cached result set while the
		// network call proceeds.
		if entry, ok := c.cache.Get(normalized); ok {
			c.results = append([]books.Book(nil), entry.Items...)
			c.hasSearched = true
			c.pagination.TotalItems = entry.TotalItems
		}
	}
	c.errMsg = ""

	c.token++
	myToken := c.token

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelInflight = cancel
	c.mu.Unlock()

	resp, err := c.gateway.Search(ctx, normalized, googlebooks.SearchOptions{
		StartIndex:   startIndex,
		MaxResults:   c.opts.PageSize,
		OrderBy:      c.opts.OrderBy,
		LangRestrict: c.opts.LangRestrict,
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	// Post-suspension liveness check: never mutate state after Close.
	if !c.active {
		cancel()
		return
	}

	// Latest wins: a response from a superseded request is discarded without
	// side effects, whichever order the requests resolved in.
	if myToken != c.token {
		cancel()
		return
	}
	c.cancelInflight = nil

	if err != nil {
		// Superseded or aborted requests stay silent.
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Debug("Search failed", "query", normalized, "error", err)
		c.errMsg = userFacingError(err)
		if !isAppend {
			c.loading = false
		}
		return
	}

	valid := books.SanitizeAll(books.MapVolumes(resp.Items))
	totalItems := resp.TotalItems
	if totalItems < 0 {
		totalItems = 0
	}

	if isAppend {
		merged, appended := books.MergeUniqueByID(c.results, valid)
		c.results = merged
		newStart := c.pagination.StartIndex + appended
		c.pagination = Pagination{
			StartIndex: newStart,
			TotalItems: totalItems,
			// Dedup means a page of pure repeats flips HasMore false even if
			// the server claims more exist.
			HasMore: appended > 0 && newStart < totalItems,
		}
		return
	}

	merged, appended := books.MergeUniqueByID(nil, valid)
	c.results = merged
	c.hasSearched = true
	c.loading = false
	c.pagination = Pagination{
		StartIndex: appended,
		TotalItems: totalItems,
		HasMore:    appended > 0 && appended < totalItems,
	}
	c.cache.Set(normalized, merged, totalItems)
}
