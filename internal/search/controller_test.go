package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/biblio/internal/fetch"
	"github.com/lepinkainen/biblio/internal/googlebooks"
)

type gatewayFunc func(ctx context.Context, query string, opts googlebooks.SearchOptions) (*googlebooks.SearchResponse, error)

func (f gatewayFunc) Search(ctx context.Context, query string, opts googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
	return f(ctx, query, opts)
}

func makeResponse(total int, ids ...string) *googlebooks.SearchResponse {
	items := make([]googlebooks.Volume, len(ids))
	for i, id := range ids {
		items[i] = googlebooks.Volume{
			ID: id,
			VolumeInfo: &googlebooks.VolumeInfo{
				Title:   "Book " + id,
				Authors: []string{"Author"},
			},
		}
	}
	return &googlebooks.SearchResponse{TotalItems: total, Items: items}
}

func testOptions() Options {
	return Options{
		DebounceDelay: 20 * time.Millisecond,
		PageSize:      2,
	}
}

func TestSearchPopulatesResults(t *testing.T) {
	gateway := gatewayFunc(func(_ context.Context, query string, opts googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		assert.Equal(t, "golang", query)
		assert.Equal(t, 0, opts.StartIndex)
		return makeResponse(5, "a", "b"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.True(t, snap.HasSearched)
	assert.Empty(t, snap.Error)
	assert.Equal(t, "golang", snap.LastExecutedQuery)
	require.Len(t, snap.Results, 2)
	assert.Equal(t, Pagination{StartIndex: 2, TotalItems: 5, HasMore: true}, snap.Pagination)
	assert.True(t, snap.CanLoadMore())
	assert.False(t, snap.IsEmpty())
}

func TestSearchBelowMinLengthClearsResults(t *testing.T) {
	var calls atomic.Int32
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		calls.Add(1)
		return makeResponse(1, "a"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")
	require.Len(t, c.Snapshot().Results, 1)

	c.Search("a")

	snap := c.Snapshot()
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.Error)
	assert.Empty(t, snap.LastExecutedQuery)
	assert.Equal(t, Pagination{}, snap.Pagination)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDuplicateQuerySuppressed(t *testing.T) {
	var calls atomic.Int32
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		calls.Add(1)
		return makeResponse(1, "a"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")
	c.Search("golang")
	c.Search("  GOLANG  ") // normalizes to the same query

	assert.Equal(t, int32(1), calls.Load())
}

func TestLatestWinsWhenSupersededResolvesLast(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	gateway := gatewayFunc(func(_ context.Context, query string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		if query == "first" {
			close(firstStarted)
			<-releaseFirst
			return makeResponse(1, "stale"), nil
		}
		return makeResponse(1, "fresh"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Search("first")
	}()
	<-firstStarted

	c.Search("second")
	require.Equal(t, "fresh", c.Snapshot().Results[0].ID)

	// The superseded request resolves now; its response must be discarded.
	close(releaseFirst)
	wg.Wait()

	snap := c.Snapshot()
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "fresh", snap.Results[0].ID)
	assert.Equal(t, "second", snap.LastExecutedQuery)
}

func TestLoadMoreMergesAndDeduplicates(t *testing.T) {
	gateway := gatewayFunc(func(_ context.Context, _ string, opts googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		if opts.StartIndex == 0 {
			return makeResponse(4, "a", "b"), nil
		}
		// Overlapping page: only "c" is new.
		return makeResponse(4, "b", "c"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")
	c.LoadMore()

	snap := c.Snapshot()
	require.Len(t, snap.Results, 3)
	assert.Equal(t, "a", snap.Results[0].ID)
	assert.Equal(t, "b", snap.Results[1].ID)
	assert.Equal(t, "c", snap.Results[2].ID)
	// Cursor advanced only by the one genuinely new item.
	assert.Equal(t, Pagination{StartIndex: 3, TotalItems: 4, HasMore: true}, snap.Pagination)
	assert.False(t, snap.LoadingMore)
}

func TestLoadMoreAllDuplicatesEndsPagination(t *testing.T) {
	gateway := gatewayFunc(func(_ context.Context, _ string, opts googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		if opts.StartIndex == 0 {
			return makeResponse(10, "a", "b"), nil
		}
		return makeResponse(10, "a", "b"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")
	c.LoadMore()

	snap := c.Snapshot()
	assert.Len(t, snap.Results, 2)
	// The server claims more items but a page of pure repeats ends paging.
	assert.False(t, snap.Pagination.HasMore)
	assert.False(t, snap.CanLoadMore())
}

func TestLoadMoreWithoutMoreIsNoop(t *testing.T) {
	var calls atomic.Int32
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		calls.Add(1)
		return makeResponse(1, "a"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")
	c.LoadMore()
	c.LoadMore()

	assert.Equal(t, int32(1), calls.Load())
}

func TestErrorLeavesResultsUntouched(t *testing.T) {
	var fail atomic.Bool
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		if fail.Load() {
			return nil, &fetch.HTTPError{Status: 500, URL: "u"}
		}
		return makeResponse(2, "a", "b"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")
	require.Len(t, c.Snapshot().Results, 2)

	fail.Store(true)
	c.Search("rust")

	snap := c.Snapshot()
	assert.Equal(t, msgServer, snap.Error)
	assert.False(t, snap.Loading)
	// Last good results stay on screen.
	require.Len(t, snap.Results, 2)
	assert.Equal(t, "a", snap.Results[0].ID)
}

func TestCancellationStaysSilent(t *testing.T) {
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		return nil, context.Canceled
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")

	assert.Empty(t, c.Snapshot().Error)
}

func TestRetryAfterFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		if fail.Load() {
			return nil, &fetch.TimeoutError{URL: "u", Timeout: time.Second}
		}
		return makeResponse(1, "a"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")
	assert.Equal(t, msgTimeout, c.Snapshot().Error)

	fail.Store(false)
	c.Retry()

	snap := c.Snapshot()
	assert.Empty(t, snap.Error)
	require.Len(t, snap.Results, 1)
}

func TestCachedResultsShownWhileRevalidating(t *testing.T) {
	var calls atomic.Int32
	secondStarted := make(chan struct{})
	releaseSecond := make(chan struct{})

	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		if calls.Add(1) == 2 {
			close(secondStarted)
			<-releaseSecond
		}
		return makeResponse(3, "a", "b"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")
	// Empty input resets the last-executed marker so the query can run again.
	c.SetQuery("")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Search("golang")
	}()
	<-secondStarted

	// While the revalidation is in flight the cached results are visible.
	snap := c.Snapshot()
	assert.True(t, snap.Loading)
	require.Len(t, snap.Results, 2)
	assert.Equal(t, 3, snap.Pagination.TotalItems)

	close(releaseSecond)
	wg.Wait()
	assert.False(t, c.Snapshot().Loading)
}

func TestClearResetsEverything(t *testing.T) {
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		return makeResponse(5, "a", "b"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.Search("golang")
	c.Clear()

	snap := c.Snapshot()
	assert.Empty(t, snap.Query)
	assert.Empty(t, snap.Results)
	assert.False(t, snap.Loading)
	assert.False(t, snap.HasSearched)
	assert.Empty(t, snap.Error)
	assert.Empty(t, snap.LastExecutedQuery)
	assert.Equal(t, Pagination{}, snap.Pagination)
}

func TestSetQueryDebouncesTrailingEdge(t *testing.T) {
	var calls atomic.Int32
	var lastQuery atomic.Value
	gateway := gatewayFunc(func(_ context.Context, query string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		calls.Add(1)
		lastQuery.Store(query)
		return makeResponse(1, "a"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.SetQuery("go")
	c.SetQuery("gol")
	c.SetQuery("gola")
	c.SetQuery("golang")

	snap := c.Snapshot()
	assert.True(t, snap.Typing)
	assert.Equal(t, "golang", snap.PendingQuery)

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "golang", lastQuery.Load())

	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return !s.Typing && len(s.Results) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestShortQueryCancelsPendingDebounce(t *testing.T) {
	var calls atomic.Int32
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		calls.Add(1)
		return makeResponse(1, "a"), nil
	})

	c := NewController(gateway, testOptions())
	defer c.Close()

	c.SetQuery("golang")
	c.SetQuery("g")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.False(t, c.Snapshot().Typing)
}

func TestFlushPendingSkipsQuietPeriod(t *testing.T) {
	var calls atomic.Int32
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		calls.Add(1)
		return makeResponse(1, "a"), nil
	})

	opts := testOptions()
	opts.DebounceDelay = time.Hour
	c := NewController(gateway, opts)
	defer c.Close()

	c.SetQuery("golang")
	c.FlushPending()

	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, c.Snapshot().Results, 1)
}

func TestCloseDiscardsLateResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gateway := gatewayFunc(func(_ context.Context, _ string, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
		close(started)
		<-release
		return makeResponse(1, "a"), nil
	})

	c := NewController(gateway, testOptions())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Search("golang")
	}()
	<-started

	c.Close()
	close(release)
	wg.Wait()

	assert.Empty(t, c.Snapshot().Results)
}
