package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lepinkainen/biblio/internal/cache"
	"github.com/lepinkainen/biblio/internal/fetch"
)

// ErrNotFound is returned when a volume id does not exist in the catalog.
var ErrNotFound = errors.New("volume not found")

// GetVolume fetches a single volume by id. Detail lookups use a shorter
// per-attempt timeout but a larger retry budget than interactive searches.
func (c *Client) GetVolume(ctx context.Context, id string) (*Volume, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, ErrMissingVolumeID
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/volumes/%s", c.baseURL, trimmed)
	if c.apiKey != "" {
		endpoint += "?key=" + c.apiKey
	}

	var volume Volume
	err := c.fetcher.GetJSON(ctx, endpoint, &volume, fetch.Options{
		Timeout:    detailTimeout,
		MaxRetries: detailRetries,
	})
	if err != nil {
		var httpErr *fetch.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == 404 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, trimmed)
		}
		return nil, err
	}

	if volume.ID == "" {
		return nil, &fetch.DecodeError{URL: endpoint, Err: errors.New("volume response missing id")}
	}

	return &volume, nil
}

// GetVolumeCached fetches a volume through the durable API response cache,
// hitting the network only on a miss or an expired entry.
func (c *Client) GetVolumeCached(ctx context.Context, id string) (*Volume, bool, error) {
	return cache.GetOrFetch(cache.VolumesTable, strings.TrimSpace(id),
		func() (*Volume, error) {
			return c.GetVolume(ctx, id)
		})
}
