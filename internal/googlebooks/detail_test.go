package googlebooks

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/biblio/internal/fetch"
)

func TestGetVolumeRejectsEmptyID(t *testing.T) {
	client := NewClient()

	_, err := client.GetVolume(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrMissingVolumeID)
}

func TestGetVolumeSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes/abc", r.URL.Path)
		w.Write([]byte(`{"id": "abc", "volumeInfo": {"title": "Go", "pageCount": 380}}`))
	})

	volume, err := client.GetVolume(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, "abc", volume.ID)
	assert.Equal(t, "Go", volume.VolumeInfo.Title)
	assert.Equal(t, 380, volume.VolumeInfo.PageCount)
}

func TestGetVolumeNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetVolume(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetVolumeRejectsResponseWithoutID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"volumeInfo": {"title": "orphan"}}`))
	})

	_, err := client.GetVolume(context.Background(), "abc")

	var decodeErr *fetch.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}
