package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func TestGetJSONSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(nil)
	var got payload
	err := client.GetJSON(context.Background(), server.URL, &got, Options{})

	require.NoError(t, err)
	assert.Equal(t, "ok", got.Name)
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"name":"recovered"}`))
	}))
	defer server.Close()

	client := NewClient(nil)
	var got payload
	err := client.GetJSON(context.Background(), server.URL, &got, Options{MaxRetries: 1})

	require.NoError(t, err)
	assert.Equal(t, "recovered", got.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad"}`))
	}))
	defer server.Close()

	client := NewClient(nil)
	var got payload
	err := client.GetJSON(context.Background(), server.URL, &got, Options{MaxRetries: 3})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Contains(t, httpErr.Body, "bad")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSONExhaustedRetriesReturnLastError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(nil)
	var got payload
	err := client.GetJSON(context.Background(), server.URL, &got, Options{MaxRetries: 1})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":`))
	}))
	defer server.Close()

	client := NewClient(nil)
	var got payload
	err := client.GetJSON(context.Background(), server.URL, &got, Options{})

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestGetJSONTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(nil)
	var got payload
	err := client.GetJSON(context.Background(), server.URL, &got, Options{
		Timeout:    20 * time.Millisecond,
		MaxRetries: 0,
	})

	var toErr *TimeoutError
	require.ErrorAs(t, err, &toErr)
	assert.Equal(t, 20*time.Millisecond, toErr.Timeout)
}

func TestGetJSONCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := NewClient(nil)
	var got payload
	err := client.GetJSON(ctx, server.URL, &got, Options{MaxRetries: 3})

	assert.ErrorIs(t, err, context.Canceled)
	// A caller cancellation must never be classified as a timeout.
	var toErr *TimeoutError
	assert.False(t, errors.As(err, &toErr))
}

func TestGetJSONNetworkError(t *testing.T) {
	client := NewClient(nil)
	var got payload
	err := client.GetJSON(context.Background(), "http://127.0.0.1:1/nothing", &got, Options{MaxRetries: 0})

	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestBackoffDelayCaps(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(1))
	assert.Equal(t, 2*time.Second, backoffDelay(2))
	assert.Equal(t, 4*time.Second, backoffDelay(3))
	assert.Equal(t, maxBackoff, backoffDelay(5))
	assert.Equal(t, maxBackoff, backoffDelay(10))
}
