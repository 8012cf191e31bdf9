package fetch

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pvcarbon "github.com/superdango/pv-carbon"
)

func TestGetRetriesServerErrors(t *testing.T) {
	calls := new(atomic.Int64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(WithHTTPClient(server.Client()), WithRetry(3, time.Millisecond, 5*time.Millisecond))
	body, err := client.Get(t.Context(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int64(3), calls.Load())
}

func TestGetExhaustsRetries(t *testing.T) {
	calls := new(atomic.Int64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithRetry(2, time.Millisecond, time.Millisecond))
	_, err := client.Get(t.Context(), server.URL)
	assert.ErrorIs(t, err, pvcarbon.ErrUpstreamUnavailable)
	assert.Equal(t, int64(2), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	calls := new(atomic.Int64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad location", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(WithRetry(3, time.Millisecond, time.Millisecond))
	_, err := client.Get(t.Context(), server.URL)
	require.Error(t, err)
	assert.False(t, errors.Is(err, pvcarbon.ErrUpstreamUnavailable))

	statusErr := new(StatusError)
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "bad location")
	assert.Equal(t, int64(1), calls.Load())
}

func TestGetNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(WithRetry(2, time.Millisecond, time.Millisecond))
	_, err := client.Get(t.Context(), url)
	assert.ErrorIs(t, err, pvcarbon.ErrUpstreamUnavailable)
}
