package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(maxRetries int) RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries:       maxRetries,
		BaseDelay:        time.Millisecond,
		MaxDelay:         5 * time.Millisecond,
		EnableJitter:     true,
		RetryStatusCodes: []int{http.StatusTooManyRequests, http.StatusServiceUnavailable},
	}
}

func TestRetryHandler_RetriesAndResendsBody(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"n":1}`, string(body), "body is resent on every attempt")
		if atomic.AddInt32(&requestCount, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetry(fastRetry(3)).Build()
	require.NoError(t, err)

	resp, err := client.PostJSON(context.Background(), server.URL, map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requestCount))
}

func TestRetryHandler_ExhaustsRetries(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetry(fastRetry(2)).Build()
	require.NoError(t, err)

	_, err = client.Do(&HTTPRequest{URL: server.URL, Method: http.MethodGet})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retry attempts failed")
	assert.Equal(t, int32(3), atomic.LoadInt32(&requestCount))
}

func TestRetryHandler_NonRetryableStatus(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetry(fastRetry(3)).Build()
	require.NoError(t, err)

	resp, err := client.Do(&HTTPRequest{URL: server.URL, Method: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
}

func TestRetryHandler_ContextCancelled(t *testing.T) {
	rh := NewRetryHandler(fastRetry(3), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := rh.DoWithRetry(ctx, func(*HTTPRequest) (*HTTPResponse, error) {
		calls++
		return &HTTPResponse{StatusCode: http.StatusOK}, nil
	}, &HTTPRequest{URL: "http://example.com"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetryHandler_CalculateDelay(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}, zerolog.Nop())

	assert.Equal(t, 100*time.Millisecond, rh.CalculateDelay(0))
	assert.Equal(t, 200*time.Millisecond, rh.CalculateDelay(1))
	assert.Equal(t, 300*time.Millisecond, rh.CalculateDelay(5))

	jittered := NewRetryHandler(RetryHandlerConfig{BaseDelay: time.Millisecond, EnableJitter: true}, zerolog.Nop())
	assert.NotPanics(t, func() { jittered.CalculateDelay(0) }, "sub-10ms delays have no jitter range")
}

func TestRetryHandler_ShouldRetry(t *testing.T) {
	rh := NewRetryHandler(fastRetry(1), zerolog.Nop())
	assert.True(t, rh.ShouldRetry(http.StatusTooManyRequests, 0))
	assert.False(t, rh.ShouldRetry(http.StatusTooManyRequests, 1))
	assert.False(t, rh.ShouldRetry(http.StatusInternalServerError, 0))
}
