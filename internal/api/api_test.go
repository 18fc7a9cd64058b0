package api

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

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
}

func TestDoWithRetryRecoversFromServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHeader("x-api-key", "secret"))
	req := NewRequest(http.MethodPost, "/v1").WithContext(context.Background()).WithBody(map[string]int{"a": 1})

	resp, err := c.DoWithRetry(req, fastRetry())
	require.NoError(t, err)

	var out struct{ OK bool }
	require.NoError(t, resp.ParseJSON(&out))
	assert.True(t, out.OK)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDoWithRetryStopsOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.DoWithRetry(NewRequest(http.MethodPost, "/"), fastRetry())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDoWithRetryGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).DoWithRetry(NewRequest(http.MethodGet, "/"), fastRetry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retry attempts failed")
}
