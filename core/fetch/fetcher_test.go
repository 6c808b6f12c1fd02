package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<radiko/>"))
	}))
	defer srv.Close()

	f := New(Options{UserAgent: "test-agent"}, zerolog.Nop())
	res, err := f.Fetch(context.Background(), srv.URL+"/x.xml")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "<radiko/>", string(res.Body))
	assert.Equal(t, srv.URL+"/x.xml", res.URL)
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(Options{}, zerolog.Nop()).Fetch(context.Background(), srv.URL)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(Options{BreakerFailures: 2, BreakerCooldown: time.Hour}, zerolog.Nop())
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)
	}

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the server")
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(Options{BreakerFailures: 1, BreakerCooldown: time.Hour}, zerolog.Nop())
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	f := New(Options{RatePerSecond: 0.001, Burst: 1}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "5xx", outcome(nil, &StatusError{StatusCode: 503}))
	assert.Equal(t, "4xx", outcome(nil, &StatusError{StatusCode: 404}))
	assert.Equal(t, "rejected", outcome(nil, gobreaker.ErrOpenState))
	assert.Equal(t, "error", outcome(nil, errors.New("dial")))
}
