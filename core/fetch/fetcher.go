// Package fetch implements the Fetcher interface.
// It performs rate-limited HTTP GET requests behind a circuit breaker.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/logging"
	"github.com/gaurav-prasanna/radiopipe/core/metrics"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "RadioPipe/1.0 (https://github.com/gaurav-prasanna/radiopipe)"
	breakerName      = "upstream"
)

// Options tunes an HTTPFetcher. Zero values select defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// RatePerSecond of 0 disables rate limiting.
	RatePerSecond float64
	Burst         int
	// BreakerFailures is the number of consecutive failures that open the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open before probing again.
	BreakerCooldown time.Duration
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// HTTPFetcher fetches upstream documents via HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[*core.FetchResult]
	logger    zerolog.Logger
}

// New creates an HTTPFetcher.
func New(opts Options, logger zerolog.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	metrics.BreakerState.WithLabelValues(breakerName).Set(0)
	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[*core.FetchResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		// A 4xx means the upstream is healthy and simply has nothing for us.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500
			}
			return err == nil
		},
	})

	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(limit, opts.Burst),
		breaker:   breaker,
		logger:    logger,
	}
}

// Fetch retrieves the body of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	res, err := f.breaker.Execute(func() (*core.FetchResult, error) {
		return f.do(ctx, url)
	})
	metrics.UpstreamRequests.WithLabelValues(outcome(res, err)).Inc()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
		return nil, err
	}
	logging.WithContext(ctx, f.logger).Debug().Str(logging.FieldURL, url).Int("bytes", len(res.Body)).Msg("fetched")
	return res, nil
}

func (f *HTTPFetcher) do(ctx context.Context, url string) (*core.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/xml, application/json;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &core.FetchResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

func outcome(res *core.FetchResult, err error) string {
	if err == nil && res != nil {
		return "2xx"
	}
	var se *StatusError
	switch {
	case errors.As(err, &se) && se.StatusCode >= 500:
		return "5xx"
	case errors.As(err, &se):
		return "4xx"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "error"
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
