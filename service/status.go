// Package service holds the long-running pieces of watch mode: the cycle
// loop, the roster watcher and the status HTTP server. Each is a
// suture.Service.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/radiopipe/core/store"
	"github.com/gaurav-prasanna/radiopipe/crawl"
)

// unhealthyAfter is the number of consecutive failed cycles that flips /healthz.
const unhealthyAfter = 3

// Snapshot is the daemon state reported by /api/status.
type Snapshot struct {
	Since               time.Time      `json:"since"`
	Running             bool           `json:"running"`
	Cycles              int            `json:"cycles"`
	Failures            int            `json:"failures"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	LastSummary         *crawl.Summary `json:"last_summary,omitempty"`
	LastError           string         `json:"last_error,omitempty"`
	RosterArtists       int            `json:"roster_artists"`
	RosterLoadedAt      time.Time      `json:"roster_loaded_at"`
}

// Tracker records cycle and roster events for the status endpoints.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker.
func NewTracker(now time.Time) *Tracker {
	return &Tracker{snap: Snapshot{Since: now}}
}

// Begin marks a cycle as running.
func (t *Tracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Running = true
}

// Finish records the outcome of the running cycle.
func (t *Tracker) Finish(sum crawl.Summary, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Running = false
	t.snap.Cycles++
	if err != nil {
		t.snap.Failures++
		t.snap.ConsecutiveFailures++
		t.snap.LastError = err.Error()
		return
	}
	t.snap.ConsecutiveFailures = 0
	t.snap.LastError = ""
	t.snap.LastSummary = &sum
}

// RosterLoaded records a successful roster (re)load.
func (t *Tracker) RosterLoaded(artists int, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.RosterArtists = artists
	t.snap.RosterLoadedAt = at
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.snap
	if s.LastSummary != nil {
		sum := *s.LastSummary
		s.LastSummary = &sum
	}
	return s
}

// Healthy reports false once several cycles in a row have failed.
func (t *Tracker) Healthy() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.ConsecutiveFailures < unhealthyAfter
}

// MatchLister is the read side of the match store.
type MatchLister interface {
	List(ctx context.Context, q store.Query) ([]store.Entry, error)
}

// NewRouter builds the status API.
func NewRouter(tracker *Tracker, matches MatchLister, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(httprate.LimitByIP(120, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !tracker.Healthy() {
			http.Error(w, "failing", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, tracker.Snapshot(), logger)
		})
		r.Get("/matches", func(w http.ResponseWriter, req *http.Request) {
			q := store.Query{Artist: req.URL.Query().Get("artist"), Limit: 100}
			if raw := req.URL.Query().Get("limit"); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 1 || n > 1000 {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 1000"}, logger)
					return
				}
				q.Limit = n
			}
			entries, err := matches.List(req.Context(), q)
			if err != nil {
				logger.Error().Err(err).Msg("listing matches")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"}, logger)
				return
			}
			if entries == nil {
				entries = []store.Entry{}
			}
			writeJSON(w, http.StatusOK, entries, logger)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug().Err(err).Msg("writing response")
	}
}

// HTTPService runs the status server under a supervisor.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService creates an HTTPService listening on addr.
func NewHTTPService(addr string, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: 10 * time.Second,
	}
}

// Serve implements suture.Service.
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("status server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("status server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPService) String() string { return "status-http" }
