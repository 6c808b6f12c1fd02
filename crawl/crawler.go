// Package crawl fetches station lists and daily schedules, turns their
// entries into program records and enriches finished programs with their
// on-air track lists.
package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/logging"
	"github.com/gaurav-prasanna/radiopipe/core/metrics"
	"github.com/gaurav-prasanna/radiopipe/core/onair"
	"github.com/gaurav-prasanna/radiopipe/core/program"
	"github.com/gaurav-prasanna/radiopipe/core/schedule"
)

// Progress receives one tick per finished unit of work.
type Progress interface {
	Add(n int) error
}

type nopProgress struct{}

func (nopProgress) Add(int) error { return nil }

// Config holds the crawler's upstream endpoints and limits.
type Config struct {
	StationListURL      string
	ScheduleURLTemplate string
	MaxConcurrency      int
	// StationFilter restricts crawling to these station ids when non-empty.
	StationFilter []string
}

// Crawler drives the upstream fetches.
type Crawler struct {
	fetcher core.Fetcher
	builder *program.Builder
	tracks  *onair.Client
	cfg     Config
	logger  zerolog.Logger
}

// New creates a Crawler. Empty endpoints fall back to the public defaults.
func New(fetcher core.Fetcher, builder *program.Builder, tracks *onair.Client, cfg Config, logger zerolog.Logger) *Crawler {
	if cfg.StationListURL == "" {
		cfg.StationListURL = DefaultStationListURL
	}
	if cfg.ScheduleURLTemplate == "" {
		cfg.ScheduleURLTemplate = DefaultScheduleURLTemplate
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	return &Crawler{fetcher: fetcher, builder: builder, tracks: tracks, cfg: cfg, logger: logger}
}

// Stations fetches and parses the station list, applying the station filter.
func (c *Crawler) Stations(ctx context.Context) ([]core.StationChannel, error) {
	res, err := c.fetcher.Fetch(ctx, c.cfg.StationListURL)
	if err != nil {
		return nil, fmt.Errorf("fetching station list: %w", err)
	}
	stations, err := schedule.ParseStations(bytes.NewReader(res.Body), logging.WithContext(ctx, c.logger))
	if err != nil {
		return nil, err
	}
	return FilterStations(stations, c.cfg.StationFilter), nil
}

// Plan queues one request per station per day, skipping ids that are not
// URL-safe.
func (c *Crawler) Plan(stations []core.StationChannel, from time.Time, days int) *Queue {
	q := NewQueue()
	dates := Dates(from, days)
	for _, st := range stations {
		if !ValidStationID(st.ID) {
			c.logger.Warn().Str(logging.FieldStationID, st.ID).Msg("skipping station with unusable id")
			continue
		}
		for _, d := range dates {
			q.Add(Request{Station: st, Date: d, URL: ScheduleURL(c.cfg.ScheduleURLTemplate, d, st.ID)})
		}
	}
	return q
}

// Programs fetches every station's schedule for days days starting at from.
func (c *Crawler) Programs(ctx context.Context, stations []core.StationChannel, from time.Time, days int, progress Progress) ([]core.ProgramRecord, error) {
	return c.Collect(ctx, c.Plan(stations, from, days), progress)
}

// Collect drains q concurrently. A schedule that fails to fetch or parse is
// logged and skipped; so is every entry the builder rejects. The result is
// ordered by station, start time and id.
func (c *Crawler) Collect(ctx context.Context, q *Queue, progress Progress) ([]core.ProgramRecord, error) {
	if progress == nil {
		progress = nopProgress{}
	}

	var (
		mu  sync.Mutex
		out []core.ProgramRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)
	for q.HasNext() {
		req := q.Next()
		g.Go(func() error {
			progs := c.fetchSchedule(gctx, req)
			mu.Lock()
			out = append(out, progs...)
			mu.Unlock()
			_ = progress.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Station.ID != b.Station.ID {
			return a.Station.ID < b.Station.ID
		}
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (c *Crawler) fetchSchedule(ctx context.Context, req Request) []core.ProgramRecord {
	logger := logging.WithContext(ctx, c.logger).With().
		Str(logging.FieldStationID, req.Station.ID).
		Str(logging.FieldDate, req.Date.Format("2006-01-02")).
		Logger()

	res, err := c.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		metrics.SchedulesFetched.WithLabelValues("fetch_error").Inc()
		logger.Warn().Err(err).Msg("schedule fetch failed")
		return nil
	}
	entries, err := schedule.ParseSchedule(bytes.NewReader(res.Body))
	if err != nil {
		metrics.SchedulesFetched.WithLabelValues("parse_error").Inc()
		logger.Warn().Err(err).Msg("schedule did not parse")
		return nil
	}
	metrics.SchedulesFetched.WithLabelValues("ok").Inc()

	progs := make([]core.ProgramRecord, 0, len(entries))
	for _, e := range entries {
		rec, err := c.builder.Build(e.Fields, req.Station)
		if err != nil {
			metrics.ProgramsSkipped.WithLabelValues(skipReason(err)).Inc()
			logger.Debug().Err(err).Msg("skipping schedule entry")
			continue
		}
		metrics.ProgramsBuilt.Inc()
		progs = append(progs, *rec)
	}
	return progs
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, core.ErrMissingField):
		return "missing_field"
	case errors.Is(err, core.ErrParseFailure):
		return "parse_failure"
	default:
		return "other"
	}
}

// DropStale removes programs that ended more than staleAfter before now.
func DropStale(programs []core.ProgramRecord, now time.Time, staleAfter time.Duration) []core.ProgramRecord {
	out := programs[:0:0]
	for _, p := range programs {
		if IsStale(p, now, staleAfter) {
			metrics.ProgramsSkipped.WithLabelValues("stale").Inc()
			continue
		}
		out = append(out, p)
	}
	return out
}
