package crawl

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/logging"
	"github.com/gaurav-prasanna/radiopipe/core/match"
	"github.com/gaurav-prasanna/radiopipe/core/metrics"
)

// CycleConfig controls one full fetch cycle.
type CycleConfig struct {
	DaysBack   int
	Days       int
	StaleAfter time.Duration
	Enrich     bool
}

// Summary describes a finished cycle.
type Summary struct {
	RunID        string       `json:"run_id"`
	StartedAt    time.Time    `json:"started_at"`
	Took         core.Seconds `json:"took_seconds"`
	Stations     int          `json:"stations"`
	Schedules    int          `json:"schedules"`
	Programs     int          `json:"programs"`
	Stale        int          `json:"stale"`
	Matches      int          `json:"matches"`
	SinkFailures int          `json:"sink_failures"`
}

// ProgressFunc creates a progress reporter for a step with total units.
type ProgressFunc func(step string, total int) Progress

// Cycle runs stations → schedules → stale filter → enrichment → match →
// sink.
type Cycle struct {
	crawler  *Crawler
	matchers *match.Holder
	sink     core.Sink
	cfg      CycleConfig
	logger   zerolog.Logger
	now      func() time.Time
	progress ProgressFunc
}

// NewCycle wires a cycle. sink may be nil when matches are only counted.
func NewCycle(crawler *Crawler, matchers *match.Holder, sink core.Sink, cfg CycleConfig, logger zerolog.Logger) *Cycle {
	if cfg.Days <= 0 {
		cfg.Days = 1
	}
	return &Cycle{
		crawler:  crawler,
		matchers: matchers,
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		progress: func(string, int) Progress { return nopProgress{} },
	}
}

// WithProgress sets the progress reporter factory.
func (c *Cycle) WithProgress(fn ProgressFunc) *Cycle {
	if fn != nil {
		c.progress = fn
	}
	return c
}

// WithClock replaces the wall clock, for tests.
func (c *Cycle) WithClock(now func() time.Time) *Cycle {
	c.now = now
	return c
}

// Run executes one cycle. Only failing to get the station list aborts it;
// every later per-item failure is logged and counted.
func (c *Cycle) Run(ctx context.Context) (Summary, error) {
	started := c.now()
	sum := Summary{RunID: logging.NewRunID(), StartedAt: started}
	ctx = logging.ContextWithRunID(ctx, sum.RunID)
	logger := logging.WithContext(ctx, c.logger)
	logger.Info().Msg("cycle started")

	stations, err := c.crawler.Stations(ctx)
	if err != nil {
		return sum, fmt.Errorf("listing stations: %w", err)
	}
	sum.Stations = len(stations)

	from := started.AddDate(0, 0, -c.cfg.DaysBack)
	q := c.crawler.Plan(stations, from, c.cfg.Days)
	sum.Schedules = q.Len()
	programs, err := c.crawler.Collect(ctx, q, c.progress("schedules", q.Len()))
	if err != nil {
		return sum, fmt.Errorf("collecting schedules: %w", err)
	}

	kept := DropStale(programs, started, c.cfg.StaleAfter)
	sum.Stale = len(programs) - len(kept)
	sum.Programs = len(kept)

	if c.cfg.Enrich {
		kept = c.crawler.Enrich(ctx, kept, c.now(), c.progress("on-air", len(kept)))
	}

	matches := c.matchers.Load().MatchAll(kept)
	sum.Matches = len(matches)
	metrics.Matches.Add(float64(len(matches)))

	if c.sink != nil {
		for _, m := range matches {
			if err := c.sink.Put(ctx, m); err != nil {
				sum.SinkFailures++
				metrics.SinkFailures.Inc()
				logger.Warn().Err(err).
					Str(logging.FieldArtist, m.Artist).
					Str(logging.FieldStationID, m.Program.Station.ID).
					Uint64(logging.FieldProgramID, m.Program.ID).
					Msg("sink rejected match")
			}
		}
	}

	took := c.now().Sub(started)
	sum.Took = core.Seconds(took.Truncate(time.Second))
	metrics.CycleDuration.Observe(took.Seconds())
	metrics.LastCycleSuccess.Set(float64(c.now().Unix()))

	logger.Info().
		Int("stations", sum.Stations).
		Int("schedules", sum.Schedules).
		Int("programs", sum.Programs).
		Int("stale", sum.Stale).
		Int("matches", sum.Matches).
		Int("sink_failures", sum.SinkFailures).
		Dur("took", took).
		Msg("cycle finished")
	return sum, nil
}
