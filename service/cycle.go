package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/gaurav-prasanna/radiopipe/crawl"
)

// Runner runs one fetch cycle.
type Runner interface {
	Run(ctx context.Context) (crawl.Summary, error)
}

// CycleService runs a cycle immediately and then once per interval.
// A failed cycle is logged and recorded; the service keeps going.
type CycleService struct {
	runner   Runner
	interval time.Duration
	tracker  *Tracker
	logger   zerolog.Logger
	after    []func(context.Context, crawl.Summary)
}

// NewCycleService creates a CycleService.
func NewCycleService(runner Runner, interval time.Duration, tracker *Tracker, logger zerolog.Logger) *CycleService {
	return &CycleService{runner: runner, interval: interval, tracker: tracker, logger: logger}
}

// After registers fn to run after every successful cycle.
func (s *CycleService) After(fn func(context.Context, crawl.Summary)) *CycleService {
	s.after = append(s.after, fn)
	return s
}

// Serve implements suture.Service.
func (s *CycleService) Serve(ctx context.Context) error {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *CycleService) runOnce(ctx context.Context) {
	s.tracker.Begin()
	sum, err := s.runner.Run(ctx)
	s.tracker.Finish(sum, err)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("cycle failed")
		}
		return
	}
	for _, fn := range s.after {
		fn(ctx, sum)
	}
}

func (s *CycleService) String() string { return "cycle" }

// EventHook logs supervisor events.
func EventHook(logger zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		ev := logger.Warn()
		if e.Type() == suture.EventTypeResume {
			ev = logger.Info()
		}
		ev.Fields(e.Map()).Msg(e.String())
	}
}
