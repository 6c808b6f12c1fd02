package crawl

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/logging"
	"github.com/gaurav-prasanna/radiopipe/core/metrics"
	"github.com/gaurav-prasanna/radiopipe/core/onair"
)

// Enrich returns a copy of programs in which every program that finished
// before now carries its on-air track list. Lookups that fail leave the
// list empty.
func (c *Crawler) Enrich(ctx context.Context, programs []core.ProgramRecord, now time.Time, progress Progress) []core.ProgramRecord {
	if progress == nil {
		progress = nopProgress{}
	}
	out := make([]core.ProgramRecord, len(programs))
	copy(out, programs)
	if c.tracks == nil {
		return out
	}

	logger := logging.WithContext(ctx, c.logger)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)
	for i := range out {
		if !onair.Eligible(out[i], now) {
			metrics.OnAirLookups.WithLabelValues("not_eligible").Inc()
			_ = progress.Add(1)
			continue
		}
		g.Go(func() error {
			tracks, err := c.tracks.Tracks(gctx, out[i])
			if err != nil {
				metrics.OnAirLookups.WithLabelValues("error").Inc()
				logger.Debug().Err(err).
					Str(logging.FieldStationID, out[i].Station.ID).
					Uint64(logging.FieldProgramID, out[i].ID).
					Msg("on-air lookup failed")
			} else {
				metrics.OnAirLookups.WithLabelValues("ok").Inc()
				out[i].OnAirTracks = tracks
			}
			_ = progress.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
