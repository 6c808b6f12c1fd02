// Package cmd — watch command.
// Runs the cycle on an interval under a suture supervisor, next to a roster
// watcher and the status server.
package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/gaurav-prasanna/radiopipe/core/logging"
	"github.com/gaurav-prasanna/radiopipe/core/metrics"
	"github.com/gaurav-prasanna/radiopipe/core/store"
	"github.com/gaurav-prasanna/radiopipe/crawl"
	"github.com/gaurav-prasanna/radiopipe/service"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run cycles periodically and serve status over HTTP",
	Long: `Watch runs a cycle immediately and then every watch.interval. The roster
file is reloaded when it changes. A status server exposes /healthz,
/metrics, /api/status and /api/matches on watch.listen.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := logging.WithComponent("watch")

	unlock, err := acquireLock(cfg.Watch.LockFile)
	if err != nil {
		return err
	}
	defer unlock()

	crawler, err := newCrawler(cfg, logging.WithComponent("crawl"))
	if err != nil {
		return err
	}
	matchers, _, err := loadMatchers(cfg.Roster.Path)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Path, cfg.Store.Collection)
	if err != nil {
		return err
	}
	defer st.Close()

	sink, release, err := newSink(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer release()

	tracker := service.NewTracker(time.Now())
	roster := service.NewRosterWatcher(cfg.Roster.Path, matchers, tracker, logging.WithComponent("roster"))
	if err := roster.Reload(); err != nil {
		return err
	}

	cycle := crawl.NewCycle(crawler, matchers, sink, cycleConfig(cfg), logging.WithComponent("cycle"))
	cycles := service.NewCycleService(cycle, cfg.Watch.Interval, tracker, logging.WithComponent("cycle")).
		After(func(ctx context.Context, _ crawl.Summary) {
			n, err := st.PurgeExpired(ctx, time.Now())
			if err != nil {
				logger.Warn().Err(err).Msg("purging expired matches")
			} else if n > 0 {
				logger.Info().Int64("purged", n).Msg("purged expired matches")
			}
			if cfg.Metrics.Textfile != "" {
				if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					logger.Warn().Err(err).Msg("writing metrics textfile")
				}
			}
		})

	sup := suture.New("radiopipe", suture.Spec{EventHook: service.EventHook(logging.WithComponent("supervisor"))})
	sup.Add(cycles)
	sup.Add(roster)
	sup.Add(service.NewHTTPService(cfg.Watch.Listen, service.NewRouter(tracker, st, logging.WithComponent("http"))))

	logger.Info().
		Str("listen", cfg.Watch.Listen).
		Dur("interval", cfg.Watch.Interval).
		Msg("watch started")

	err = sup.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("watch stopped")
		return nil
	}
	return err
}
