// Package cmd — component wiring shared by the commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/radiopipe/config"
	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/fetch"
	"github.com/gaurav-prasanna/radiopipe/core/logging"
	"github.com/gaurav-prasanna/radiopipe/core/markup"
	"github.com/gaurav-prasanna/radiopipe/core/match"
	"github.com/gaurav-prasanna/radiopipe/core/onair"
	"github.com/gaurav-prasanna/radiopipe/core/output"
	"github.com/gaurav-prasanna/radiopipe/core/program"
	"github.com/gaurav-prasanna/radiopipe/core/render"
	"github.com/gaurav-prasanna/radiopipe/core/sink"
	"github.com/gaurav-prasanna/radiopipe/core/store"
	"github.com/gaurav-prasanna/radiopipe/crawl"
)

// newCrawler builds the fetch → parse → build chain from configuration.
func newCrawler(c *config.Config, logger zerolog.Logger) (*crawl.Crawler, error) {
	converter, err := markup.New(c.Markup.Converter, logging.WithComponent("markup"))
	if err != nil {
		return nil, err
	}
	up := c.Upstream
	fetcher := fetch.New(fetch.Options{
		Timeout:         up.Timeout,
		UserAgent:       up.UserAgent,
		RatePerSecond:   up.RatePerSecond,
		Burst:           up.Burst,
		BreakerFailures: up.BreakerFailures,
		BreakerCooldown: up.BreakerCooldown,
	}, logging.WithComponent("fetch"))

	tracks := onair.NewClient(fetcher, up.MusicAPIBase, logging.WithComponent("onair"))
	return crawl.New(fetcher, program.NewBuilder(converter), tracks, crawl.Config{
		StationListURL:      up.StationListURL,
		ScheduleURLTemplate: up.ScheduleURLTemplate,
		MaxConcurrency:      up.MaxConcurrency,
		StationFilter:       c.Schedule.Stations,
	}, logger), nil
}

func cycleConfig(c *config.Config) crawl.CycleConfig {
	return crawl.CycleConfig{
		DaysBack:   c.Schedule.DaysBack,
		Days:       c.Schedule.Days,
		StaleAfter: c.Schedule.StaleAfter,
		Enrich:     c.Schedule.Enrich,
	}
}

func loadMatchers(path string) (*match.Holder, match.Roster, error) {
	roster, err := match.LoadRoster(path)
	if err != nil {
		return nil, match.Roster{}, err
	}
	return match.NewHolder(match.NewMatcher(roster)), roster, nil
}

// selectRenderer creates the Renderer for an output format.
func selectRenderer(format, fontPath string) (core.Renderer, error) {
	switch format {
	case "markdown", "md":
		return render.NewMarkdownRenderer(), nil
	case "json":
		return render.NewJSONRenderer(), nil
	case "pdf":
		return render.NewPDFRenderer(fontPath), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want markdown, json or pdf)", format)
	}
}

// newSink assembles every configured destination behind one core.Sink. The
// returned func releases what newSink opened.
func newSink(ctx context.Context, c *config.Config, st *store.Store) (core.Sink, func(), error) {
	sinks := sink.Multi{st}
	closers := []func(){}
	release := func() {
		for _, fn := range closers {
			fn()
		}
	}

	if c.Redis.Enabled {
		rs, err := sink.NewRedisStream(ctx, sink.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Stream:   c.Redis.Stream,
			MaxLen:   c.Redis.MaxLen,
		})
		if err != nil {
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = rs.Close() })
		sinks = append(sinks, rs)
	}

	if c.Output.Dir != "" {
		renderer, err := selectRenderer(c.Output.Format, c.Output.FontPath)
		if err != nil {
			release()
			return nil, func() {}, err
		}
		w, err := output.New(c.Output.Dir)
		if err != nil {
			release()
			return nil, func() {}, fmt.Errorf("initializing output writer: %w", err)
		}
		sinks = append(sinks, output.NewFileSink(renderer, w, logging.WithComponent("output")))
	}
	return sinks, release, nil
}
