// Package cmd — run command.
// This is the main command that orchestrates the pipeline:
// stations → schedules → build → stale filter → enrich → match → store/sink/files.
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/radiopipe/core/logging"
	"github.com/gaurav-prasanna/radiopipe/core/metrics"
	"github.com/gaurav-prasanna/radiopipe/core/store"
	"github.com/gaurav-prasanna/radiopipe/crawl"
)

// Flag variables.
var (
	flagFormat    string
	flagOutputDir string
	flagNoEnrich  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full fetch cycle and store the matches",
	Long: `Run fetches the station list and every station's schedule, builds program
records, drops stale ones, fetches on-air track lists for finished programs
and matches everything against the roster. Matches are stored in SQLite,
published to Redis when enabled and rendered to files when an output
directory is set.

Examples:
  radiopipe run
  radiopipe run --output_dir ./sheets --format pdf
  radiopipe run --no-enrich --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&flagFormat, "format", "", "Output format for program sheets: markdown, json or pdf")
	runCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Write a program sheet per match into this directory")
	runCmd.Flags().BoolVar(&flagNoEnrich, "no-enrich", false, "Skip on-air track lookups")
}

func runCycle(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := logging.WithComponent("run")

	if flagFormat != "" {
		if _, err := selectRenderer(flagFormat, ""); err != nil {
			return err
		}
		cfg.Output.Format = flagFormat
	}
	if flagOutputDir != "" {
		cfg.Output.Dir = flagOutputDir
	}

	unlock, err := acquireLock(cfg.Watch.LockFile)
	if err != nil {
		return err
	}
	defer unlock()

	crawler, err := newCrawler(cfg, logging.WithComponent("crawl"))
	if err != nil {
		return err
	}
	matchers, roster, err := loadMatchers(cfg.Roster.Path)
	if err != nil {
		return err
	}
	logger.Info().Int("groups", len(roster.Groups)).Int("members", roster.MemberCount()).Msg("roster loaded")

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

	cc := cycleConfig(cfg)
	if flagNoEnrich {
		cc.Enrich = false
	}
	sum, err := crawl.NewCycle(crawler, matchers, sink, cc, logger).
		WithProgress(newProgress).
		Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("writing metrics textfile")
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Stations", "Schedules", "Programs", "Stale", "Matches", "Sink failures", "Took"},
		[][]string{{
			strconv.Itoa(sum.Stations),
			strconv.Itoa(sum.Schedules),
			strconv.Itoa(sum.Programs),
			strconv.Itoa(sum.Stale),
			strconv.Itoa(sum.Matches),
			strconv.Itoa(sum.SinkFailures),
			sum.Took.Duration().String(),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}
