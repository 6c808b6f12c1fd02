// Package cmd implements the CLI commands for RadioPipe using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/radiopipe/config"
	"github.com/gaurav-prasanna/radiopipe/core/logging"
)

// Persistent flag variables.
var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "radiopipe",
	Short: "RadioPipe — find radio programs that feature your artists",
	Long: `RadioPipe fetches radio station schedules, turns every program into a
normalized record and reports the programs that mention an artist from
your roster.

Usage:
  radiopipe run                 full cycle: fetch, enrich, match, store
  radiopipe trigger             match yesterday's programs for a downloader
  radiopipe watch               supervised daemon with a status server`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $RADIOPIPE_CONFIG or ./radiopipe.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format override (auto, json, console)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		c.Logging.Level = flagLogLevel
	}
	if cmd.Flags().Changed("log-format") {
		c.Logging.Format = flagLogFormat
	}
	logging.Configure(logging.Config{Level: c.Logging.Level, Format: c.Logging.Format})
	cfg = c
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
