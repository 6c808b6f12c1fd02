// Package cmd — trigger command.
// The lightweight variant of run: one day of schedules, no enrichment, and a
// JSON line per newly matched program for an external downloader.
package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/ledger"
	"github.com/gaurav-prasanna/radiopipe/core/logging"
	"github.com/gaurav-prasanna/radiopipe/core/onair"
)

var flagDate string

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Emit download triggers for matched programs of one day",
	Long: `Trigger fetches one station-local day of schedules (yesterday by default),
matches it against the roster and prints one JSON line per finished program
that has not been triggered before. Triggered programs are remembered in the
ledger until their retention runs out.

Examples:
  radiopipe trigger
  radiopipe trigger --date 20240115 | my-downloader`,
	Args: cobra.NoArgs,
	RunE: runTrigger,
}

func init() {
	rootCmd.AddCommand(triggerCmd)
	triggerCmd.Flags().StringVar(&flagDate, "date", "", "Station-local day as YYYYMMDD (default: yesterday)")
}

// triggerLine is what the downloader reads.
type triggerLine struct {
	Artists     []string  `json:"artists"`
	StationID   string    `json:"station_id"`
	ProgramID   uint64    `json:"program_id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"ft"`
	EndTime     time.Time `json:"to"`
	DeepLink    string    `json:"deep_link"`
	TimeFreeURL string    `json:"timefree_url"`
}

// triggerDate resolves --date against now in station-local time.
func triggerDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.In(core.StationZone).AddDate(0, 0, -1), nil
	}
	d, err := time.ParseInLocation("20060102", raw, core.StationZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (want YYYYMMDD): %w", raw, err)
	}
	return d, nil
}

func programKey(p core.ProgramRecord) string {
	return fmt.Sprintf("%s/%d/%d", p.Station.ID, p.ID, p.StartTime.Unix())
}

// groupByProgram collects the artists of each matched program, keeping the
// order in which programs were first matched.
func groupByProgram(matches []core.Match) ([]core.ProgramRecord, map[string][]string) {
	var programs []core.ProgramRecord
	artists := map[string][]string{}
	for _, m := range matches {
		k := programKey(m.Program)
		if _, ok := artists[k]; !ok {
			programs = append(programs, m.Program)
		}
		artists[k] = append(artists[k], m.Artist)
	}
	return programs, artists
}

func runTrigger(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := logging.WithComponent("trigger")
	now := time.Now()

	date, err := triggerDate(flagDate, now)
	if err != nil {
		return err
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
	matchers, _, err := loadMatchers(cfg.Roster.Path)
	if err != nil {
		return err
	}
	led, err := ledger.Open(cfg.Ledger.Dir)
	if err != nil {
		return err
	}
	defer led.Close()

	stations, err := crawler.Stations(ctx)
	if err != nil {
		return fmt.Errorf("listing stations: %w", err)
	}
	programs, err := crawler.Programs(ctx, stations, date, 1, newProgress("schedules", len(stations)))
	if err != nil {
		return err
	}

	matched, artists := groupByProgram(matchers.Load().MatchAll(programs))
	n, err := emitTriggers(cmd.OutOrStdout(), led, matched, artists, now)
	if err != nil {
		return err
	}
	logger.Info().
		Str(logging.FieldDate, date.Format("20060102")).
		Int("programs", len(programs)).
		Int("matched", len(matched)).
		Int("triggered", n).
		Msg("trigger finished")
	return nil
}

// emitTriggers prints each finished, not yet triggered program and records
// it in the ledger. Programs still on air are left for a later run.
func emitTriggers(w io.Writer, led *ledger.Ledger, programs []core.ProgramRecord, artists map[string][]string, now time.Time) (int, error) {
	enc := json.NewEncoder(w)
	n := 0
	for _, p := range programs {
		if !onair.Eligible(p, now) {
			continue
		}
		k := programKey(p)
		fresh, err := led.MarkIfNew(p, artists[k])
		if err != nil {
			return n, err
		}
		if !fresh {
			continue
		}
		line := triggerLine{
			Artists:     artists[k],
			StationID:   p.Station.ID,
			ProgramID:   p.ID,
			Title:       p.Title,
			StartTime:   p.StartTime,
			EndTime:     p.EndTime,
			DeepLink:    p.DeepLink(),
			TimeFreeURL: p.TimeFreeURL(),
		}
		if err := enc.Encode(line); err != nil {
			return n, fmt.Errorf("writing trigger: %w", err)
		}
		n++
	}
	return n, nil
}
