package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/store"
)

var (
	flagArtist  string
	flagLimit   int
	flagSummary bool
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List stored matches",
	Long: `Matches lists what earlier runs stored, newest broadcast first.

Examples:
  radiopipe matches --artist 乃木坂46
  radiopipe matches --summary`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := store.Open(cfg.Store.Path, cfg.Store.Collection)
		if err != nil {
			return err
		}
		defer st.Close()

		if flagSummary {
			counts, err := st.Artists(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), artistTable(counts))
			return nil
		}

		entries, err := st.List(cmd.Context(), store.Query{Artist: flagArtist, Limit: flagLimit})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), matchTable(entries, time.Now()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)
	matchesCmd.Flags().StringVar(&flagArtist, "artist", "", "Only show matches for this artist")
	matchesCmd.Flags().IntVar(&flagLimit, "limit", 50, "Maximum rows (0 for all)")
	matchesCmd.Flags().BoolVar(&flagSummary, "summary", false, "Show per-artist counts instead")
}

func matchTable(entries []store.Entry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		p := e.Program
		rows = append(rows, []string{
			e.Artist,
			p.Station.ID,
			p.StartTime.In(core.StationZone).Format("2006-01-02 15:04"),
			p.Title,
			humanize.RelTime(e.UpdatedAt, now, "ago", "from now"),
		})
	}
	return renderTable([]string{"Artist", "Station", "Start (JST)", "Title", "Stored"}, rows, nil)
}

func artistTable(counts []store.ArtistCount) string {
	rows := make([][]string, 0, len(counts))
	total := 0
	for _, c := range counts {
		rows = append(rows, []string{c.Artist, humanize.Comma(int64(c.Programs))})
		total += c.Programs
	}
	rows = append(rows, []string{"total", strconv.Itoa(total)})
	return renderTable([]string{"Artist", "Programs"}, rows, []columnAlignment{alignLeft, alignRight})
}
