package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/logging"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List the stations the station list currently offers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		crawler, err := newCrawler(cfg, logging.WithComponent("crawl"))
		if err != nil {
			return err
		}
		stations, err := crawler.Stations(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), stationTable(stations))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stationsCmd)
}

func stationTable(stations []core.StationChannel) string {
	rows := make([][]string, 0, len(stations))
	for _, s := range stations {
		rows = append(rows, []string{s.ID, s.Name, s.AreaID, s.BannerURL})
	}
	return renderTable([]string{"ID", "Name", "Area", "Banner"}, rows, nil)
}
