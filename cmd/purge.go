package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/radiopipe/core/store"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete stored matches whose retention has run out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := store.Open(cfg.Store.Path, cfg.Store.Collection)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.PurgeExpired(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Purged %d expired matches\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
