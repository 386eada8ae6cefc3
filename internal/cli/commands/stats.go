package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// statsCmd prints enrichment coverage
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show enrichment coverage for the stored corpus",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.SilenceUsage = true
}

func runStats(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	stats, err := application.Stats(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("total: %d  processed: %d  unprocessed: %d  coverage: %.1f%%\n",
		stats.Total, stats.Processed, stats.Unprocessed, stats.Coverage*100)
	return nil
}
