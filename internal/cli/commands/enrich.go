package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// enrichCmd runs the extraction batch
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "run structured extraction over unprocessed reviews",
	Long: `Processes every review that has no enrichment yet. Each review is
extracted in isolation: one failure never aborts the batch, and the
summary reports how many succeeded, failed, and what the calls cost.`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	enrichCmd.SilenceUsage = true
}

func runEnrich(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	stats, err := application.Enrich(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("attempted: %d  succeeded: %d  failed: %d  tokens: %d in / %d out\n",
		stats.Attempted, stats.Succeeded, stats.Failed, stats.InputTokens, stats.OutputTokens)
	return nil
}
