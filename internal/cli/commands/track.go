package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reviewpulse/internal/tracker"
)

var trackOnce bool

// trackCmd polls outstanding snapshots
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "poll outstanding scrape jobs and ingest finished datasets",
	Long: `Polls every non-terminal snapshot against the provider. Snapshots that
report ready have their dataset downloaded, converted, and appended to
the review store. With --once a single polling pass runs instead of the
full wait-and-repoll loop.`,
	Args: cobra.NoArgs,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().BoolVar(&trackOnce, "once", false, "run a single polling pass")
	trackCmd.SilenceUsage = true
}

func runTrack(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := context.Background()
	var summary tracker.Summary
	if trackOnce {
		summary, err = application.Advance(ctx)
	} else {
		summary, err = application.Track(ctx)
	}
	printTrackSummary(summary)
	return err
}

func printTrackSummary(summary tracker.Summary) {
	fmt.Printf("polled: %d  completed: %d  failed: %d  poll errors: %d  reviews ingested: %d\n",
		summary.Polled, summary.Completed, summary.Failed, summary.PollErrors, summary.ReviewsIngested)
}
