package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reviewpulse/internal/domain"
)

var (
	scrapeDaysLimit int
	scrapeTrack     bool
)

// scrapeCmd submits a provider scrape job
var scrapeCmd = &cobra.Command{
	Use:   "scrape <google|yelp>",
	Short: "submit a review scrape job",
	Long: `Submits an asynchronous scrape job to the provider for the configured
restaurant and registers the returned snapshot for tracking. With
--track the command also polls the snapshot to completion and ingests
the dataset.`,
	Example: `  # Submit a Google Maps job covering the last 30 days
  $ reviewpulse scrape google --days 30

  # Submit a Yelp job and wait for ingestion
  $ reviewpulse scrape yelp --track`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeDaysLimit, "days", 9, "how many days of reviews to request")
	scrapeCmd.Flags().BoolVar(&scrapeTrack, "track", false, "poll the snapshot to completion after submitting")
	scrapeCmd.SilenceUsage = true
}

func runScrape(cmd *cobra.Command, args []string) error {
	source := domain.Source(args[0])
	if source != domain.SourceGoogle && source != domain.SourceYelp {
		return fmt.Errorf("unknown source %q (expected google or yelp)", args[0])
	}

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := context.Background()
	snapshot, err := application.Scrape(ctx, source, scrapeDaysLimit)
	if err != nil {
		return err
	}
	fmt.Printf("submitted snapshot %s (%s)\n", snapshot.ID, snapshot.Source)

	if !scrapeTrack {
		return nil
	}
	summary, err := application.Track(ctx)
	printTrackSummary(summary)
	return err
}
