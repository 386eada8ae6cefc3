// Package commands defines the reviewpulse CLI surface.
package commands

import (
	"github.com/spf13/cobra"

	"reviewpulse/internal/app"
	"reviewpulse/internal/config"
	"reviewpulse/internal/logging"
)

const version = "0.1.0"

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:     "reviewpulse",
	Short:   "Restaurant review ingestion and analytics pipeline",
	Version: version,
	Long: `Ingests customer reviews from scrape providers, enriches them with
structured insight via an extraction model, and aggregates the corpus
into a multi-dimensional analytics report.`,
	Example: `  # Submit a Google Maps scrape job and poll it to completion
  $ reviewpulse scrape google --track

  # Enrich every unprocessed review
  $ reviewpulse enrich

  # Generate the analytics report
  $ reviewpulse report -o report.json`,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(dedupCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
}

// newApp assembles the application from config and environment.
func newApp() (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}
