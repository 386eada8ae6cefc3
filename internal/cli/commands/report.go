package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var reportOutput string

// reportCmd generates the analytics report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "generate the analytics report",
	Long: `Aggregates the current review corpus into the full analytics report:
overall metrics, temporal trends, menu and staff rollups, customer
segmentation, and reputation signals. Writes JSON to stdout or to the
file given with --output.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the report to a file instead of stdout")
	reportCmd.SilenceUsage = true
}

func runReport(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.Report(context.Background())
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if reportOutput == "" {
		fmt.Println(string(encoded))
		return nil
	}
	if err := os.WriteFile(reportOutput, encoded, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("report written to %s\n", reportOutput)
	return nil
}
