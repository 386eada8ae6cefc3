package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// dedupCmd removes duplicate reviews
var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "remove duplicate reviews from the store",
	Long: `Drops records sharing a (source, review id) key, keeping the enriched
copy when one exists and the first-seen copy otherwise.`,
	Args: cobra.NoArgs,
	RunE: runDedup,
}

func init() {
	dedupCmd.SilenceUsage = true
}

func runDedup(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	removed, err := application.Dedup(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("removed %d duplicate reviews\n", removed)
	return nil
}
