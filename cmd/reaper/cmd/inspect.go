package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var inspectJSON bool

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Classify jobs without purging anything",
	Long: `Run the enumeration and classification phases only. Nothing is deleted;
the full disposition table is printed so an operator can preview what a live
cycle would reclaim.`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "emit the cycle report as JSON")
}

func runInspect(cmd *cobra.Command, args []string) error {
	// Inspection is a dry-run cycle: identical classification, no deletes.
	coordinator, store, err := buildCoordinator(true)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	report, err := coordinator.Run(context.Background())
	if err != nil {
		return err
	}

	if inspectJSON {
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	printCycleSummary(report)
	return nil
}
