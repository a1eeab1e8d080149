package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/compute-reaper/internal/reaper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one purge cycle",
	Long: `Run one complete purge cycle: enumerate compute-server jobs, classify each
against its session, delete zombie jobs, and sweep orphaned working
directories. Exits non-zero on a fatal error so an external scheduler can
alert on failure.`,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify and log but suppress all deletes")
}

func runCycle(cmd *cobra.Command, args []string) error {
	coordinator, store, err := buildCoordinator(dryRun)
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

	printCycleSummary(report)
	return nil
}

func printCycleSummary(report *reaper.CycleReport) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Job", "Owner", "Session State", "Age (h)", "Disposition", "Reason")

	for _, c := range report.Classifications {
		state := "-"
		if c.HasSession {
			state = string(c.SessionState)
		}
		disposition := string(c.Disposition)
		if c.NeedsReview {
			disposition += " (review)"
		}
		table.Append(c.JobName, c.Owner, state, fmt.Sprintf("%d", c.RuntimeHours), disposition, c.Reason)
	}
	table.Render()

	mode := "deleted"
	if report.DryRun {
		mode = "would delete"
	}
	fmt.Printf("\nCycle %s finished in phase %s: %s %d jobs, removed %d directories, retained %d, skipped %d items\n",
		report.ID, report.Phase, mode, report.JobsDeleted, report.DirsRemoved, report.DirsRetained, len(report.Skipped))

	for _, item := range report.Skipped {
		fmt.Printf("  skipped %s: %s\n", item.JobName, item.Reason)
	}
}
