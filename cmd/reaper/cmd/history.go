package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/compute-reaper/internal/audit"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent purge cycles from the audit store",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of cycles to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("audit.path")
	if path == "" {
		return fmt.Errorf("missing required configuration: audit.path")
	}

	store, err := audit.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	cycles, err := store.RecentCycles(historyLimit)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Cycle", "Started", "Duration", "Mode", "Phase", "Jobs Deleted", "Dirs Removed", "Skipped")

	for _, c := range cycles {
		mode := "live"
		if c.DryRun {
			mode = "dry-run"
		}
		table.Append(
			c.ID,
			c.StartedAt.Format(time.RFC3339),
			c.FinishedAt.Sub(c.StartedAt).Round(time.Millisecond).String(),
			mode,
			c.Phase,
			fmt.Sprintf("%d", c.JobsDeleted),
			fmt.Sprintf("%d", c.DirsRemoved),
			fmt.Sprintf("%d", c.Skipped),
		)
	}
	table.Render()

	return nil
}
