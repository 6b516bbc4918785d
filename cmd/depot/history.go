package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/config"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent upload decisions from the journal",
	Long: `Print the most recent admission decisions recorded in the journal,
newest first. The journal is history only; it is never used to restore
the file index.`,
	RunE: runHistory,
}

var (
	historyLimit     int
	historyWarehouse string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of events to show")
	historyCmd.Flags().StringVarP(&historyWarehouse, "warehouse", "w", "", "only show events for this warehouse")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if historyLimit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", historyLimit)
	}

	ctx := cmd.Context()

	journal, cleanup, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	events, err := journal.List(ctx, depot.EventQuery{Warehouse: historyWarehouse, Limit: historyLimit})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		_, _ = fmt.Fprintln(out, "No events recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "WHEN\tWAREHOUSE\tFILE\tSIZE\tTYPE\tOUTCOME")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(e.CreatedAt),
			e.Warehouse,
			e.FileName,
			humanize.IBytes(uint64(e.Size)),
			e.ContentType,
			e.Outcome,
		)
	}
	return tw.Flush()
}
