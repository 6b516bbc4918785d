package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sagarc03/depot/config"
)

var warehousesCmd = &cobra.Command{
	Use:   "warehouses",
	Short: "Print the effective warehouse policies",
	RunE:  runWarehouses,
}

func init() {
	rootCmd.AddCommand(warehousesCmd)
}

func runWarehouses(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tMAX FILES\tMAX SIZE\tALLOWED TYPES")
	for _, p := range cfg.Warehouses {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			p.Name,
			p.MaxFiles,
			humanize.IBytes(uint64(p.MaxSize)),
			strings.Join(p.AllowedTypes, ", "),
		)
	}
	return tw.Flush()
}
