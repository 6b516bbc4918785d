package main

import (
	"os"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Find which warehouse holds a file",
	Long: `Look a file name up across all warehouses and show its size, type and
owning warehouse. When several warehouses hold the name, the first one in
server order is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, _, err := getClient()
	if err != nil {
		return err
	}

	info, err := client.Info(cmd.Context(), args[0])
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatInfo(os.Stdout, info)
}
