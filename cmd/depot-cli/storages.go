package main

import (
	"os"

	"github.com/spf13/cobra"
)

var storagesCmd = &cobra.Command{
	Use:     "storages",
	Aliases: []string{"ls"},
	Short:   "Show the status of every warehouse",
	Long: `Show the limits, usage and stored file names of every warehouse,
in the order the server reports them.

Examples:
  depot-cli storages
  depot-cli storages --json`,
	Args: cobra.NoArgs,
	RunE: runStorages,
}

func runStorages(cmd *cobra.Command, _ []string) error {
	client, _, err := getClient()
	if err != nil {
		return err
	}

	summary, err := client.Storages(cmd.Context())
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatStorages(os.Stdout, summary)
}
