package main

import (
	"io"
	"os"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <name> [local-path]",
	Short: "Download a file from a warehouse",
	Long: `Download a file from a warehouse.

Without a local path the file is saved under the name the server reports.

Examples:
  depot-cli download -w audio track.mp3
  depot-cli download -w audio track.mp3 ./backup/track.mp3
  depot-cli download -w books --stdout notes.txt | less`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	name := args[0]

	// Determine local path
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, cfg, err := getClient()
	if err != nil {
		return err
	}

	target, err := requireWarehouse(cfg)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	result, reader, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		Warehouse: target,
		Name:      name,
		LocalPath: localPath,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	// If stdout, write content to stdout
	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return err
		}
		// Don't print metadata when writing to stdout (unless JSON mode)
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
