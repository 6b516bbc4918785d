package main

import (
	"errors"
	"os"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var (
	uploadName        string
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>...",
	Short: "Upload files into a warehouse",
	Long: `Upload files into a warehouse.

The content type is sniffed from each file unless --content-type is given.
The server rejects a file when the warehouse is full, the file is too big,
its type is not accepted or the name is already taken.

Examples:
  depot-cli upload -w audio ./track.mp3
  depot-cli upload -w books ./a.pdf ./b.pdf ./notes.txt
  depot-cli upload -w books --name chapter1.txt --content-type text/plain ./draft`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "stored file name (single file only)")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, cfg, err := getClient()
	if err != nil {
		return err
	}

	target, err := requireWarehouse(cfg)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if uploadName != "" && len(args) > 1 {
		return handleError(os.Stderr, errors.New("--name can only be used with a single file"))
	}

	var results []clientcli.UploadResult
	if len(args) == 1 {
		result, uploadErr := client.Upload(cmd.Context(), clientcli.UploadOptions{
			Warehouse:   target,
			LocalPath:   args[0],
			Name:        uploadName,
			ContentType: uploadContentType,
		})
		if uploadErr != nil {
			result = clientcli.UploadResult{Warehouse: target, LocalPath: args[0], Err: uploadErr}
		}
		results = []clientcli.UploadResult{result}
	} else {
		if uploadContentType != "" {
			return handleError(os.Stderr, errors.New("--content-type can only be used with a single file"))
		}
		results, err = client.UploadFiles(cmd.Context(), target, args)
		if err != nil {
			return handleError(os.Stderr, err)
		}
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	// Check for any errors in results
	for i := range results {
		if results[i].Err != nil {
			return results[i].Err
		}
	}

	return nil
}
