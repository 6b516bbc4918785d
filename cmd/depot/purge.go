package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/depot/config"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every object from the backing storage",
	Long: `Delete every object from the configured backing storage, including
temporary files left by interrupted uploads.

The server does this on every start; this command is for reclaiming
space while the server is stopped.`,
	RunE: runPurge,
}

var purgeYes bool

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if !purgeYes {
		target := cfg.Storage.Path
		if cfg.Storage.Type == "minio" {
			target = cfg.Storage.MinIO.Bucket
		}

		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete every object in %s storage %q", cfg.Storage.Type, target),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
				fmt.Fprintln(cmd.OutOrStdout(), "Purge cancelled.")
				return nil
			}
			return fmt.Errorf("prompt: %w", err)
		}
	}

	ctx := cmd.Context()

	service, cleanup, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	removed, err := service.Purge(ctx)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	slog.Info("purge complete", "objects_removed", removed)
	return nil
}
