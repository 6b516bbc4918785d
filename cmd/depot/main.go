package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/depot/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "depot",
	Short:   "File storage gateway with per-warehouse admission policies",
	Long: `Depot accepts file uploads into named warehouses, each with its own
capacity, size limit and allowed content types, and serves them back
over HTTP. Bytes live on the local filesystem or in an S3-compatible
bucket; the file index is held in memory for the life of the process.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable; later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage-type", "", "storage backend: filesystem, minio (default: filesystem, env: DEPOT_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: DEPOT_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("journal-type", "", "journal database: none, sqlite, postgres (default: sqlite, env: DEPOT_JOURNAL_TYPE)")
	rootCmd.PersistentFlags().String("journal-dsn", "", "journal connection string (default: depot.db, env: DEPOT_JOURNAL_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: DEPOT_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
