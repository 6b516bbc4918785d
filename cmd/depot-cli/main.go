package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	warehouse   string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "depot-cli",
	Version: version,
	Short:   "Client for the depot warehouse gateway",
	Long: `depot-cli - Client for the depot warehouse gateway

Every file lives in exactly one warehouse. Each warehouse caps the number
of files it holds, the size of a single file and the content types it
accepts. File names are unique within a warehouse.

Connection settings are resolved from, in increasing precedence:
  - the selected profile in ~/.depot/config.yaml (env: DEPOT_CLIENT_CONFIG)
  - environment variables DEPOT_ENDPOINT and DEPOT_WAREHOUSE
  - the --endpoint and --warehouse flags`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.depot/config.yaml, env: DEPOT_CLIENT_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: DEPOT_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:1337, env: DEPOT_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&warehouse, "warehouse", "w", "", "warehouse name (env: DEPOT_WAREHOUSE)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(storagesCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// getConfigPath returns the profile file path from the flag, the
// environment or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from the profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	// 1. Load the selected profile
	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}
	explicit := name != "" || cfgFile != "" || clientcli.ConfigPathFromEnv() != ""

	if configPath := getConfigPath(); configPath != "" {
		file, err := clientcli.LoadConfigFile(configPath)
		switch {
		case err == nil:
			p, profileErr := file.GetProfile(name)
			if profileErr != nil && (name != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles)) {
				return nil, profileErr
			}
			configs = append(configs, clientcli.ConfigFromProfile(p))
		case explicit:
			// Only error if the user asked for a config file or profile
			return nil, err
		}
	}

	// 2. Load from environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &clientcli.Config{
		Endpoint:  endpoint,
		Warehouse: warehouse,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates a client and returns it with the resolved config.
func getClient() (*clientcli.Client, *clientcli.Config, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, nil, err
	}

	client, err := clientcli.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// requireWarehouse returns the resolved warehouse or an error naming the flag.
func requireWarehouse(cfg *clientcli.Config) (string, error) {
	if cfg.Warehouse == "" {
		return "", fmt.Errorf("%w: use --warehouse, DEPOT_WAREHOUSE or a profile", clientcli.ErrWarehouseRequired)
	}
	return cfg.Warehouse, nil
}

// handleError prints err through the formatter and returns it.
func handleError(w io.Writer, err error) error {
	_ = getFormatter().FormatError(w, err)
	return err
}
