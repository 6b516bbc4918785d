// Package config provides configuration loading and validation for depot.
//
// The package handles YAML configuration files, environment variables, an
// optional .env file, and CLI flags with automatic merging and validation
// using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (DEPOT_ prefix), including those from .env
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
// # Environment Variables
//
// All config keys map to environment variables with DEPOT_ prefix:
//   - server.port → DEPOT_SERVER_PORT
//   - storage.type → DEPOT_STORAGE_TYPE
//   - journal.dsn → DEPOT_JOURNAL_DSN
//
// The warehouses list can only be set from a configuration file. When it
// is absent the built-in table of depot.DefaultPolicies is used.
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Storage type must be filesystem or minio; minio settings are checked
//     only when selected
//   - Journal type must be none, sqlite or postgres
//   - Warehouse names must be unique, and each policy needs a positive
//     capacity, a positive size limit and at least one allowed type
package config
