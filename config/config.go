package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/database"
	depothttp "github.com/sagarc03/depot/http"
	"github.com/sagarc03/depot/objectstore"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "DEPOT"

// DotEnvFile is loaded into the environment, if present, before variables
// are read. Variables already set are not overridden.
const DotEnvFile = ".env"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for depot.
type Config struct {
	Server     ServerConfig         `mapstructure:"server"`
	Service    ServiceConfig        `mapstructure:"service"`
	Storage    StorageConfig        `mapstructure:"storage"`
	Journal    database.Config      `mapstructure:"journal"`
	CORS       depothttp.CORSConfig `mapstructure:"cors"`
	Log        LogConfig            `mapstructure:"log"`
	Env        string               `mapstructure:"env" validate:"required,oneof=dev prod"`
	Warehouses []depot.Policy       `mapstructure:"warehouses" validate:"required,min=1,unique=Name,dive"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size" validate:"min=0"`
	LegacyFileNames bool          `mapstructure:"legacy_file_names"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	CleanupTimeout time.Duration `mapstructure:"cleanup_timeout" validate:"min=1"`
}

// StorageConfig selects and configures the backing byte store.
type StorageConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=filesystem minio"`
	Path string `mapstructure:"path" validate:"required_if=Type filesystem"`
	// MinIO is validated only when Type is minio.
	MinIO objectstore.Config `mapstructure:"minio" validate:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":         "server.port",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"journal-type": "journal.type",
	"journal-dsn":  "journal.dsn",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 1337)
	v.SetDefault("server.max_upload_size", 128*depot.MiB)
	v.SetDefault("server.legacy_file_names", false)
	v.SetDefault("server.read_timeout", 5*time.Minute)
	v.SetDefault("server.write_timeout", 0) // 0 means no limit, downloads can be long
	v.SetDefault("server.idle_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("service.cleanup_timeout", 30*time.Second)

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", "depot")
	v.SetDefault("storage.minio.region", "us-east-1")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.part_size", objectstore.DefaultPartSize)

	v.SetDefault("journal.type", database.TypeSQLite)
	v.SetDefault("journal.dsn", "depot.db")
	v.SetDefault("journal.tables.events", "depot_events")

	v.SetDefault("cors.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("env", "dev")

	v.SetDefault("warehouses", depot.DefaultPolicies())
}

// newValidator returns a validator with the depot specific tags registered.
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("warehouse_name", func(fl validator.FieldLevel) bool {
		return depot.IsValidWarehouseName(fl.Field().String())
	})
	return validate
}

// Validate checks every section of cfg, including the sections that only
// apply to the selected backends.
func (cfg *Config) Validate() error {
	validate := newValidator()

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Storage.Type == "minio" {
		if err := validate.Struct(&cfg.Storage.MinIO); err != nil {
			return fmt.Errorf("storage.minio: %w", err)
		}
	}

	if cfg.Journal.Type != database.TypeNone {
		if err := cfg.Journal.Tables.Validate(); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	if err := cfg.validateUploadCap(); err != nil {
		return fmt.Errorf("server.max_upload_size: %w", err)
	}

	return nil
}

// multipartHeadroom is the room left in server.max_upload_size for the
// multipart envelope around a file of exactly max_size+1 bytes.
const multipartHeadroom = 64 * depot.KiB

// validateUploadCap rejects a request cap that would cut off a body before
// the warehouse size check sees it, which would turn "too big" into a
// decode failure.
func (cfg *Config) validateUploadCap() error {
	if cfg.Server.MaxUploadSize == 0 {
		return nil
	}
	for _, p := range cfg.Warehouses {
		if need := p.MaxSize + 1 + multipartHeadroom; cfg.Server.MaxUploadSize < need {
			return fmt.Errorf("%d is too small for warehouse %q (max_size %d), need at least %d",
				cfg.Server.MaxUploadSize, p.Name, p.MaxSize, need)
		}
	}
	return nil
}

// loadDotEnv loads path into the process environment. A missing file is
// not an error.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error reading env file", "file", path, "err", err)
	}
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables, including those from .env
	loadDotEnv(DotEnvFile)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
