// Package config provides CLI configuration management for the playerlink
// command-line tool. It supports loading configuration from YAML files,
// environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/playerlink/pkg/identity/resolver"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultOutputFormat  = OutputFormatText
	DefaultConfigDir     = ".playerlink"
	DefaultConfigFile    = "config.yaml"
	DefaultMigrationsDir = "migrations"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`

	// SSLMode is the SSL connection mode (disable, require, verify-ca,
	// verify-full).
	SSLMode string `yaml:"sslmode,omitempty"`

	// PasswordFromKeyring reads the password from the system keyring
	// instead of the DB_PASSWORD environment variable.
	PasswordFromKeyring bool `yaml:"password_from_keyring,omitempty"`
}

// CacheConfig holds optional shared name-cache settings.
type CacheConfig struct {
	// Enabled turns the Redis-backed cache on. When false the engine uses
	// a process-local cache.
	Enabled  bool          `yaml:"enabled,omitempty"`
	Addr     string        `yaml:"addr,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"-"`
	Password string        `yaml:"-"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is "console" or "json".
	Format string `yaml:"format,omitempty"`
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Database holds PostgreSQL connection settings.
	Database DatabaseConfig `yaml:"database,omitempty"`

	// Resolver holds resolution-engine thresholds and bonuses.
	Resolver resolver.Config `yaml:"resolver,omitempty"`

	// Cache configures the optional shared name cache.
	Cache CacheConfig `yaml:"cache,omitempty"`

	// OverridesPath points to the curated manual-override YAML file.
	OverridesPath string `yaml:"overrides_path,omitempty"`

	// MigrationsDir is where the SQL migration files live.
	MigrationsDir string `yaml:"migrations_dir,omitempty"`

	// Logging holds log level and format.
	Logging LoggingConfig `yaml:"logging,omitempty"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		OutputFormat: DefaultOutputFormat,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "playerlink",
			User:     "playerlink",
			SSLMode:  "disable",
		},
		Resolver:      resolver.DefaultConfig(),
		MigrationsDir: DefaultMigrationsDir,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $PLAYERLINK_CONFIG_DIR if set, otherwise ~/.playerlink
func ConfigDir() (string, error) {
	if dir := os.Getenv("PLAYERLINK_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.playerlink/config.yaml or $PLAYERLINK_CONFIG_DIR/config.yaml)
// 3. Environment variables (PLAYERLINK_*)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// A temp struct keeps durations as strings in the file.
	type cacheFile struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
		DB      int    `yaml:"db"`
		TTL     string `yaml:"ttl"`
	}
	type configFile struct {
		OutputFormat  OutputFormat    `yaml:"output_format"`
		Database      *DatabaseConfig `yaml:"database"`
		Resolver      *resolver.Config `yaml:"resolver"`
		Cache         *cacheFile      `yaml:"cache"`
		OverridesPath string          `yaml:"overrides_path"`
		MigrationsDir string          `yaml:"migrations_dir"`
		Logging       *LoggingConfig  `yaml:"logging"`
		Debug         bool            `yaml:"debug"`
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.Database != nil {
		overlayDatabase(&cfg.Database, fileCfg.Database)
	}
	if fileCfg.Resolver != nil {
		cfg.Resolver = *fileCfg.Resolver
	}
	if fileCfg.Cache != nil {
		cfg.Cache.Enabled = fileCfg.Cache.Enabled
		cfg.Cache.Addr = fileCfg.Cache.Addr
		cfg.Cache.DB = fileCfg.Cache.DB
		if fileCfg.Cache.TTL != "" {
			ttl, err := time.ParseDuration(fileCfg.Cache.TTL)
			if err != nil {
				return fmt.Errorf("parsing cache ttl: %w", err)
			}
			cfg.Cache.TTL = ttl
		}
	}
	if fileCfg.OverridesPath != "" {
		cfg.OverridesPath = fileCfg.OverridesPath
	}
	if fileCfg.MigrationsDir != "" {
		cfg.MigrationsDir = fileCfg.MigrationsDir
	}
	if fileCfg.Logging != nil {
		if fileCfg.Logging.Level != "" {
			cfg.Logging.Level = fileCfg.Logging.Level
		}
		if fileCfg.Logging.Format != "" {
			cfg.Logging.Format = fileCfg.Logging.Format
		}
	}
	cfg.Debug = fileCfg.Debug

	return nil
}

func overlayDatabase(dst, src *DatabaseConfig) {
	if src.Host != "" {
		dst.Host = src.Host
	}
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.Database != "" {
		dst.Database = src.Database
	}
	if src.User != "" {
		dst.User = src.User
	}
	if src.SSLMode != "" {
		dst.SSLMode = src.SSLMode
	}
	dst.PasswordFromKeyring = src.PasswordFromKeyring
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("PLAYERLINK_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if v := os.Getenv("PLAYERLINK_OVERRIDES_PATH"); v != "" {
		cfg.OverridesPath = v
	}
	if v := os.Getenv("PLAYERLINK_MIGRATIONS_DIR"); v != "" {
		cfg.MigrationsDir = v
	}
	if v := os.Getenv("PLAYERLINK_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	if v := os.Getenv("PLAYERLINK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PLAYERLINK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("PLAYERLINK_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PLAYERLINK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PLAYERLINK_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("PLAYERLINK_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PLAYERLINK_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}

	if v := os.Getenv("PLAYERLINK_CACHE_ADDR"); v != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("PLAYERLINK_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}
	if err := c.Resolver.Validate(); err != nil {
		return fmt.Errorf("resolver: %w", err)
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache enabled but no addr configured")
	}
	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
