package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/playerlink/config"
	"github.com/otherjamesbrown/playerlink/credentials"
	"github.com/otherjamesbrown/playerlink/pkg/db"
	"github.com/otherjamesbrown/playerlink/pkg/identity"
	"github.com/otherjamesbrown/playerlink/pkg/identity/resolver"
	"github.com/otherjamesbrown/playerlink/pkg/logging"
)

// getEnvOrDefault returns environment variable value or default.
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// connectToDatabase establishes a database connection.
func connectToDatabase(ctx context.Context, cfg *config.CLIConfig) (*pgxpool.Pool, error) {
	// Build connection string from config or environment
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		host := cfg.Database.Host
		if host == "" {
			host = getEnvOrDefault("DB_HOST", "localhost")
		}
		port := cfg.Database.Port
		if port == 0 {
			port = 5432
		}
		user := cfg.Database.User
		if user == "" {
			user = getEnvOrDefault("DB_USER", "playerlink")
		}
		dbname := cfg.Database.Database
		if dbname == "" {
			dbname = getEnvOrDefault("DB_NAME", "playerlink")
		}
		sslmode := cfg.Database.SSLMode
		if sslmode == "" {
			sslmode = getEnvOrDefault("DB_SSLMODE", "prefer")
		}

		pass, err := databasePassword(cfg)
		if err != nil {
			return nil, err
		}

		if pass != "" {
			connStr = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				host, port, user, pass, dbname, sslmode)
		} else {
			connStr = fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
				host, port, user, dbname, sslmode)
		}
	}

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolCfg.MaxConns = 25
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("testing connection: %w", err)
	}

	if _, err := db.RegisterPoolStats(pool, "cli", nil); err != nil {
		pool.Close()
		return nil, fmt.Errorf("registering pool metrics: %w", err)
	}

	return pool, nil
}

// databasePassword resolves the database password. The keyring-backed
// credential store is consulted only when the config opts in; the
// PLAYERLINK_DB_PASSWORD environment variable always wins.
func databasePassword(cfg *config.CLIConfig) (string, error) {
	if pw := os.Getenv("PLAYERLINK_DB_PASSWORD"); pw != "" {
		return pw, nil
	}
	if !cfg.Database.PasswordFromKeyring {
		return os.Getenv("DB_PASSWORD"), nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return "", fmt.Errorf("opening credential store: %w", err)
	}
	pw, err := store.DatabasePassword()
	if err != nil {
		return "", fmt.Errorf("reading database password: %w", err)
	}
	return pw, nil
}

// newLogger builds the CLI logger from config.
func newLogger(cfg *config.CLIConfig) logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
	} else if cfg.Logging.Level != "" {
		logCfg.Level = logging.Level(cfg.Logging.Level)
	}
	logCfg.JSONFormat = cfg.Logging.Format == "json"
	return logging.NewLogger(logCfg)
}

// newNameCache builds the resolver cache from config. Redis when enabled,
// otherwise a process-local cache.
func newNameCache(cfg *config.CLIConfig) resolver.NameCache {
	if !cfg.Cache.Enabled {
		return resolver.NewMemoryCache()
	}

	password := cfg.Cache.Password
	if password == "" {
		if store, err := credentials.NewStore(); err == nil {
			if pw, err := store.CachePassword(); err == nil {
				password = pw
			}
		}
	}

	return resolver.NewRedisCache(resolver.RedisCacheConfig{
		Addr:     cfg.Cache.Addr,
		Password: password,
		DB:       cfg.Cache.DB,
		TTL:      cfg.Cache.TTL,
	})
}

// newEngine assembles a resolution engine over the given store, loading the
// curated override file if one is configured.
func newEngine(cfg *config.CLIConfig, store identity.Store, log logging.Logger) (*resolver.Engine, error) {
	overrides, err := resolver.LoadOverrides(cfg.OverridesPath)
	if err != nil {
		return nil, fmt.Errorf("loading overrides: %w", err)
	}

	return resolver.NewEngine(cfg.Resolver, store, overrides, newNameCache(cfg), log)
}

// outputJSON outputs data as JSON.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML outputs data as YAML.
func outputYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	return enc.Encode(v)
}

// resolveOutputFormat picks the per-command format flag over the config
// default.
func resolveOutputFormat(cfg *config.CLIConfig, flag string) config.OutputFormat {
	if flag != "" {
		return config.OutputFormat(flag)
	}
	return cfg.OutputFormat
}

// formatDurationMs formats milliseconds as a human-readable duration.
func formatDurationMs(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%.1fm", float64(ms)/60000)
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
