package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, OutputFormatText, cfg.OutputFormat)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "playerlink", cfg.Database.Database)
	assert.Equal(t, 90, cfg.Resolver.Thresholds.FuzzyHigh)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLAYERLINK_CONFIG_DIR", dir)

	content := `
output_format: json
database:
  host: db.internal
  port: 5433
  database: identities
  user: resolver
  sslmode: require
resolver:
  thresholds:
    fuzzy_high: 92
    fuzzy_medium: 88
    margin: 3
cache:
  enabled: true
  addr: localhost:6379
  ttl: 30m
overrides_path: /etc/playerlink/overrides.yaml
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, OutputFormatJSON, cfg.OutputFormat)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "identities", cfg.Database.Database)
	assert.Equal(t, 92, cfg.Resolver.Thresholds.FuzzyHigh)
	assert.Equal(t, 88, cfg.Resolver.Thresholds.FuzzyMedium)
	assert.Equal(t, 3, cfg.Resolver.Thresholds.Margin)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.Equal(t, "/etc/playerlink/overrides.yaml", cfg.OverridesPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLAYERLINK_CONFIG_DIR", dir)

	content := "database:\n  host: from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0o600))

	t.Setenv("PLAYERLINK_DB_HOST", "from-env")
	t.Setenv("PLAYERLINK_OUTPUT_FORMAT", "yaml")
	t.Setenv("PLAYERLINK_DEBUG", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, OutputFormatYAML, cfg.OutputFormat)
	assert.True(t, cfg.Debug)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PLAYERLINK_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Database, cfg.Database)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputFormat = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Cache.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Resolver.Thresholds.FuzzyMedium = 200
	assert.Error(t, cfg.Validate())
}

func TestOutputFormat_IsValid(t *testing.T) {
	assert.True(t, OutputFormatText.IsValid())
	assert.True(t, OutputFormatJSON.IsValid())
	assert.True(t, OutputFormatYAML.IsValid())
	assert.False(t, OutputFormat("xml").IsValid())
}

func TestSaveAndReloadConfig(t *testing.T) {
	t.Setenv("PLAYERLINK_CONFIG_DIR", t.TempDir())

	cfg := DefaultConfig()
	cfg.OutputFormat = OutputFormatJSON
	cfg.Database.Host = "saved-host"
	require.NoError(t, SaveConfig(cfg))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, OutputFormatJSON, loaded.OutputFormat)
	assert.Equal(t, "saved-host", loaded.Database.Host)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/overrides.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "overrides.yaml"), expanded)

	same, err := ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", same)

	empty, err := ExpandPath("")
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}
