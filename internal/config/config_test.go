package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LEDGER_CONFIG", "STARTING_CASH", "DECISION_SCHEMA_VERSION", "DECISION_FILL_DEFAULTS",
		"LEDGER_BACKEND", "BROKER", "PRICE_SOURCE", "WATCHER_LOG_LEVEL", "WATCHER_POLL_INTERVAL",
		"ORDER_POLL_ATTEMPTS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir()) // no .env here

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 60, cfg.PollIntervalMins)
	assert.Equal(t, 100.0, cfg.StartingCash)
	assert.Equal(t, "1.0", cfg.SchemaVersion)
	assert.True(t, cfg.FillDefaults)
	assert.Equal(t, "file", cfg.LedgerBackend)
	assert.Equal(t, "paper", cfg.Broker)
	assert.Equal(t, 5, cfg.OrderPollAttempts)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "ledger.yaml")
	yml := "starting_cash: 250\nledger_backend: sqlite\nbroker: paper\nlog_level: DEBUG\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	t.Setenv("LEDGER_CONFIG", path)
	t.Setenv("WATCHER_LOG_LEVEL", "WARN")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.StartingCash)
	assert.Equal(t, "sqlite", cfg.LedgerBackend)
	assert.Equal(t, "WARN", cfg.LogLevel, "environment wins over the file")
}

func TestLoadConfig_InvalidValueFallsBack(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("STARTING_CASH", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100.0, cfg.StartingCash)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cash", func(c *Config) { c.StartingCash = 0 }},
		{"empty schema version", func(c *Config) { c.SchemaVersion = "" }},
		{"unknown backend", func(c *Config) { c.LedgerBackend = "postgres" }},
		{"unknown broker", func(c *Config) { c.Broker = "ibkr" }},
		{"unknown price source", func(c *Config) { c.PriceSource = "bloomberg" }},
		{"no poll attempts", func(c *Config) { c.OrderPollAttempts = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "***abcd", mask("GEMINI_API_KEY", "secret-abcd"))
	assert.Equal(t, "***", mask("TELEGRAM_BOT_TOKEN", "abc"))
	assert.Equal(t, "plain", mask("BROKER", "plain"))
}
