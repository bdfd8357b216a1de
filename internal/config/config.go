package config

import (
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CetLoc is the zone used for human-facing timestamps (UTC+1 fixed).
var CetLoc = time.FixedZone("CET", 3600)

// Config holds every runtime setting. Values come from defaults, then an
// optional YAML file (LEDGER_CONFIG), then the environment.
type Config struct {
	Version string `yaml:"-"`

	// Ledger
	StartingCash  float64 `yaml:"starting_cash"`
	SchemaVersion string  `yaml:"schema_version"` // expected decision batch version
	FillDefaults  bool    `yaml:"fill_defaults"`
	DecisionPath  string  `yaml:"decision_path"` // JSONPath of the batch inside the AI output

	// Storage
	LedgerBackend string `yaml:"ledger_backend"` // file | sqlite
	StateFile     string `yaml:"state_file"`
	JournalFile   string `yaml:"journal_file"`
	DBPath        string `yaml:"db_path"`

	// Brokerage & market data
	Broker            string `yaml:"broker"`       // alpaca | paper
	PriceSource       string `yaml:"price_source"` // alpaca | yahoo
	OrderPollAttempts int    `yaml:"order_poll_attempts"`
	PollIntervalMins  int    `yaml:"poll_interval_mins"`

	// AI
	GeminiAPIKey string `yaml:"-"`
	GeminiModel  string `yaml:"gemini_model"`
	PromptFile   string `yaml:"prompt_file"`

	// Logging
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	MaxLogSizeMB  int64  `yaml:"max_log_size_mb"`
	MaxLogBackups int    `yaml:"max_log_backups"`

	// Notifications
	TelegramBotToken string `yaml:"-"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
}

// secretVars are never printed in clear.
var secretVars = map[string]bool{
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
	"GEMINI_API_KEY":      true,
	"TELEGRAM_BOT_TOKEN":  true,
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StartingCash:      100,
		SchemaVersion:     "1.0",
		FillDefaults:      true,
		DecisionPath:      "$",
		LedgerBackend:     "file",
		StateFile:         "portfolio_state.json",
		JournalFile:       "trade_journal.jsonl",
		DBPath:            "ledger.sqlite",
		Broker:            "paper",
		PriceSource:       "alpaca",
		OrderPollAttempts: 5,
		PollIntervalMins:  60,
		GeminiModel:       "gemini-2.5-flash",
		PromptFile:        "decision_prompt.md",
		LogLevel:          "INFO",
		LogFile:           "ledger.log",
		MaxLogSizeMB:      10,
		MaxLogBackups:     3,
	}
}

// Load builds the configuration: defaults, YAML file, environment.
func Load() (*Config, error) {
	// Load .env variables into the process environment
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	cfg := Default()

	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.StartingCash = getEnvAsFloat64("STARTING_CASH", c.StartingCash)
	c.SchemaVersion = getEnv("DECISION_SCHEMA_VERSION", c.SchemaVersion)
	c.FillDefaults = getEnvAsBool("DECISION_FILL_DEFAULTS", c.FillDefaults)
	c.DecisionPath = getEnv("DECISION_JSON_PATH", c.DecisionPath)

	c.LedgerBackend = getEnv("LEDGER_BACKEND", c.LedgerBackend)
	c.StateFile = getEnv("LEDGER_STATE_FILE", c.StateFile)
	c.JournalFile = getEnv("LEDGER_JOURNAL_FILE", c.JournalFile)
	c.DBPath = getEnv("LEDGER_DB_PATH", c.DBPath)

	c.Broker = getEnv("BROKER", c.Broker)
	c.PriceSource = getEnv("PRICE_SOURCE", c.PriceSource)
	c.OrderPollAttempts = getEnvAsInt("ORDER_POLL_ATTEMPTS", c.OrderPollAttempts)
	c.PollIntervalMins = getEnvAsInt("WATCHER_POLL_INTERVAL", c.PollIntervalMins)

	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.PromptFile = getEnv("PROMPT_FILE", c.PromptFile)

	c.LogLevel = getEnv("WATCHER_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.MaxLogSizeMB = int64(getEnvAsInt("MAX_LOG_SIZE_MB", int(c.MaxLogSizeMB)))
	c.MaxLogBackups = getEnvAsInt("MAX_LOG_BACKUPS", c.MaxLogBackups)

	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", c.TelegramChatID)
}

// Validate rejects settings the ledger cannot run with.
func (c *Config) Validate() error {
	if c.StartingCash <= 0 {
		return fmt.Errorf("starting cash must be positive, got %v", c.StartingCash)
	}
	if c.SchemaVersion == "" {
		return fmt.Errorf("decision schema version is empty")
	}
	switch c.LedgerBackend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown ledger backend %q (want file or sqlite)", c.LedgerBackend)
	}
	switch c.Broker {
	case "alpaca", "paper":
	default:
		return fmt.Errorf("unknown broker %q (want alpaca or paper)", c.Broker)
	}
	switch c.PriceSource {
	case "alpaca", "yahoo":
	default:
		return fmt.Errorf("unknown price source %q (want alpaca or yahoo)", c.PriceSource)
	}
	if c.OrderPollAttempts < 1 {
		return fmt.Errorf("order poll attempts must be at least 1")
	}
	if c.PollIntervalMins < 1 {
		return fmt.Errorf("poll interval must be at least 1 minute")
	}
	return nil
}

// LogEnvFile prints the variables defined in .env, masking secrets.
func LogEnvFile() {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	log.Println("--- .env File Variables ---")
	for _, key := range keys {
		log.Printf("%s=%s", key, mask(key, envMap[key]))
	}
	log.Println("---------------------------")
}

func mask(key, val string) string {
	if !secretVars[key] {
		return val
	}
	// show only the last 4 chars
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}
