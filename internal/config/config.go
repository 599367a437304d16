package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// State store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Reminder notifiers
const (
	NotifierLog   = "log"
	NotifierQueue = "queue"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	FrontendURL     string
	EnableHSTS      bool
	ServerDebugMode bool
	WorkerDebugMode bool
	LogFormat       string

	StateStore  string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	RabbitMQURL      string
	RabbitMQPrefetch int

	RateLimit string

	ChatStrategy     string
	AIProvider       string
	OpenAIKey        string
	GeminiKey        string
	AIModel          string
	AIBaseURL        string
	AITimeout        time.Duration
	ChatHistoryTurns int

	SessionSecret       string
	EphemeralSecret     bool
	SessionTTL          time.Duration
	NotificationDisplay int
	SeedDemoData        bool
	Timezone            string

	ReminderPollInterval time.Duration
	ReminderNotifier     string

	OTELEnabled  bool
	OTELEndpoint string
}

var defaults = map[string]any{
	"SERVER_PORT":                 "8080",
	"FRONTEND_URL":                "http://localhost:3000",
	"ENABLE_HSTS":                 false,
	"SERVER_DEBUG_MODE":           false,
	"WORKER_DEBUG_MODE":           false,
	"LOG_FORMAT":                  "json",
	"STATE_STORE":                 StoreMemory,
	"DATABASE_URL":                "",
	"SQLITE_PATH":                 "dashboard.db",
	"REDIS_URL":                   "",
	"RABBITMQ_URL":                "",
	"RABBITMQ_PREFETCH":           1,
	"RATE_LIMIT":                  "20-S",
	"CHAT_STRATEGY":               "canned",
	"AI_PROVIDER":                 "openai",
	"OPENAI_API_KEY":              "",
	"GEMINI_API_KEY":              "",
	"AI_MODEL":                    "",
	"AI_BASE_URL":                 "",
	"AI_TIMEOUT":                  "15s",
	"CHAT_HISTORY_TURNS":          10,
	"SESSION_SECRET":              "",
	"SESSION_TTL":                 "24h",
	"NOTIFICATION_DISPLAY":        6,
	"SEED_DEMO_DATA":              true,
	"DASHBOARD_TIMEZONE":          "Local",
	"REMINDER_POLL_INTERVAL":      "15s",
	"REMINDER_NOTIFIER":           NotifierLog,
	"OTEL_ENABLED":                false,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
}

// Load loads configuration from a local .env file (if any), an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{
		ServerPort:           v.GetString("SERVER_PORT"),
		FrontendURL:          v.GetString("FRONTEND_URL"),
		EnableHSTS:           v.GetBool("ENABLE_HSTS"),
		ServerDebugMode:      v.GetBool("SERVER_DEBUG_MODE"),
		WorkerDebugMode:      v.GetBool("WORKER_DEBUG_MODE"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		StateStore:           strings.ToLower(v.GetString("STATE_STORE")),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		SQLitePath:           v.GetString("SQLITE_PATH"),
		RedisURL:             v.GetString("REDIS_URL"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		RabbitMQPrefetch:     v.GetInt("RABBITMQ_PREFETCH"),
		RateLimit:            v.GetString("RATE_LIMIT"),
		ChatStrategy:         strings.ToLower(v.GetString("CHAT_STRATEGY")),
		AIProvider:           strings.ToLower(v.GetString("AI_PROVIDER")),
		OpenAIKey:            v.GetString("OPENAI_API_KEY"),
		GeminiKey:            v.GetString("GEMINI_API_KEY"),
		AIModel:              v.GetString("AI_MODEL"),
		AIBaseURL:            v.GetString("AI_BASE_URL"),
		AITimeout:            v.GetDuration("AI_TIMEOUT"),
		ChatHistoryTurns:     v.GetInt("CHAT_HISTORY_TURNS"),
		SessionSecret:        v.GetString("SESSION_SECRET"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		NotificationDisplay:  v.GetInt("NOTIFICATION_DISPLAY"),
		SeedDemoData:         v.GetBool("SEED_DEMO_DATA"),
		Timezone:             v.GetString("DASHBOARD_TIMEZONE"),
		ReminderPollInterval: v.GetDuration("REMINDER_POLL_INTERVAL"),
		ReminderNotifier:     strings.ToLower(v.GetString("REMINDER_NOTIFIER")),
		OTELEnabled:          v.GetBool("OTEL_ENABLED"),
		OTELEndpoint:         v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
		cfg.EphemeralSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects inconsistent combinations of settings.
func (c *Config) Validate() error {
	switch c.StateStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STATE_STORE=postgres")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STATE_STORE=sqlite")
		}
	default:
		return fmt.Errorf("invalid STATE_STORE %q (must be memory, postgres or sqlite)", c.StateStore)
	}

	switch c.ChatStrategy {
	case "canned":
	case "llm":
		if c.AIKey() == "" {
			return fmt.Errorf("an API key for AI_PROVIDER=%s is required when CHAT_STRATEGY=llm", c.AIProvider)
		}
	default:
		return fmt.Errorf("invalid CHAT_STRATEGY %q (must be canned or llm)", c.ChatStrategy)
	}

	switch c.ReminderNotifier {
	case NotifierLog:
	case NotifierQueue:
		if c.RabbitMQURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required when REMINDER_NOTIFIER=queue")
		}
	default:
		return fmt.Errorf("invalid REMINDER_NOTIFIER %q (must be log or queue)", c.ReminderNotifier)
	}

	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	if c.ReminderPollInterval <= 0 {
		return fmt.Errorf("REMINDER_POLL_INTERVAL must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.ChatHistoryTurns < 0 {
		return fmt.Errorf("CHAT_HISTORY_TURNS must not be negative")
	}
	if c.NotificationDisplay <= 0 {
		return fmt.Errorf("NOTIFICATION_DISPLAY must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// AIKey returns the API key for the configured provider.
func (c *Config) AIKey() string {
	switch c.AIProvider {
	case "gemini":
		return c.GeminiKey
	default:
		return c.OpenAIKey
	}
}

// Location resolves DASHBOARD_TIMEZONE, which decides what "today" means.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// HasSQLStore reports whether a SQL backend is configured.
func (c *Config) HasSQLStore() bool {
	return c.StateStore == StorePostgres || c.StateStore == StoreSQLite
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
