package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the collector service
type Config struct {
	Service  ServiceConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	Task     TaskConfig
	Push     PushConfig
	Kafka    KafkaConfig
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name            string
	Port            string
	ShutdownTimeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// DatabaseConfig holds database configuration.
// Driver is "sqlite" (default, local file) or "postgres".
type DatabaseConfig struct {
	Driver string
	Path   string // sqlite file path
	Host   string
	Port   string
	User   string
	Password string
	DBName string
	SSLMode  string
}

// TelegramConfig holds Telegram MTProto configuration
type TelegramConfig struct {
	APIID      int
	APIHash    string
	SessionDir string
}

// TaskConfig holds task execution configuration
type TaskConfig struct {
	BotSettleDelay  time.Duration // pause between sending a keyword and reading replies
	BotReplyLimit   int           // how many recent bot messages to scan per keyword
	MaxPages        int           // pagination cap when the task config leaves it unset
	DefaultHistoryLimit int
}

// PushConfig holds outbound API push configuration
type PushConfig struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
}

// KafkaConfig holds optional Kafka event stream configuration.
// Empty Brokers disables the producer entirely.
type KafkaConfig struct {
	Brokers       []string
	TopicMessages string
}

// Result is fx.Out struct for providing config dependencies
type Result struct {
	fx.Out

	Config         *Config
	ServiceConfig  *ServiceConfig
	LoggingConfig  *LoggingConfig
	DatabaseConfig *DatabaseConfig
	TelegramConfig *TelegramConfig
	TaskConfig     *TaskConfig
	PushConfig     *PushConfig
	KafkaConfig    *KafkaConfig
}

// Out returns fx-compatible config result
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:         cfg,
		ServiceConfig:  &cfg.Service,
		LoggingConfig:  &cfg.Logging,
		DatabaseConfig: &cfg.Database,
		TelegramConfig: &cfg.Telegram,
		TaskConfig:     &cfg.Task,
		PushConfig:     &cfg.Push,
		KafkaConfig:    &cfg.Kafka,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	apiID, err := strconv.Atoi(getEnv("TELEGRAM_API_ID", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_API_ID: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	settleDelay, err := time.ParseDuration(getEnv("TASK_BOT_SETTLE_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_BOT_SETTLE_DELAY: %w", err)
	}

	replyLimit, err := strconv.Atoi(getEnv("TASK_BOT_REPLY_LIMIT", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_BOT_REPLY_LIMIT: %w", err)
	}

	maxPages, err := strconv.Atoi(getEnv("TASK_MAX_PAGES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_MAX_PAGES: %w", err)
	}

	historyLimit, err := strconv.Atoi(getEnv("TASK_DEFAULT_HISTORY_LIMIT", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_DEFAULT_HISTORY_LIMIT: %w", err)
	}

	pushTimeout, err := time.ParseDuration(getEnv("PUSH_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUSH_TIMEOUT: %w", err)
	}

	retryDelays, err := parseDelays(getEnv("PUSH_RETRY_DELAYS", "1s,3s,5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUSH_RETRY_DELAYS: %w", err)
	}

	brokers := []string{}
	if brokersStr := getEnv("KAFKA_BROKERS", ""); brokersStr != "" {
		brokers = strings.Split(brokersStr, ",")
	}

	cfg := &Config{
		Service: ServiceConfig{
			Name:            getEnv("SERVICE_NAME", "collector-service"),
			Port:            getEnv("SERVICE_PORT", "8085"),
			ShutdownTimeout: shutdownTimeout,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "data/collector.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "collector"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			APIID:      apiID,
			APIHash:    getEnv("TELEGRAM_API_HASH", ""),
			SessionDir: getEnv("TELEGRAM_SESSION_DIR", "data/sessions"),
		},
		Task: TaskConfig{
			BotSettleDelay:      settleDelay,
			BotReplyLimit:       replyLimit,
			MaxPages:            maxPages,
			DefaultHistoryLimit: historyLimit,
		},
		Push: PushConfig{
			Timeout:     pushTimeout,
			MaxRetries:  len(retryDelays),
			RetryDelays: retryDelays,
		},
		Kafka: KafkaConfig{
			Brokers:       brokers,
			TopicMessages: getEnv("KAFKA_TOPIC_MESSAGES", "collector.messages"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 {
		return fmt.Errorf("TELEGRAM_API_ID is required")
	}

	if c.Telegram.APIHash == "" {
		return fmt.Errorf("TELEGRAM_API_HASH is required")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.Database.Driver)
	}

	if len(c.Push.RetryDelays) == 0 {
		return fmt.Errorf("PUSH_RETRY_DELAYS must contain at least one delay")
	}

	return nil
}

// PostgresDSN builds a DSN for the postgres driver
func (c *DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func parseDelays(s string) ([]time.Duration, error) {
	parts := strings.Split(s, ",")
	delays := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		delays = append(delays, d)
	}
	return delays, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
