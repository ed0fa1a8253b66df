package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/payment-review/constants"
)

// Config holds all application configuration
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Review   ReviewConfig   `yaml:"review"`
	Database DatabaseConfig `yaml:"database"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
}

// ServiceConfig holds the remote document/payment service settings
type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReviewConfig holds orchestrator/controller settings
type ReviewConfig struct {
	Currency   string        `yaml:"currency"`
	JobTimeout time.Duration `yaml:"job_timeout"`
	QueueSize  int           `yaml:"queue_size"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// JournalConfig holds outcome journal settings
type JournalConfig struct {
	Workers int `yaml:"workers"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL: getEnv("PAYMENT_API_URL", "https://pay-api.example.net"),
			Token:   getEnv("PAYMENT_API_TOKEN", ""),
			Timeout: getEnvAsDuration("PAYMENT_API_TIMEOUT", 30*time.Second),
		},
		Review: ReviewConfig{
			Currency:   getEnv("REVIEW_CURRENCY", constants.DefaultCurrency),
			JobTimeout: getEnvAsDuration("REVIEW_JOB_TIMEOUT", 90*time.Second),
			QueueSize:  getEnvAsInt("REVIEW_QUEUE_SIZE", 64),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "file:payment-review.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Journal: JournalConfig{
			Workers: getEnvAsInt("JOURNAL_WORKERS", 2),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// LoadConfigFile loads env configuration and overlays the YAML file at path.
// Keys missing from the file keep their env/default value.
func LoadConfigFile(path string) (*Config, error) {
	cfg := LoadConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// SlogLevel maps the configured level name to a slog.Level (info when unknown).
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Service.BaseURL) == "" {
		return NewAppError("CONFIG_ERROR", "PAYMENT_API_URL is required", ErrInvalidInput)
	}
	if c.Service.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "PAYMENT_API_TIMEOUT must be positive", ErrInvalidInput)
	}
	if verr := CurrencyCode("REVIEW_CURRENCY", c.Review.Currency); verr != nil {
		return NewAppError("CONFIG_ERROR", verr.Error(), ErrInvalidInput)
	}
	if c.Review.QueueSize <= 0 {
		return NewAppError("CONFIG_ERROR", "REVIEW_QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	if c.Journal.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "JOURNAL_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
