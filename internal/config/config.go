package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime settings of the storefront server.
type Config struct {
	AppPort        string
	RequestTimeout time.Duration

	DatabaseDriver       string
	DatabaseDSN          string
	DatabaseMaxOpenConns int

	JWTSecret string
	TokenTTL  time.Duration

	RabbitMQURL      string
	RabbitMQExchange string
	RabbitMQQueue    string

	LogLevel string
	LogFile  string
}

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads the configuration from environment variables, falling back to defaults.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads the configuration through the given viper instance.
// Tests use it to inject values without touching the process environment.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "file:storefront.db?_busy_timeout=5000")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "orders")
	v.SetDefault("RABBITMQ_QUEUE", "order_queue")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:              v.GetString("APP_PORT"),
		RequestTimeout:       v.GetDuration("REQUEST_TIMEOUT"),
		DatabaseDriver:       strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		DatabaseMaxOpenConns: v.GetInt("DATABASE_MAX_OPEN_CONNS"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		TokenTTL:             v.GetDuration("TOKEN_TTL"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		RabbitMQExchange:     v.GetString("RABBITMQ_EXCHANGE"),
		RabbitMQQueue:        v.GetString("RABBITMQ_QUEUE"),
		LogLevel:             strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFile:              v.GetString("LOG_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted safely.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want %q or %q)", c.DatabaseDriver, DriverSQLite, DriverPostgres)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.DatabaseMaxOpenConns <= 0 {
		return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be positive, got %d", c.DatabaseMaxOpenConns)
	}
	return nil
}

// EventsEnabled reports whether a message broker is configured.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}
