package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	applog "fintrack/internal/log"

	"github.com/caarlos0/env/v8"
)

type Config struct {
	// HTTP Server
	Port            string        `env:"PORT" envDefault:"8081"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RateLimit       int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	// Database
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/fintrack.db"`

	// AMQP. An empty URL disables events.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"fintrack"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"ledger_events"`

	// Background processing
	PeriodCheckInterval   time.Duration `env:"PERIOD_CHECK_INTERVAL" envDefault:"1h"`
	RecurringScanInterval time.Duration `env:"RECURRING_SCAN_INTERVAL" envDefault:"24h"`

	// Budget status cache
	StatusCacheTTL  time.Duration `env:"STATUS_CACHE_TTL" envDefault:"30s"`
	StatusCacheSize int           `env:"STATUS_CACHE_SIZE" envDefault:"1024"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PeriodCheckInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("period check interval %v too short: minimum is 1m", c.PeriodCheckInterval))
	}
	if c.RecurringScanInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("recurring scan interval %v too short: minimum is 1m", c.RecurringScanInterval))
	}
	if c.StatusCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("status cache TTL %v cannot be negative", c.StatusCacheTTL))
	}
	if c.StatusCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid status cache size %d: must be at least 1", c.StatusCacheSize))
	}
	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}
	if c.ShutdownTimeout <= 0 {
		errors = append(errors, "shutdown timeout must be positive")
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// EventsEnabled reports whether an AMQP broker is configured.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// LoggerConfig derives the logger settings; call it after Validate.
func (c *Config) LoggerConfig(component string) applog.Config {
	cfg := applog.DefaultConfig()
	cfg.Level, _ = applog.ParseLevel(c.LogLevel)
	cfg.Format = c.LogFormat
	cfg.Component = component
	return cfg
}
