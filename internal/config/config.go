// Package config loads application configuration: built-in defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valeevte/PriceTracker/internal/cache"
	"github.com/valeevte/PriceTracker/internal/database"
	"github.com/valeevte/PriceTracker/internal/extractor"
	"github.com/valeevte/PriceTracker/internal/notify"
	"github.com/valeevte/PriceTracker/internal/scheduler"
	"github.com/valeevte/PriceTracker/internal/tracker"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port       string            `yaml:"port"`
	GinMode    string            `yaml:"gin_mode"`
	LogLevel   string            `yaml:"log_level"`
	DBDriver   string            `yaml:"db_driver"`
	Database   database.DBConfig `yaml:"database"`
	SQLitePath string            `yaml:"sqlite_path"`
	Redis      cache.Config      `yaml:"redis"`
	Mail       notify.MailConfig `yaml:"mail"`
	Tracker    tracker.Config    `yaml:"tracker"`
	Scheduler  scheduler.Config  `yaml:"scheduler"`
	Extractor  extractor.Config  `yaml:"extractor"`
}

func defaults() *Config {
	return &Config{
		Port:       "8080",
		GinMode:    "debug",
		LogLevel:   "info",
		DBDriver:   DriverPostgres,
		SQLitePath: "data/pricetracker.db",
		Tracker: tracker.Config{
			ChunkSize:         10,
			DiscountThreshold: notify.DefaultDiscountThreshold,
		},
		Scheduler: scheduler.Config{
			Interval:    time.Hour,
			MaxDuration: 60 * time.Second,
		},
		Extractor: extractor.Config{
			Timeout: 20 * time.Second,
		},
	}
}

// Load reads configuration. path may be empty; CONFIG_FILE is used then.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("GIN_MODE", &c.GinMode)
	str("LOG_LEVEL", &c.LogLevel)
	str("DB_DRIVER", &c.DBDriver)
	c.Database.ApplyEnv()
	str("SQLITE_PATH", &c.SQLitePath)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("SMTP_HOST", &c.Mail.Host)
	str("SMTP_USERNAME", &c.Mail.Username)
	str("SMTP_PASSWORD", &c.Mail.Password)
	str("MAIL_FROM", &c.Mail.From)
	str("EXTRACTOR_USER_AGENT", &c.Extractor.UserAgent)

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &c.Redis.DB},
		{"SMTP_PORT", &c.Mail.Port},
		{"TRACKER_CHUNK_SIZE", &c.Tracker.ChunkSize},
	}
	for _, e := range ints {
		if v, ok := os.LookupEnv(e.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TRACKER_INTERVAL", &c.Scheduler.Interval},
		{"TRACKER_MAX_DURATION", &c.Scheduler.MaxDuration},
		{"EXTRACTOR_TIMEOUT", &c.Extractor.Timeout},
	}
	for _, e := range durations {
		if v, ok := os.LookupEnv(e.key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = d
		}
	}

	if v, ok := os.LookupEnv("TRACKER_DISCOUNT_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TRACKER_DISCOUNT_THRESHOLD: %w", err)
		}
		c.Tracker.DiscountThreshold = f
	}
	return nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if !c.Database.Complete() {
			return fmt.Errorf("db config incomplete: DB_USER/DB_HOST/DB_PORT/DB_NAME must be set")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must be set for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.Tracker.ChunkSize < 1 {
		return fmt.Errorf("TRACKER_CHUNK_SIZE must be positive, got %d", c.Tracker.ChunkSize)
	}
	if c.Scheduler.Interval < 0 || c.Scheduler.MaxDuration <= 0 {
		return fmt.Errorf("TRACKER_INTERVAL must be >= 0 and TRACKER_MAX_DURATION > 0")
	}
	return nil
}
