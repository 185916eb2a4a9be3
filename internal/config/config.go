// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env            string  `mapstructure:"APP_ENV"`
	StorageDriver  string  `mapstructure:"STORAGE_DRIVER"`
	SQLitePath     string  `mapstructure:"SQLITE_PATH"`
	SnapshotKey    string  `mapstructure:"SNAPSHOT_KEY"`
	RedisURL       string  `mapstructure:"REDIS_URL"`
	LogLevel       string  `mapstructure:"LOG_LEVEL"`
	LogFile        string  `mapstructure:"LOG_FILE"`
	LogMaxSizeMB   int     `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups  int     `mapstructure:"LOG_MAX_BACKUPS"`
	FeatureFlags   string  `mapstructure:"FEATURE_FLAGS"`
	TracingEnabled bool    `mapstructure:"TRACING_ENABLED"`
	TracingRatio   float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
	GraphWidth     float64 `mapstructure:"GRAPH_WIDTH"`
	GraphHeight    float64 `mapstructure:"GRAPH_HEIGHT"`
	GraphFPS       int     `mapstructure:"GRAPH_FPS"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A local .env fills in variables the process environment lacks.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env and defaults are enough to run.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read profile config 'config.%s.yml': %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("STORAGE_DRIVER", DriverSQLite)
	viper.SetDefault("SQLITE_PATH", "kidflix.db")
	viper.SetDefault("SNAPSHOT_KEY", "kidflix:state")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("LOG_MAX_SIZE_MB", 10)
	viper.SetDefault("LOG_MAX_BACKUPS", 3)
	viper.SetDefault("FEATURE_FLAGS", "notification_sound=on,network_explorer=on")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
	viper.SetDefault("GRAPH_WIDTH", 800.0)
	viper.SetDefault("GRAPH_HEIGHT", 600.0)
	viper.SetDefault("GRAPH_FPS", 60)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis driver")
		}
	case DriverMemory:
		if c.Env == "production" || c.Env == "prod" {
			log.Println("WARNING: STORAGE_DRIVER is 'memory' in production. State will not survive a restart.")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.SnapshotKey == "" {
		return errors.New("SNAPSHOT_KEY is required")
	}
	if c.GraphWidth <= 0 || c.GraphHeight <= 0 {
		return errors.New("GRAPH_WIDTH and GRAPH_HEIGHT must be positive")
	}
	if c.GraphFPS <= 0 || c.GraphFPS > 240 {
		return errors.New("GRAPH_FPS must be between 1 and 240")
	}
	if c.TracingRatio < 0 || c.TracingRatio > 1 {
		return errors.New("TRACING_SAMPLER_RATIO must be between 0 and 1")
	}
	return nil
}
