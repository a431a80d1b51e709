// Package config loads searchmap.yaml with environment overrides
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Backend kinds
const (
	BackendBleve = "bleve"
	BackendRedis = "redis"
)

// Config represents the searchmap configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Outbox  OutboxConfig  `mapstructure:"outbox"`
	Log     LogConfig     `mapstructure:"log"`
}

// BackendConfig selects and configures the index sink
type BackendConfig struct {
	Kind  string      `mapstructure:"kind"`
	Bleve BleveConfig `mapstructure:"bleve"`
	Redis RedisConfig `mapstructure:"redis"`
}

// BleveConfig configures the embedded engine. An empty path keeps indexes in memory.
type BleveConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig configures the remote sink
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// OutboxConfig configures the change event outbox
type OutboxConfig struct {
	DatabaseURL  string        `mapstructure:"database_url"`
	Table        string        `mapstructure:"table"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.kind", BackendBleve)
	v.SetDefault("backend.bleve.path", "")
	v.SetDefault("backend.redis.addr", "localhost:6379")
	v.SetDefault("backend.redis.password", "")
	v.SetDefault("backend.redis.db", 0)
	v.SetDefault("backend.redis.key_prefix", "searchmap:")
	v.SetDefault("outbox.database_url", "")
	v.SetDefault("outbox.table", "searchmap_outbox")
	v.SetDefault("outbox.poll_interval", time.Second)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.max_attempts", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the configuration. With an empty path, searchmap.yaml (or .yml) is looked
// up in the working directory and defaults apply when it is missing. SEARCHMAP_*
// environment variables override file values, e.g. SEARCHMAP_BACKEND_KIND.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("searchmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SEARCHMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Backend.Kind {
	case BackendBleve:
	case BackendRedis:
		if cfg.Backend.Redis.Addr == "" {
			return fmt.Errorf("backend.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("backend.kind must be %q or %q, got: %q", BackendBleve, BackendRedis, cfg.Backend.Kind)
	}
	if cfg.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.batch_size must be positive, got: %d", cfg.Outbox.BatchSize)
	}
	if cfg.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("outbox.max_attempts must be positive, got: %d", cfg.Outbox.MaxAttempts)
	}
	if cfg.Outbox.PollInterval <= 0 {
		return fmt.Errorf("outbox.poll_interval must be positive, got: %s", cfg.Outbox.PollInterval)
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level is invalid: %w", err)
	}
	return nil
}

// NewLogger builds the logger described by the log section
func (c *Config) NewLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, fmt.Errorf("log.level is invalid: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
