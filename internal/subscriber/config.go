package subscriber

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultRedisAddr    = "127.0.0.1:6379"
	DefaultRedisChannel = "binlog:all"
)

type Config struct {
	Name         string `env:"SUBSCRIBER_NAME"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPass    string `env:"REDIS_PASS"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`
	RedisChannel string `env:"REDIS_CHANNEL"`
	RedisStream  string `env:"REDIS_STREAM"`
	PrettyPrint  bool   `env:"PRETTY_PRINT" envDefault:"false"`

	FilterDBs       []string `env:"FILTER_DBS" envSeparator:","`
	FilterTables    []string `env:"FILTER_TABLES" envSeparator:","`
	FilterIDs       []string `env:"FILTER_IDS" envSeparator:","`
	FilterOps       []string `env:"FILTER_OPS" envSeparator:","`
	FilterFieldsAny []string `env:"FILTER_FIELDS_ANY" envSeparator:","`
	FilterFieldsAll []string `env:"FILTER_FIELDS_ALL" envSeparator:","`
	FilterChangeAny []string `env:"FILTER_CHANGE_ANY" envSeparator:","`
	FilterChangeAll []string `env:"FILTER_CHANGE_ALL" envSeparator:","`

	// Exclude filters (blacklist)
	ExcludeDBs    []string `env:"EXCLUDE_DBS" envSeparator:","`
	ExcludeTables []string `env:"EXCLUDE_TABLES" envSeparator:","`
}

// LoadConfigFromEnv reads the process environment.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.finish()
	return &cfg, nil
}

// LoadConfigFromMap reads only the given variables, typically the merged
// contents of .env files.
func LoadConfigFromMap(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.finish()
	return &cfg, nil
}

func (c *Config) finish() {
	if c.RedisAddr == "" {
		c.RedisAddr = DefaultRedisAddr
	}
	if c.RedisChannel == "" {
		c.RedisChannel = c.RedisStream
	}
	if c.RedisChannel == "" {
		c.RedisChannel = DefaultRedisChannel
	}
}
