// Package config holds the publisher's environment-driven settings.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultRedisChannel = "binlog:all"

	OutputRedis  = "redis"
	OutputStdout = "stdout"
)

type Config struct {
	Addr     string `env:"ADDR"`
	DBUser   string `env:"DB_USER,required,notEmpty"`
	DBPass   string `env:"DB_PASS"`
	DBHost   string `env:"DB_HOST,required,notEmpty"`
	DBPort   string `env:"DB_PORT" envDefault:"3306"`
	DBName   string `env:"DB_NAME,required,notEmpty"`
	ServerID uint32 `env:"SERVER_ID" envDefault:"100"`

	Output       string `env:"OUTPUT" envDefault:"redis"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPass    string `env:"REDIS_PASS"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`
	RedisChannel string `env:"REDIS_CHANNEL"`
	RedisStream  string `env:"REDIS_STREAM"`
	LogFile      string `env:"MESSAGE_LOG_FILE"`

	ReconnectDelay  time.Duration `env:"RECONNECT_DELAY" envDefault:"5s"`
	IncludeBefore   bool          `env:"INCLUDE_BEFORE" envDefault:"false"`
	StopOnSinkError bool          `env:"STOP_ON_SINK_ERROR" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg.finish()
}

// LoadFromMap parses cfg from env only, ignoring the process environment.
func LoadFromMap(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg.finish()
}

func (c Config) finish() (*Config, error) {
	if c.Addr == "" {
		c.Addr = fmt.Sprintf("%s:%s", c.DBHost, c.DBPort)
	}
	if c.RedisChannel == "" {
		c.RedisChannel = c.RedisStream
	}
	if c.RedisChannel == "" {
		c.RedisChannel = DefaultRedisChannel
	}
	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
	switch c.Output {
	case OutputRedis, OutputStdout:
	default:
		return nil, fmt.Errorf("invalid OUTPUT %q", c.Output)
	}
	if _, _, err := SplitHostPort(c.Addr); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// SplitHostPort parses host:port, defaulting the port to 3306.
func SplitHostPort(addr string) (string, uint16, error) {
	parts := strings.Split(addr, ":")
	if len(parts) == 1 {
		return addr, 3306, nil
	}
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("address %q must have <host>:<port> shape", addr)
	}
	p, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return parts[0], uint16(p), nil
}
