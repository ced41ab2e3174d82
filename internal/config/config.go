package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// Config is loaded from POS_* environment variables.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":50051"`

	MySQLDSN          string        `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/pos?parseTime=true&timeout=5s&readTimeout=30s&writeTimeout=30s"`
	MySQLMaxOpenConns int           `envconfig:"MYSQL_MAX_OPEN_CONNS" default:"100"`
	MySQLMaxIdleConns int           `envconfig:"MYSQL_MAX_IDLE_CONNS" default:"10"`
	MySQLConnMaxLife  time.Duration `envconfig:"MYSQL_CONN_MAX_LIFETIME" default:"5m"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPoolSize int    `envconfig:"REDIS_POOL_SIZE" default:"100"`

	CartTTL        time.Duration `envconfig:"CART_TTL" default:"30m"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	Locale   string `envconfig:"LOCALE" default:"es-ES"`
	Currency string `envconfig:"CURRENCY" default:"$"`
	TimeZone string `envconfig:"TIME_ZONE" default:"UTC"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	BreakerMaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"30s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("pos", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Language() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func (c *Config) Level() (log.Level, error) {
	return log.ParseLevel(c.LogLevel)
}
