package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"community-library/pkg/logger"
)

// Store drivers understood by library.Open.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Store struct {
	Driver    string `envconfig:"STORE_DRIVER" default:"sqlite"`
	Path      string `envconfig:"STORE_PATH" default:"library.db"`
	KeyPrefix string `envconfig:"STORE_KEY_PREFIX" default:"biblio"`
}

type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type Config struct {
	Store      Store
	Redis      Redis
	Log        logger.Log
	LoanPeriod time.Duration `envconfig:"LOAN_PERIOD" default:"336h"`
	// SeedFile is a YAML catalog used when the store is empty.
	SeedFile string `envconfig:"SEED_FILE"`
}

// Option overrides a value after the environment has been read.
type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) { c.Log.LogLevel = level }
}

func WithStore(driver, path string) Option {
	return func(c *Config) {
		if driver != "" {
			c.Store.Driver = driver
		}
		if path != "" {
			c.Store.Path = path
		}
	}
}

func WithSeedFile(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.SeedFile = path
		}
	}
}

// NewConfig reads config from the environment, after loading envFiles (default .env)
// when they exist.
func NewConfig(envFiles []string, ops ...Option) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	for _, op := range ops {
		op(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.LoanPeriod <= 0 {
		return fmt.Errorf("loan period must be positive, got %s", c.LoanPeriod)
	}
	return nil
}
