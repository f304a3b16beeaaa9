// Package config handles loading and parsing application configuration.
// It supports two sources for the file path (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Any value in the file can be overridden by the environment variable
// named in its env:"..." tag. A .env file in the working directory, if
// present, is loaded into the environment first.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage drivers understood by the application.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure.
type Config struct {
	// Env selects log format defaults: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	Storage    Storage    `yaml:"storage"`
	Log        Log        `yaml:"log"`
	HTTPServer HTTPServer `yaml:"http_server"`
}

// Storage selects and locates the database.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`

	// Path is the SQLite database file. Used when Driver is "sqlite".
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/users.db"`

	// DSN is the Postgres connection string. Used when Driver is "postgres".
	DSN string `yaml:"dsn" env:"STORAGE_DSN"`

	// BusyTimeout is how long SQLite waits on a locked database.
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"STORAGE_BUSY_TIMEOUT" env-default:"5s"`
}

// Log controls the slog handler.
type Log struct {
	// Level is one of debug, info, warn, error. Empty picks a default for Env.
	Level string `yaml:"level" env:"LOG_LEVEL"`

	// Format is "text" or "json". Empty picks a default for Env.
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr         string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q: want %q or %q", c.Storage.Driver, DriverSQLite, DriverPostgres)
	}
	return nil
}

// MustLoad resolves the config path from CONFIG_PATH or --config, loads
// it, and exits the process on any failure.
func MustLoad() *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}
