// Package config provides configuration loading for car-diagnoser.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables prefixed with CARDIAG_ (CARDIAG_SERVER_PORT, ...)
//  2. YAML config file
//  3. Hardcoded defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variable names before mapping.
const EnvPrefix = "CARDIAG_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// Config holds the complete car-diagnoser configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Rules   RulesConfig   `koanf:"rules"`
	Catalog CatalogConfig `koanf:"catalog"`
	Log     LogConfig     `koanf:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RulesConfig selects the knowledge base. An empty Path uses the rules
// embedded in the binary.
type RulesConfig struct {
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"`
}

// CatalogConfig holds vehicle catalog storage and refresh settings.
type CatalogConfig struct {
	DBPath      string        `koanf:"db_path"`
	BaseURL     string        `koanf:"base_url"`
	MaxMakes    int           `koanf:"max_makes"`
	Concurrency int           `koanf:"concurrency"`
	RateLimit   float64       `koanf:"rate_limit"` // requests per second
	Timeout     time.Duration `koanf:"timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            3000,
			ShutdownTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			DBPath:      "cars.db",
			BaseURL:     "https://vpic.nhtsa.dot.gov/api/vehicles",
			MaxMakes:    100,
			Concurrency: 4,
			RateLimit:   5,
			Timeout:     30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path (skipped when empty), applies
// environment overrides and validates the result.
//
// Environment variables map to keys by stripping the prefix, lowercasing and
// splitting on the first underscore:
//
//	CARDIAG_SERVER_PORT      -> server.port
//	CARDIAG_CATALOG_DB_PATH  -> catalog.db_path
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Rules.Watch && c.Rules.Path == "" {
		return errors.New("rules.watch requires rules.path")
	}
	if c.Catalog.DBPath == "" {
		return errors.New("catalog db_path is required")
	}
	if c.Catalog.MaxMakes < 0 {
		return fmt.Errorf("invalid catalog max_makes: %d", c.Catalog.MaxMakes)
	}
	if c.Catalog.Concurrency < 1 {
		return fmt.Errorf("invalid catalog concurrency: %d (must be >= 1)", c.Catalog.Concurrency)
	}
	if c.Catalog.RateLimit <= 0 {
		return errors.New("catalog rate_limit must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (want json or console)", c.Log.Format)
	}
	return nil
}
