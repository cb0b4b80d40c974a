package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// RateLimit bounds the OP requests a single connection may issue.
// OpsPerSecond <= 0 disables limiting.
type RateLimit struct {
	OpsPerSecond float64 `yaml:"ops_per_second" toml:"ops_per_second"`
	Burst        int     `yaml:"burst" toml:"burst"`
}

// Config holds the daemon and client configuration.
type Config struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	AdminAddr       string        `yaml:"admin_addr" toml:"admin_addr"` // empty disables the admin listener
	LogLevel        string        `yaml:"log_level" toml:"log_level"`
	LogFormat       string        `yaml:"log_format" toml:"log_format"`
	MaxLineBytes    int           `yaml:"max_line_bytes" toml:"max_line_bytes"`
	RateLimit       RateLimit     `yaml:"rate_limit" toml:"rate_limit"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

const (
	DefaultMaxLineBytes    = 4096
	DefaultShutdownTimeout = 5 * time.Second
)

func Default() Config {
	return Config{
		LogLevel:        "info",
		LogFormat:       "text",
		MaxLineBytes:    DefaultMaxLineBytes,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file on top of Default().
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		_, err = toml.Decode(string(data), &cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg Config) Validate() error {
	var errs []error
	if cfg.MaxLineBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_line_bytes must be positive, got %d", cfg.MaxLineBytes))
	}
	if cfg.RateLimit.OpsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.ops_per_second must not be negative"))
	}
	if cfg.RateLimit.OpsPerSecond > 0 && cfg.RateLimit.Burst <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.burst must be positive when limiting"))
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must not be negative"))
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q is not text or json", cfg.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
