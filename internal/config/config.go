// Package config loads ledgerd.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the default config file name written by `ledgerd init`.
const FileName = "ledgerd.yaml"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config represents the top-level ledgerd.yaml configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig governs the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the store backend.
type StorageConfig struct {
	Driver       string `yaml:"driver"`   // memory|postgres
	DataDir      string `yaml:"data_dir"` // memory driver only; empty means no files
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// LedgerConfig holds engine and account-number settings.
type LedgerConfig struct {
	LockTimeout         time.Duration `yaml:"lock_timeout"`
	AccountNumberLength int           `yaml:"account_number_length"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text|json
}

// Default returns a Config with defaults for a new deployment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:       DriverMemory,
			MaxOpenConns: 10,
		},
		Ledger: LedgerConfig{
			LockTimeout:         3 * time.Second,
			AccountNumberLength: 16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a ledgerd.yaml file over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Ledger.LockTimeout <= 0 {
		errs = append(errs, errors.New("ledger.lock_timeout must be positive"))
	}
	if n := c.Ledger.AccountNumberLength; n < 1 || n > 38 {
		errs = append(errs, fmt.Errorf("ledger.account_number_length %d must be between 1 and 38", n))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LEDGERD_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LEDGERD_SERVER_PORT value %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LEDGERD_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("LEDGERD_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("LEDGERD_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("LEDGERD_LOCK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LEDGERD_LOCK_TIMEOUT: %w", err)
		}
		c.Ledger.LockTimeout = d
	}
	if v := os.Getenv("LEDGERD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LEDGERD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}
