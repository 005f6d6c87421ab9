// Package config loads and validates the shopsync configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	serrors "github.com/benyxel/shopsync/internal/errors"
)

// Config represents the application configuration.
type Config struct {
	// StateDir is the shared per-user directory holding the durable cart
	// and favorites entries. Every client context on the machine points at
	// the same directory.
	StateDir string `yaml:"state_dir"`

	// Currency is the ISO 4217 code used when formatting amounts.
	Currency string `yaml:"currency,omitempty"`

	Catalog   CatalogConfig   `yaml:"catalog"`
	Checkout  CheckoutConfig  `yaml:"checkout"`
	Sync      SyncConfig      `yaml:"sync"`
	Journal   JournalConfig   `yaml:"journal"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CatalogConfig points at the external catalog API.
type CatalogConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// CheckoutConfig points at the external order-submission API.
type CheckoutConfig struct {
	URL     string        `yaml:"url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// SyncConfig tunes the cross-context reconciliation layer.
type SyncConfig struct {
	// Interval is the periodic reconcile backstop. It runs only while the
	// client reports itself visible.
	Interval time.Duration `yaml:"interval,omitempty"`
	// Debounce coalesces bursts of storage change notifications.
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// JournalConfig enables the local mutation journal. Empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// TelemetryConfig enables best-effort cart-change events over NATS.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint. Empty listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env if present; existing process env wins.
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "Loaded environment variables from .env")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content before parsing.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.StateDir == "" {
		c.StateDir = "./shopsync-data"
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.Catalog.Timeout <= 0 {
		c.Catalog.Timeout = 10 * time.Second
	}
	if c.Checkout.Timeout <= 0 {
		c.Checkout.Timeout = 15 * time.Second
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = 30 * time.Second
	}
	if c.Sync.Debounce <= 0 {
		c.Sync.Debounce = 250 * time.Millisecond
	}
	if c.Telemetry.Subject == "" {
		c.Telemetry.Subject = "shopsync.cart.changes"
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return serrors.ConfigInvalid("state_dir", "must not be empty")
	}
	if len(c.Currency) != 3 {
		return serrors.ConfigInvalid("currency", "must be a three-letter ISO 4217 code")
	}
	if c.Sync.Interval < time.Second {
		return serrors.ConfigInvalid("sync.interval", "must be at least one second")
	}
	if c.Telemetry.Enabled && c.Telemetry.NATSURL == "" {
		return serrors.ConfigInvalid("telemetry.nats_url", "required when telemetry is enabled")
	}
	return nil
}
