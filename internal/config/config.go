// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RestockThreshold is the quantity below which an item raises an alert.
	RestockThreshold int `koanf:"restock_threshold"`

	// SeedSampleData loads the demo inventory at startup.
	SeedSampleData bool `koanf:"seed_sample_data"`

	// MaxTopK caps GET /top?k.
	MaxTopK int `koanf:"max_top_k"`

	// AlertQueueSize bounds the in-memory alert queue.
	AlertQueueSize int `koanf:"alert_queue_size"`

	// AlertWorkerCount sets the number of alert dispatch workers.
	AlertWorkerCount int `koanf:"alert_worker_count"`

	// RecentAlertLimit is how many delivered alerts GET /alerts remembers.
	RecentAlertLimit int `koanf:"recent_alert_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		RestockThreshold: 10,
		SeedSampleData:   true,
		MaxTopK:          100,
		AlertQueueSize:   1024,
		AlertWorkerCount: 1,
		RecentAlertLimit: 100,
	}
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxTopK < 1:
		return fmt.Errorf("%w: max_top_k must be at least 1, got %d", ErrInvalidConfig, c.MaxTopK)
	case c.AlertQueueSize < 1:
		return fmt.Errorf("%w: alert_queue_size must be at least 1, got %d", ErrInvalidConfig, c.AlertQueueSize)
	case c.AlertWorkerCount < 1:
		return fmt.Errorf("%w: alert_worker_count must be at least 1, got %d", ErrInvalidConfig, c.AlertWorkerCount)
	case c.RecentAlertLimit < 0:
		return fmt.Errorf("%w: recent_alert_limit must not be negative, got %d", ErrInvalidConfig, c.RecentAlertLimit)
	}
	return nil
}
