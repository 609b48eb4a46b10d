// Package worker provides background refresh processing for netzstatus.
package worker

import (
	"os"
	"time"
)

// RefreshConfig holds configuration for the snapshot refresh job.
type RefreshConfig struct {
	// Interval is how often the departure boards are re-polled.
	// Default: 60 seconds.
	Interval time.Duration

	// Timeout bounds a single refresh cycle. Default: 30 seconds.
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
	}
}

// RefreshConfigFromEnv creates a RefreshConfig from environment variables,
// falling back to defaults for anything unset or unparseable.
func RefreshConfigFromEnv() RefreshConfig {
	cfg := DefaultRefreshConfig()

	if v := os.Getenv("WORKER_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Interval = d
		}
	}
	if v := os.Getenv("WORKER_REFRESH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}
