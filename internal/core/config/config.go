// Package config provides configuration management for Tripwire services.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Store backends accepted by store.backend.
const (
	BackendMemory = "memory"
	BackendSQL    = "sql"
	BackendNATS   = "nats"
)

// MinAPIKeyLength is the shortest accepted API key.
const MinAPIKeyLength = 16

// Config holds configuration for the rule engine service.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Metrics    MetricsConfig
	Statistics StatisticsConfig
}

// ServerConfig configures the gRPC and HTTP listeners.
type ServerConfig struct {
	Host           string
	GRPCPort       int
	HTTPPort       int
	RequestTimeout time.Duration
	MaxBatchSize   int
}

// StoreConfig selects and configures the rule store backend.
type StoreConfig struct {
	Backend    string
	DBURL      string
	NATSURL    string
	NATSBucket string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// StatisticsConfig configures the periodic statistics report.
// An empty ReportSchedule disables reporting.
type StatisticsConfig struct {
	ReportSchedule   string
	ResetAfterReport bool
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			GRPCPort:       50051,
			HTTPPort:       8080,
			RequestTimeout: 30 * time.Second,
			MaxBatchSize:   1000,
		},
		Store: StoreConfig{
			Backend:    BackendMemory,
			NATSURL:    "nats://127.0.0.1:4222",
			NATSBucket: "tripwire_rules",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// APIKeys reads API keys from the environment.
// TW_API_KEY holds one or more comma separated keys; TW_API_KEY_1,
// TW_API_KEY_2, ... add more so old and new keys can overlap during
// rotation. Returns an empty slice when none are set, which disables
// authentication.
func APIKeys() ([]string, error) {
	var keys []string
	seen := make(map[string]string)

	add := func(source, raw string) error {
		for _, key := range strings.Split(raw, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if len(key) < MinAPIKeyLength {
				return fmt.Errorf("%s: api key must be at least %d characters, got %d", source, MinAPIKeyLength, len(key))
			}
			if prev, dup := seen[key]; dup {
				return fmt.Errorf("duplicate api key in %s (already set by %s)", source, prev)
			}
			seen[key] = source
			keys = append(keys, key)
		}
		return nil
	}

	if val := os.Getenv("TW_API_KEY"); val != "" {
		if err := add("TW_API_KEY", val); err != nil {
			return nil, err
		}
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("TW_API_KEY_%d", i)
		val := os.Getenv(name)
		if val == "" {
			break
		}
		if err := add(name, val); err != nil {
			return nil, err
		}
	}

	return keys, nil
}
