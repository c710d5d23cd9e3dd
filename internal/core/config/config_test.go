package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAPIKeys(t *testing.T) {
	const keyA = "aaaaaaaaaaaaaaaaaaaa"
	const keyB = "bbbbbbbbbbbbbbbbbbbb"

	t.Run("none", func(t *testing.T) {
		t.Setenv("TW_API_KEY", "")
		keys, err := APIKeys()
		if err != nil {
			t.Fatalf("APIKeys failed: %v", err)
		}
		if len(keys) != 0 {
			t.Errorf("expected no keys, got %d", len(keys))
		}
	})

	t.Run("comma separated", func(t *testing.T) {
		t.Setenv("TW_API_KEY", keyA+", "+keyB)
		keys, err := APIKeys()
		if err != nil {
			t.Fatalf("APIKeys failed: %v", err)
		}
		if len(keys) != 2 || keys[0] != keyA || keys[1] != keyB {
			t.Errorf("unexpected keys: %v", keys)
		}
	})

	t.Run("numbered rotation keys", func(t *testing.T) {
		t.Setenv("TW_API_KEY", keyA)
		t.Setenv("TW_API_KEY_1", keyB)
		keys, err := APIKeys()
		if err != nil {
			t.Fatalf("APIKeys failed: %v", err)
		}
		if len(keys) != 2 {
			t.Errorf("expected 2 keys, got %d", len(keys))
		}
	})

	t.Run("too short", func(t *testing.T) {
		t.Setenv("TW_API_KEY", "short")
		if _, err := APIKeys(); err == nil {
			t.Error("expected error for short key")
		}
	})

	t.Run("duplicate between single and numbered", func(t *testing.T) {
		t.Setenv("TW_API_KEY", keyA)
		t.Setenv("TW_API_KEY_1", keyA)
		_, err := APIKeys()
		if err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Errorf("expected duplicate error, got %v", err)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
		}
		if cfg.Server.GRPCPort != 50051 {
			t.Errorf("expected grpc_port 50051, got %d", cfg.Server.GRPCPort)
		}
		if cfg.Server.HTTPPort != 8080 {
			t.Errorf("expected http_port 8080, got %d", cfg.Server.HTTPPort)
		}
		if cfg.Server.RequestTimeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.Server.RequestTimeout)
		}
		if cfg.Server.MaxBatchSize != 1000 {
			t.Errorf("expected max_batch_size 1000, got %d", cfg.Server.MaxBatchSize)
		}
		if cfg.Store.Backend != BackendMemory {
			t.Errorf("expected backend memory, got %s", cfg.Store.Backend)
		}
		if cfg.Store.NATSBucket != "tripwire_rules" {
			t.Errorf("expected bucket tripwire_rules, got %s", cfg.Store.NATSBucket)
		}
		if !cfg.Metrics.Enabled {
			t.Error("expected metrics enabled")
		}
		if cfg.Statistics.ReportSchedule != "" {
			t.Errorf("expected reporting disabled, got %q", cfg.Statistics.ReportSchedule)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("TW_SERVER_GRPC_PORT", "9999")
		t.Setenv("TW_SERVER_HOST", "127.0.0.1")
		t.Setenv("TW_STORE_BACKEND", "SQL")
		t.Setenv("TW_STORE_DB_URL", "sqlite:///tmp/rules.db")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.GRPCPort != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Server.GRPCPort)
		}
		if cfg.Server.Host != "127.0.0.1" {
			t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
		}
		if cfg.Store.Backend != BackendSQL {
			t.Errorf("expected backend sql, got %s", cfg.Store.Backend)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("TW_SERVER_HTTP_PORT", "8181")
		path := writeConfig(t, "server:\n  http_port: 9090\n  max_batch_size: 50\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.HTTPPort != 8181 {
			t.Errorf("environment should override config file, got %d", cfg.Server.HTTPPort)
		}
		if cfg.Server.MaxBatchSize != 50 {
			t.Errorf("expected max_batch_size 50 from file, got %d", cfg.Server.MaxBatchSize)
		}
	})

	t.Run("api key in file rejected", func(t *testing.T) {
		path := writeConfig(t, "server:\n  api_key: should_be_rejected\n")
		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("expected error for secret in config file")
		}
		if err.Error() != "API keys not allowed in config files (use TW_API_KEY environment variable)" {
			t.Errorf("wrong error message: %v", err)
		}
	})

	t.Run("api key in environment accepted", func(t *testing.T) {
		t.Setenv("TW_API_KEY", "aaaaaaaaaaaaaaaaaaaa")
		if _, err := LoadConfig(""); err != nil {
			t.Errorf("LoadConfig failed: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"grpc port range", func(c *Config) { c.Server.GRPCPort = 70000 }},
		{"http port zero", func(c *Config) { c.Server.HTTPPort = 0 }},
		{"same ports", func(c *Config) { c.Server.HTTPPort = c.Server.GRPCPort }},
		{"negative timeout", func(c *Config) { c.Server.RequestTimeout = -time.Second }},
		{"zero batch", func(c *Config) { c.Server.MaxBatchSize = 0 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }},
		{"sql without url", func(c *Config) { c.Store.Backend = BackendSQL }},
		{"nats without bucket", func(c *Config) { c.Store.Backend = BackendNATS; c.Store.NATSBucket = "" }},
		{"bad schedule", func(c *Config) { c.Statistics.ReportSchedule = "every minute" }},
	}

	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("Validate(default) failed: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Statistics.ReportSchedule = "@every 1m"
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(@every 1m) failed: %v", err)
	}
}
