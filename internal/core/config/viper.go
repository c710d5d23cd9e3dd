package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flags are
// applied by the caller on the returned Config.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.grpc_port", def.Server.GRPCPort)
	v.SetDefault("server.http_port", def.Server.HTTPPort)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("server.max_batch_size", def.Server.MaxBatchSize)
	v.SetDefault("store.backend", def.Store.Backend)
	v.SetDefault("store.db_url", "")
	v.SetDefault("store.nats_url", def.Store.NATSURL)
	v.SetDefault("store.nats_bucket", def.Store.NATSBucket)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("statistics.report_schedule", "")
	v.SetDefault("statistics.reset_after_report", false)

	// Bind environment variables with TW_ prefix
	v.SetEnvPrefix("TW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			GRPCPort:       v.GetInt("server.grpc_port"),
			HTTPPort:       v.GetInt("server.http_port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MaxBatchSize:   v.GetInt("server.max_batch_size"),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(v.GetString("store.backend")),
			DBURL:      v.GetString("store.db_url"),
			NATSURL:    v.GetString("store.nats_url"),
			NATSBucket: v.GetString("store.nats_bucket"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
		},
		Statistics: StatisticsConfig{
			ReportSchedule:   v.GetString("statistics.report_schedule"),
			ResetAfterReport: v.GetBool("statistics.reset_after_report"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks port ranges, positive limits, the backend name and the
// report schedule. Callers that override fields from flags validate again.
func Validate(cfg *Config) error {
	if err := validatePort("grpc_port", cfg.Server.GRPCPort); err != nil {
		return err
	}
	if err := validatePort("http_port", cfg.Server.HTTPPort); err != nil {
		return err
	}
	if cfg.Server.GRPCPort == cfg.Server.HTTPPort {
		return fmt.Errorf("grpc_port and http_port must differ, both are %d", cfg.Server.GRPCPort)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.Server.MaxBatchSize)
	}

	switch cfg.Store.Backend {
	case BackendMemory:
	case BackendSQL:
		if cfg.Store.DBURL == "" {
			return fmt.Errorf("store.db_url required for backend %q", BackendSQL)
		}
	case BackendNATS:
		if cfg.Store.NATSURL == "" || cfg.Store.NATSBucket == "" {
			return fmt.Errorf("store.nats_url and store.nats_bucket required for backend %q", BackendNATS)
		}
	default:
		return fmt.Errorf("store.backend must be one of memory, sql, nats, got %q", cfg.Store.Backend)
	}

	if cfg.Statistics.ReportSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Statistics.ReportSchedule); err != nil {
			return fmt.Errorf("statistics.report_schedule: %w", err)
		}
	}
	return nil
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("api_key") || v.InConfig("server.api_key") {
		return fmt.Errorf("API keys not allowed in config files (use TW_API_KEY environment variable)")
	}
	return nil
}
