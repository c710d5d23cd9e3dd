package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/solatis/tripwire/internal/core/api"
	"github.com/solatis/tripwire/internal/core/auth"
	"github.com/solatis/tripwire/internal/core/config"
	"github.com/solatis/tripwire/internal/core/report"
	"github.com/solatis/tripwire/internal/core/server"
	"github.com/solatis/tripwire/internal/rules"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC and HTTP rule engine APIs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("grpc-port", 50051, "gRPC server port")
	serveCmd.Flags().Int("http-port", 8080, "HTTP server port")
	serveCmd.Flags().String("backend", config.BackendMemory, "rule store backend (memory, sql, nats)")
	serveCmd.Flags().String("rules", "", "YAML rule file loaded at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("grpc-port") {
		cfg.Server.GRPCPort, _ = cmd.Flags().GetInt("grpc-port")
	}
	if cmd.Flags().Changed("http-port") {
		cfg.Server.HTTPPort, _ = cmd.Flags().GetInt("http-port")
	}
	if cmd.Flags().Changed("backend") {
		cfg.Store.Backend, _ = cmd.Flags().GetString("backend")
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	keys, err := config.APIKeys()
	if err != nil {
		return fmt.Errorf("failed to load API keys: %w", err)
	}
	authenticator := auth.NewAuthenticator(keys)
	if !authenticator.Enabled() {
		logger.Warn().Msg("No API keys configured (TW_API_KEY); authentication disabled")
	}

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []rules.Option{rules.WithLogger(logger)}
	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, rules.WithMetrics(rules.NewMetrics(reg)))
	}
	engine := rules.NewEngine(store, opts...)

	if path, _ := cmd.Flags().GetString("rules"); path != "" {
		defs, err := rules.LoadRuleFile(path)
		if err != nil {
			return err
		}
		ids, err := engine.LoadRules(ctx, defs)
		if err != nil {
			return err
		}
		logger.Info().Int("count", len(ids)).Str("file", path).Msg("Rules loaded")
	}

	service, err := api.NewService(engine, cfg.Server.MaxBatchSize, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg.Server, api.NewGRPCHandler(service), authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}

	routerCfg := api.RouterConfig{
		Auth:           authenticator,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	}
	if reg != nil {
		routerCfg.Gatherer = reg
	}
	httpServer, err := server.NewHTTPServer(cfg.Server, api.NewRouter(service, routerCfg))
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	if cfg.Statistics.ReportSchedule != "" {
		reporter, err := report.NewReporter(engine, cfg.Statistics.ReportSchedule, cfg.Statistics.ResetAfterReport, logger)
		if err != nil {
			return err
		}
		if err := reporter.Start(ctx); err != nil {
			return err
		}
		defer reporter.Stop()
	}

	logger.Info().
		Str("version", Version).
		Str("host", cfg.Server.Host).
		Int("grpc_port", cfg.Server.GRPCPort).
		Int("http_port", cfg.Server.HTTPPort).
		Str("backend", cfg.Store.Backend).
		Msg("Starting Tripwire")

	errChan := make(chan error, 2)
	go func() { errChan <- grpcServer.Start(ctx) }()
	go func() { errChan <- httpServer.Start(ctx) }()

	var runErr error
	select {
	case runErr = <-errChan:
		logger.Error().Err(runErr).Msg("Server stopped unexpectedly")
	case <-ctx.Done():
		logger.Info().Msg("Shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown failed")
	}
	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("gRPC shutdown failed")
	}
	return runErr
}
