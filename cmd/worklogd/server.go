package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/davembu/worklog/internal/absence"
	"github.com/davembu/worklog/internal/api"
	"github.com/davembu/worklog/internal/config"
	"github.com/davembu/worklog/internal/metrics"
	"github.com/davembu/worklog/internal/store"
	"github.com/davembu/worklog/internal/summary"
	"github.com/davembu/worklog/internal/timer"
	"github.com/davembu/worklog/internal/timesheet"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the worklog server",
	Long:  `Start the worklog server with the HTTP API and metrics endpoints.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting worklogd")

	// Initialize store
	st, err := store.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close store")
		}
	}()

	logger.Info().Str("path", cfg.Storage.Path).Msg("Store initialized")

	// Wire the engine services
	resolver := absence.NewResolver(logger)
	aggregator := summary.NewAggregator(st, resolver, logger)
	timerService := timer.NewService(st, aggregator, logger)
	projector := timesheet.NewProjector(st)

	logger.Info().Msg("Engine services initialized")

	// Initialize API server
	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.HTTPPort)
	handlers := api.NewHandlers(st, timerService, aggregator, projector, logger)
	apiServer := api.NewServer(apiAddr, handlers, logger)

	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	logger.Info().
		Str("addr", apiAddr).
		Msg("API server started")

	// Initialize Metrics server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	logger.Info().
		Str("addr", metricsAddr).
		Msg("Metrics server started")

	// Log startup complete
	logger.Info().Msg("worklogd startup complete")
	logger.Info().Msgf("API: http://%s/api/v1", apiAddr)
	logger.Info().Msgf("Metrics: http://%s/metrics", metricsAddr)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	// Stop servers
	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping metrics server")
	}

	logger.Info().Msg("worklogd stopped")

	return nil
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
