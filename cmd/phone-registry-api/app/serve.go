package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/phone-registry-server/internal/app"
	"github.com/stacklok/phone-registry-server/internal/config"
	"github.com/stacklok/phone-registry-server/internal/telemetry"
	"github.com/stacklok/phone-registry-server/internal/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the phone registry API server",
	Long: `Start the phone registry API server.

The server requires a configuration file (--config) that specifies:
- The PostgreSQL connection
- Twilio provider settings (credentials may come from TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN)
- Sync concurrency and an optional schedule
- The job status store (memory or redis) and telemetry

Without Twilio credentials the server still serves stored data, but the sync
and number search endpoints return an error.`,
	RunE: runServe,
}

const defaultGracefulTimeout = 30 * time.Second

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address"))
	if err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	err = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	if err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration file named by path
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", path,
		"job_store", cfg.Jobs.GetStore(),
		"sync_concurrency", cfg.Sync.GetConcurrency(),
		"sync_schedule", cfg.Sync.Schedule,
		"credentials", cfg.Provider.HasCredentials())
	return cfg, nil
}

// initTelemetry creates the telemetry providers and the app options that wire them
func initTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, []app.RegistryAppOptions, error) {
	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.Version
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	var opts []app.RegistryAppOptions
	if tel.TracingEnabled() {
		opts = append(opts, app.WithTracerProvider(tel.TracerProvider()))
	}
	if tel.MetricsEnabled() {
		opts = append(opts, app.WithMeterProvider(tel.MeterProvider()))
	}
	return tel, opts, nil
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Error("Failed to shutdown telemetry", "error", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(viper.GetString("config"))
	if err != nil {
		return err
	}

	tel, telemetryOpts, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(tel)

	address := viper.GetString("address")
	slog.Info("Starting phone registry API server", "address", address)

	opts := append([]app.RegistryAppOptions{
		app.WithConfig(cfg),
		app.WithAddress(address),
	}, telemetryOpts...)

	registryApp, err := app.NewRegistryApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- registryApp.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		registryApp.Close()
		if err != nil {
			return err
		}
		return errors.New("server stopped unexpectedly")
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig.String())
	}

	return registryApp.Stop(defaultGracefulTimeout)
}
