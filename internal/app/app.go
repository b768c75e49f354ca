// Package app provides application lifecycle management for the phone registry server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stacklok/phone-registry-server/internal/config"
	"github.com/stacklok/phone-registry-server/internal/jobs"
)

// ErrProviderNotConfigured is returned when a sync is requested without provider credentials
var ErrProviderNotConfigured = errors.New(
	"twilio credentials are not configured: set TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN")

// RegistryApp encapsulates all components needed to run the phone registry API server
// It provides lifecycle management and graceful shutdown capabilities
type RegistryApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// Start starts the application components (HTTP server and sync coordinator)
// This method blocks until the HTTP server stops or encounters an error
func (app *RegistryApp) Start() error {
	if app.components.SyncCoordinator != nil {
		go func() {
			if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
				slog.Error("Sync coordinator failed", "error", err)
			}
		}()
	} else {
		slog.Warn("Provider credentials not configured, sync endpoints and number search are disabled")
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout
// It stops the sync coordinator, shuts down the HTTP server and releases storage
func (app *RegistryApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests first so no new job can be triggered
	serverErr := app.httpServer.Shutdown(shutdownCtx)

	if app.components.SyncCoordinator != nil {
		if err := app.components.SyncCoordinator.Stop(); err != nil {
			slog.Error("Failed to stop sync coordinator", "error", err)
		}
	}

	app.Close()

	if serverErr != nil {
		return fmt.Errorf("server forced to shutdown: %w", serverErr)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Close cancels the application context and releases storage resources.
// It is safe to call more than once.
func (app *RegistryApp) Close() {
	app.closeOnce.Do(func() {
		if app.cancelFunc != nil {
			app.cancelFunc()
		}
		if app.components.Storage != nil {
			app.components.Storage.Cleanup()
		}
	})
}

// RunSync runs one sync job of the given kind in the foreground and returns
// its final snapshot
func (app *RegistryApp) RunSync(ctx context.Context, kind jobs.Kind) (jobs.SyncJob, error) {
	if app.components.SyncCoordinator == nil {
		return jobs.SyncJob{}, ErrProviderNotConfigured
	}
	return app.components.SyncCoordinator.Run(ctx, kind)
}

// GetConfig returns the application configuration
func (app *RegistryApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *RegistryApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
