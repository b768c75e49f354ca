package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/phone-registry-server/internal/api"
	"github.com/stacklok/phone-registry-server/internal/app/storage"
	"github.com/stacklok/phone-registry-server/internal/config"
	"github.com/stacklok/phone-registry-server/internal/httpclient"
	"github.com/stacklok/phone-registry-server/internal/jobs"
	"github.com/stacklok/phone-registry-server/internal/provider"
	database "github.com/stacklok/phone-registry-server/internal/service/db"
	pkgsync "github.com/stacklok/phone-registry-server/internal/sync"
	"github.com/stacklok/phone-registry-server/internal/sync/coordinator"
	"github.com/stacklok/phone-registry-server/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 60 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 90 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// RegistryAppOptions is a function that configures the registry app builder
type RegistryAppOptions func(*registryAppConfig) error

// registryAppConfig collects the builder inputs
// It supports dependency injection for testing while providing sensible defaults for production
type registryAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory storage.Factory
	providerClient provider.Client
	syncManager    pkgsync.Manager

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

func baseConfig(opts ...RegistryAppOptions) (*registryAppConfig, error) {
	cfg := &registryAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewRegistryApp creates the application from the given options
func NewRegistryApp(
	ctx context.Context,
	opts ...RegistryAppOptions,
) (*RegistryApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	// Create storage factory (single owner of the pool and the job store)
	if cfg.storageFactory == nil {
		var factoryOpts []storage.DatabaseFactoryOption
		if cfg.tracerProvider != nil {
			factoryOpts = append(factoryOpts,
				storage.WithTracer(cfg.tracerProvider.Tracer(database.ServiceTracerName)))
		}
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config, factoryOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded && cfg.storageFactory != nil {
			cfg.storageFactory.Cleanup()
		}
	}()

	components, err := buildComponents(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpServer, err := buildHTTPServer(ctx, cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app, not in defer
	cleanupNeeded = false

	return &RegistryApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		host := parts[0]
		port := parts[1]

		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithProviderClient allows injecting a provider client (for testing).
// It takes precedence over the configured credentials.
func WithProviderClient(c provider.Client) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.providerClient = c
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP, sync and provider metrics
func WithMeterProvider(mp metric.MeterProvider) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP and query spans
func WithTracerProvider(tp trace.TracerProvider) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// buildComponents creates the query service, the job tracker and, when
// provider credentials are available, the sync components
func buildComponents(ctx context.Context, b *registryAppConfig) (*AppComponents, error) {
	slog.Info("Initializing service components")

	svc, err := b.storageFactory.CreateQueryService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create query service: %w", err)
	}

	tracker, err := b.storageFactory.CreateJobTracker(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create job tracker: %w", err)
	}

	client, err := buildProviderClient(b)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider client: %w", err)
	}

	components := &AppComponents{
		QueryService: svc,
		JobTracker:   tracker,
		Provider:     client,
		Storage:      b.storageFactory,
	}

	if client == nil && b.syncManager == nil {
		slog.Warn("Twilio credentials not configured, sync is disabled")
		return components, nil
	}

	components.SyncCoordinator, err = buildSyncComponents(ctx, b, client, tracker)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return components, nil
}

// buildProviderClient creates the provider client, or returns nil when no
// credentials are configured
func buildProviderClient(b *registryAppConfig) (provider.Client, error) {
	if b.providerClient != nil {
		return b.providerClient, nil
	}

	providerCfg := &b.config.Provider
	if !providerCfg.HasCredentials() {
		return nil, nil
	}

	token, err := providerCfg.GetAuthToken()
	if err != nil {
		return nil, err
	}
	accountSID := providerCfg.GetAccountSID()

	httpOpts := []httpclient.Option{
		httpclient.WithBasicAuth(accountSID, token),
		httpclient.WithTimeout(providerCfg.GetTimeout()),
		httpclient.WithMaxRetries(providerCfg.GetMaxRetries()),
		httpclient.WithRateLimit(providerCfg.RequestsPerSecond),
	}

	if b.meterProvider != nil {
		providerMetrics, err := telemetry.NewProviderMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider metrics: %w", err)
		}
		if providerMetrics != nil {
			httpOpts = append(httpOpts, httpclient.WithMetrics(providerMetrics))
			slog.Info("Provider metrics enabled")
		}
	}

	return provider.New(
		httpclient.NewDefaultClient(httpOpts...),
		accountSID,
		provider.WithBaseURL(providerCfg.BaseURL),
		provider.WithNumbersBaseURL(providerCfg.NumbersBaseURL),
	)
}

// buildSyncComponents builds the sync manager and the coordinator
func buildSyncComponents(
	ctx context.Context,
	b *registryAppConfig,
	client provider.Client,
	tracker jobs.Tracker,
) (coordinator.Coordinator, error) {
	slog.Info("Initializing sync components")

	var syncMetrics *telemetry.SyncMetrics
	if b.meterProvider != nil {
		var err error
		syncMetrics, err = telemetry.NewSyncMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		if syncMetrics != nil {
			slog.Info("Sync metrics enabled")
		}
	}

	if b.syncManager == nil {
		syncWriter, err := b.storageFactory.CreateSyncWriter(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync writer: %w", err)
		}

		managerOpts := []pkgsync.Option{
			pkgsync.WithConcurrency(b.config.Sync.GetConcurrency()),
			pkgsync.WithSyncMetrics(syncMetrics),
		}
		if b.tracerProvider != nil {
			managerOpts = append(managerOpts, pkgsync.WithTracer(b.tracerProvider.Tracer(pkgsync.TracerName)))
		}
		b.syncManager = pkgsync.NewManager(client, syncWriter, tracker, managerOpts...)
	}

	coordOpts := []coordinator.Option{
		coordinator.WithSyncMetrics(syncMetrics),
		coordinator.WithSchedule(b.config.Sync.Schedule),
		coordinator.WithRunOnStartup(b.config.Sync.RunOnStartup),
	}

	syncCoordinator := coordinator.New(b.syncManager, tracker, coordOpts...)
	slog.Info("Sync components initialized successfully",
		"concurrency", b.config.Sync.GetConcurrency(),
		"schedule", b.config.Sync.Schedule)

	return syncCoordinator, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *registryAppConfig,
	components *AppComponents,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Tracing and metrics wrap everything else so that rejected requests are
	// still recorded
	var telemetryMiddlewares []func(http.Handler) http.Handler
	if b.tracerProvider != nil {
		telemetryMiddlewares = append(telemetryMiddlewares, telemetry.TracingMiddleware(b.tracerProvider))
		slog.Info("HTTP tracing middleware enabled")
	}
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		telemetryMiddlewares = append(telemetryMiddlewares, metricsMiddleware)
		slog.Info("HTTP metrics middleware enabled")
	}
	middlewares := append(telemetryMiddlewares, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(middlewares...),
	}
	if components.SyncCoordinator != nil {
		serverOpts = append(serverOpts, api.WithSyncCoordinator(components.SyncCoordinator))
	}
	if components.Provider != nil {
		serverOpts = append(serverOpts, api.WithProvider(components.Provider))
	}

	router := api.NewServer(components.QueryService, components.JobTracker, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
