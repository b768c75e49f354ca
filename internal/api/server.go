// Package api provides the REST API server for the phone registry.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/phone-registry-server/internal/api/common"
	v1 "github.com/stacklok/phone-registry-server/internal/api/v1"
	"github.com/stacklok/phone-registry-server/internal/jobs"
	"github.com/stacklok/phone-registry-server/internal/provider"
	"github.com/stacklok/phone-registry-server/internal/service"
	"github.com/stacklok/phone-registry-server/internal/sync/coordinator"
	"github.com/stacklok/phone-registry-server/internal/versions"
)

// ServerOption configures the registry API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares []func(http.Handler) http.Handler
	coordinator coordinator.Coordinator
	provider    provider.Client
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithSyncCoordinator enables the sync trigger endpoints. Without it they
// answer 500 because provider credentials are not configured.
func WithSyncCoordinator(c coordinator.Coordinator) ServerOption {
	return func(cfg *serverConfig) {
		cfg.coordinator = c
	}
}

// WithProvider enables the live number search endpoint
func WithProvider(client provider.Client) ServerOption {
	return func(cfg *serverConfig) {
		cfg.provider = client
	}
}

// NewServer creates and configures the HTTP router with the given services and options
func NewServer(svc service.QueryService, tracker jobs.Tracker, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/", rootHandler)
	r.Mount("/", v1.HealthRouter(svc))

	r.Mount("/api/v1", v1.Router(v1.Dependencies{
		Service:     svc,
		Tracker:     tracker,
		Coordinator: cfg.coordinator,
		Provider:    cfg.provider,
	}))

	return r
}

// rootHandler describes the API
func rootHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, RootResponse{
		Message: "Phone Registry API",
		Version: versions.GetVersionInfo().Version,
		Docs:    "/api/v1",
	}, http.StatusOK)
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
