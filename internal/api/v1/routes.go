// Package v1 provides the REST API handlers for the phone registry.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/phone-registry-server/internal/api/common"
	"github.com/stacklok/phone-registry-server/internal/jobs"
	"github.com/stacklok/phone-registry-server/internal/provider"
	"github.com/stacklok/phone-registry-server/internal/service"
	"github.com/stacklok/phone-registry-server/internal/sync/coordinator"
	"github.com/stacklok/phone-registry-server/internal/versions"
)

// credentialsMessage is returned by endpoints that need the provider when no
// credentials are configured
const credentialsMessage = "Twilio credentials are not configured. " +
	"Set TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN."

// Dependencies are the collaborators of the v1 handlers. Coordinator and
// Provider are nil when provider credentials are not configured.
type Dependencies struct {
	Service     service.QueryService
	Tracker     jobs.Tracker
	Coordinator coordinator.Coordinator
	Provider    provider.Client
}

// Routes defines the routes for the phone registry API with dependency injection
type Routes struct {
	service     service.QueryService
	tracker     jobs.Tracker
	coordinator coordinator.Coordinator
	provider    provider.Client
}

// NewRoutes creates a new Routes instance with the provided dependencies
func NewRoutes(deps Dependencies) *Routes {
	return &Routes{
		service:     deps.Service,
		tracker:     deps.Tracker,
		coordinator: deps.Coordinator,
		provider:    deps.Provider,
	}
}

// Router creates a new router for the v1 API
func Router(deps Dependencies) http.Handler {
	routes := NewRoutes(deps)

	r := chi.NewRouter()

	r.Route("/sync", func(r chi.Router) {
		r.Post("/", routes.triggerSync(jobs.KindNumberTypes))
		r.Post("/regulations", routes.triggerSync(jobs.KindRegulations))
		r.Get("/", routes.listSyncJobs)
		r.Get("/{job_id}", routes.getSyncJob)
	})

	r.Get("/countries", routes.listCountries)
	r.Get("/countries/{country_code}", routes.getCountry)

	r.Get("/regulations/{country_code}", routes.listRegulations)
	r.Get("/regulations/{country_code}/export", routes.exportRegulations)

	r.Post("/numbers/search", routes.searchNumbers)

	return r
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.QueryService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

// readinessHandler reports whether the database is reachable
func readinessHandler(svc service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			common.WriteErrorResponse(w, "Database not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// decodeJSON decodes a request body into out
func decodeJSON(r *http.Request, out any) error {
	defer func() {
		_ = r.Body.Close()
	}()
	return json.NewDecoder(r.Body).Decode(out)
}
