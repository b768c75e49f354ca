package app

import (
	"github.com/stacklok/phone-registry-server/internal/app/storage"
	"github.com/stacklok/phone-registry-server/internal/jobs"
	"github.com/stacklok/phone-registry-server/internal/provider"
	"github.com/stacklok/phone-registry-server/internal/service"
	"github.com/stacklok/phone-registry-server/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator runs sync jobs. Nil when provider credentials are missing.
	SyncCoordinator coordinator.Coordinator

	// QueryService serves the read API
	QueryService service.QueryService

	// JobTracker records sync job status
	JobTracker jobs.Tracker

	// Provider is the telephony provider client. Nil when credentials are missing.
	Provider provider.Client

	// Storage owns the database pool and the job store connection
	Storage storage.Factory
}
