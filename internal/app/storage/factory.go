// Package storage provides factory functions for creating storage-dependent components.
// It implements the Abstract Factory pattern so that the sync writer, the query
// service and the job tracker are created from one set of storage resources.
package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/phone-registry-server/internal/config"
	"github.com/stacklok/phone-registry-server/internal/jobs"
	"github.com/stacklok/phone-registry-server/internal/service"
	"github.com/stacklok/phone-registry-server/internal/sync/writer"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
//
// The factory encapsulates the creation of:
// - SyncWriter: upserts synced availability and regulation records
// - QueryService: serves the read API
// - Tracker: records sync job status in memory or Redis
//
// It also manages the lifecycle of storage resources (the connection pool
// and the Redis client).
type Factory interface {
	// CreateSyncWriter creates the writer used by the sync pipeline
	CreateSyncWriter(ctx context.Context) (writer.SyncWriter, error)

	// CreateQueryService creates the service behind the read API
	CreateQueryService(ctx context.Context) (service.QueryService, error)

	// CreateJobTracker creates the job status store selected by jobs.store
	CreateJobTracker(ctx context.Context) (jobs.Tracker, error)

	// Cleanup releases any resources held by this factory.
	// Should be called when the application shuts down.
	Cleanup()
}

// NewStorageFactory creates the database-backed storage factory
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return NewDatabaseFactory(ctx, cfg, opts...)
}
