package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/phone-registry-server/internal/config"
	"github.com/stacklok/phone-registry-server/internal/db"
	"github.com/stacklok/phone-registry-server/internal/jobs"
	"github.com/stacklok/phone-registry-server/internal/service"
	database "github.com/stacklok/phone-registry-server/internal/service/db"
	"github.com/stacklok/phone-registry-server/internal/sync/writer"
)

// DatabaseFactory creates database-backed storage components.
// Availability and regulations live in PostgreSQL; job status lives in
// memory or Redis depending on jobs.store.
type DatabaseFactory struct {
	config *config.Config
	pool   *pgxpool.Pool
	tracer trace.Tracer

	mu      sync.Mutex
	redis   *redis.Client
	tracker jobs.Tracker
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption is a functional option for configuring the DatabaseFactory
type DatabaseFactoryOption func(*DatabaseFactory)

// WithTracer sets the OpenTelemetry tracer for the database service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.tracer = tracer
	}
}

// WithPool makes the factory use an existing pool instead of connecting.
// Cleanup still closes it.
func WithPool(pool *pgxpool.Pool) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.pool = pool
	}
}

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	factory := &DatabaseFactory{
		config: cfg,
	}
	for _, opt := range opts {
		opt(factory)
	}

	if factory.pool == nil {
		if cfg.Database == nil {
			return nil, fmt.Errorf("database configuration is required")
		}

		slog.Info("Creating database-backed storage factory")
		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		factory.pool = pool
	}

	return factory, nil
}

// CreateSyncWriter creates a database-backed sync writer
func (d *DatabaseFactory) CreateSyncWriter(_ context.Context) (writer.SyncWriter, error) {
	slog.Debug("Creating database-backed sync writer")
	return writer.NewDBSyncWriter(d.pool)
}

// CreateQueryService creates the database-backed query service
func (d *DatabaseFactory) CreateQueryService(_ context.Context) (service.QueryService, error) {
	slog.Debug("Creating database-backed query service")

	opts := []database.Option{
		database.WithConnectionPool(d.pool),
	}

	if d.tracer != nil {
		opts = append(opts, database.WithTracer(d.tracer))
		slog.Debug("Database service tracing enabled")
	}

	return database.New(opts...)
}

// CreateJobTracker creates the job status store. Repeated calls return the
// same tracker so that the API and the coordinator share it.
func (d *DatabaseFactory) CreateJobTracker(ctx context.Context) (jobs.Tracker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tracker != nil {
		return d.tracker, nil
	}

	switch d.config.Jobs.GetStore() {
	case config.JobStoreRedis:
		redisCfg := d.config.Jobs.Redis
		if redisCfg == nil || redisCfg.URL == "" {
			return nil, fmt.Errorf("jobs.redis.url is required for the redis job store")
		}
		client, err := jobs.NewRedisClient(ctx, redisCfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis job store: %w", err)
		}
		d.redis = client
		d.tracker = jobs.NewRedisTracker(client,
			jobs.WithKeyPrefix(redisCfg.KeyPrefix),
			jobs.WithTTL(redisCfg.GetTTL()),
		)
		slog.Info("Using redis job store")
	default:
		d.tracker = jobs.NewMemoryTracker()
		slog.Info("Using in-memory job store")
	}

	return d.tracker, nil
}

// Cleanup releases resources held by the database factory.
// It is safe to call more than once.
func (d *DatabaseFactory) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
		d.redis = nil
	}
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
		d.pool = nil
	}
}
