package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync pipeline meter
	SyncMetricsMeterName = "github.com/stacklok/phone-registry-server/sync"

	// ProviderMetricsMeterName is the name used for the provider client meter
	ProviderMetricsMeterName = "github.com/stacklok/phone-registry-server/provider"
)

// SyncMetrics holds the OpenTelemetry instruments for sync jobs
type SyncMetrics struct {
	syncDuration       metric.Float64Histogram
	countriesProcessed metric.Int64Counter
	recordsWritten     metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"phone_registry_sync_duration_seconds",
		metric.WithDescription("Duration of sync jobs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 1200),
	)
	if err != nil {
		return nil, err
	}

	countriesProcessed, err := meter.Int64Counter(
		"phone_registry_sync_countries_processed_total",
		metric.WithDescription("Countries successfully processed by sync jobs"),
		metric.WithUnit("{country}"),
	)
	if err != nil {
		return nil, err
	}

	recordsWritten, err := meter.Int64Counter(
		"phone_registry_sync_records_written_total",
		metric.WithDescription("Rows upserted by sync jobs"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:       syncDuration,
		countriesProcessed: countriesProcessed,
		recordsWritten:     recordsWritten,
	}, nil
}

// RecordSyncDuration records the duration of a finished sync job
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, kind string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", success),
	))
}

// RecordCountriesProcessed adds n processed countries for a sync kind
func (m *SyncMetrics) RecordCountriesProcessed(ctx context.Context, kind string, n int) {
	if m == nil || m.countriesProcessed == nil {
		return
	}
	m.countriesProcessed.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordRecordsWritten adds n written rows for a sync kind
func (m *SyncMetrics) RecordRecordsWritten(ctx context.Context, kind string, n int) {
	if m == nil || m.recordsWritten == nil {
		return
	}
	m.recordsWritten.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// ProviderMetrics holds the OpenTelemetry instruments for provider HTTP calls
type ProviderMetrics struct {
	requestsTotal metric.Int64Counter
	retriesTotal  metric.Int64Counter
}

// NewProviderMetrics creates a new ProviderMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewProviderMetrics(provider metric.MeterProvider) (*ProviderMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ProviderMetricsMeterName)

	requestsTotal, err := meter.Int64Counter(
		"phone_registry_provider_requests_total",
		metric.WithDescription("Provider calls by final outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	retriesTotal, err := meter.Int64Counter(
		"phone_registry_provider_retries_total",
		metric.WithDescription("Provider call retries by reason"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		requestsTotal: requestsTotal,
		retriesTotal:  retriesTotal,
	}, nil
}

// RecordRequest counts a finished provider call. outcome is "ok" or a fault kind.
func (m *ProviderMetrics) RecordRequest(ctx context.Context, outcome string) {
	if m == nil || m.requestsTotal == nil {
		return
	}
	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordRetry counts one retry. reason is the fault kind that triggered it.
func (m *ProviderMetrics) RecordRetry(ctx context.Context, reason string) {
	if m == nil || m.retriesTotal == nil {
		return
	}
	m.retriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
