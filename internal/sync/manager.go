package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/phone-registry-server/internal/fanout"
	"github.com/stacklok/phone-registry-server/internal/jobs"
	"github.com/stacklok/phone-registry-server/internal/otel"
	"github.com/stacklok/phone-registry-server/internal/provider"
	"github.com/stacklok/phone-registry-server/internal/sync/writer"
	"github.com/stacklok/phone-registry-server/internal/telemetry"
)

// TracerName is the name used for the sync pipeline tracer
const TracerName = "github.com/stacklok/phone-registry-server/sync"

// Result contains the result of a successful sync operation
type Result struct {
	Kind               jobs.Kind
	CountriesTotal     int
	CountriesProcessed int
	RecordsWritten     int
}

// Stages at which a sync can fail
const (
	StageEnumerate = "enumerate"
	StageStore     = "store"
	StageInternal  = "internal"
)

// ErrUnknownKind is returned for a job kind the manager cannot run
var ErrUnknownKind = errors.New("unknown sync kind")

// Error represents a batch-level sync failure. Per-country failures never
// produce an Error; they are logged and skipped.
type Error struct {
	Err     error
	Message string
	Stage   string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager runs the sync pipeline for one job
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/phone-registry-server/internal/sync Manager
type Manager interface {
	// PerformSync enumerates countries, fans out the per-country fetches and
	// upserts the aggregate. Progress is reported on the job identified by
	// jobID. Finalizing the job is left to the caller.
	PerformSync(ctx context.Context, kind jobs.Kind, jobID string) (*Result, *Error)
}

// Option configures the default manager
type Option func(*defaultManager)

// WithConcurrency sets the fan-out ceiling
func WithConcurrency(limit int) Option {
	return func(m *defaultManager) {
		if limit > 0 {
			m.concurrency = limit
		}
	}
}

// WithSyncMetrics records countries processed and rows written
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultManager) {
		m.metrics = metrics
	}
}

// WithTracer wraps each pipeline run in a span
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultManager) {
		m.tracer = tracer
	}
}

type defaultManager struct {
	client      provider.Client
	writer      writer.SyncWriter
	tracker     jobs.Tracker
	concurrency int
	metrics     *telemetry.SyncMetrics
	tracer      trace.Tracer
}

var _ Manager = (*defaultManager)(nil)

// NewManager creates the default sync manager
func NewManager(client provider.Client, w writer.SyncWriter, tracker jobs.Tracker, opts ...Option) Manager {
	m := &defaultManager{
		client:      client,
		writer:      w,
		tracker:     tracker,
		concurrency: fanout.DefaultLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PerformSync dispatches to the pipeline for kind
func (m *defaultManager) PerformSync(ctx context.Context, kind jobs.Kind, jobID string) (*Result, *Error) {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.PerformSync",
		trace.WithAttributes(otel.AttrJobKind.String(string(kind)), attribute.String("sync.job_id", jobID)))
	defer span.End()

	var (
		result  *Result
		syncErr *Error
	)
	switch kind {
	case jobs.KindNumberTypes:
		result, syncErr = m.syncNumberTypes(ctx, jobID)
	case jobs.KindRegulations:
		result, syncErr = m.syncRegulations(ctx, jobID)
	default:
		syncErr = &Error{
			Err:     ErrUnknownKind,
			Message: fmt.Sprintf("unknown sync kind %q", kind),
			Stage:   StageInternal,
		}
	}

	if syncErr != nil {
		otel.RecordError(span, syncErr)
		return nil, syncErr
	}
	span.SetAttributes(otel.AttrResultCount.Int(result.RecordsWritten))
	return result, nil
}

func (m *defaultManager) syncNumberTypes(ctx context.Context, jobID string) (*Result, *Error) {
	refs, syncErr := m.enumerate(ctx, jobID)
	if syncErr != nil {
		return nil, syncErr
	}

	records := fanout.ForEach(ctx, refs, m.concurrency,
		func(ctx context.Context, ref provider.CountryRef) (provider.CountryAvailability, error) {
			code, err := countryCode(ref)
			if err != nil {
				return provider.CountryAvailability{}, err
			}
			details, err := m.client.GetCountryDetails(ctx, code)
			if err != nil {
				return provider.CountryAvailability{}, fmt.Errorf("failed to fetch details for %s: %w", code, err)
			}
			m.progress(ctx, jobID)
			return provider.NewCountryAvailability(code, details), nil
		})

	written, err := m.writer.UpsertCountries(ctx, records)
	if err != nil {
		return nil, storeError(jobs.KindNumberTypes, err)
	}

	return m.finish(ctx, jobs.KindNumberTypes, len(refs), len(records), written), nil
}

func (m *defaultManager) syncRegulations(ctx context.Context, jobID string) (*Result, *Error) {
	refs, syncErr := m.enumerate(ctx, jobID)
	if syncErr != nil {
		return nil, syncErr
	}

	batches := fanout.ForEach(ctx, refs, m.concurrency,
		func(ctx context.Context, ref provider.CountryRef) ([]provider.Regulation, error) {
			code, err := countryCode(ref)
			if err != nil {
				return nil, err
			}
			regs, err := m.client.ListRegulations(ctx, code, "", true)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch regulations for %s: %w", code, err)
			}
			m.progress(ctx, jobID)
			return regs, nil
		})

	var all []provider.Regulation
	for _, batch := range batches {
		all = append(all, batch...)
	}

	written, err := m.writer.UpsertRegulations(ctx, all)
	if err != nil {
		return nil, storeError(jobs.KindRegulations, err)
	}

	return m.finish(ctx, jobs.KindRegulations, len(refs), len(batches), written), nil
}

// enumerate lists every country and records the total on the job
func (m *defaultManager) enumerate(ctx context.Context, jobID string) ([]provider.CountryRef, *Error) {
	refs, err := m.client.ListCountries(ctx)
	if err != nil {
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("failed to enumerate countries: %v", err),
			Stage:   StageEnumerate,
		}
	}

	if err := m.tracker.MarkTotal(ctx, jobID, len(refs)); err != nil {
		slog.WarnContext(ctx, "Failed to record job total", "job_id", jobID, "error", err)
	}
	slog.InfoContext(ctx, "Enumerated countries", "job_id", jobID, "count", len(refs))
	return refs, nil
}

// progress counts one successfully processed country. Tracker errors are
// logged only; progress reporting never fails a country.
func (m *defaultManager) progress(ctx context.Context, jobID string) {
	if err := m.tracker.IncrementProcessed(ctx, jobID, 1); err != nil {
		slog.WarnContext(ctx, "Failed to record job progress", "job_id", jobID, "error", err)
	}
}

func (m *defaultManager) finish(ctx context.Context, kind jobs.Kind, total, processed, written int) *Result {
	m.metrics.RecordCountriesProcessed(ctx, string(kind), processed)
	m.metrics.RecordRecordsWritten(ctx, string(kind), written)

	if skipped := total - processed; skipped > 0 {
		slog.WarnContext(ctx, "Some countries were skipped", "kind", kind, "skipped", skipped, "total", total)
	}

	return &Result{
		Kind:               kind,
		CountriesTotal:     total,
		CountriesProcessed: processed,
		RecordsWritten:     written,
	}
}

func countryCode(ref provider.CountryRef) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(ref.CountryCode))
	if code == "" {
		return "", fmt.Errorf("country %q has no country code", ref.Country)
	}
	return code, nil
}

func storeError(kind jobs.Kind, err error) *Error {
	return &Error{
		Err:     err,
		Message: fmt.Sprintf("failed to store %s: %v", strings.ReplaceAll(string(kind), "_", " "), err),
		Stage:   StageStore,
	}
}
