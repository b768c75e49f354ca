// Package database provides a database-backed implementation of the QueryService interface
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/phone-registry-server/internal/db/sqlc"
	"github.com/stacklok/phone-registry-server/internal/otel"
	"github.com/stacklok/phone-registry-server/internal/provider"
	"github.com/stacklok/phone-registry-server/internal/service"
)

// options holds configuration options for the database service
type options struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// Option is a functional option for configuring the database service
type Option func(*options) error

// WithConnectionPool sets the pgx pool used by the service. The caller is
// responsible for closing the pool when it is done.
func WithConnectionPool(pool *pgxpool.Pool) Option {
	return func(o *options) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the database service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// dbService implements the QueryService interface using a database backend
type dbService struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

var _ service.QueryService = (*dbService)(nil)

// New creates a new database-backed query service with the given options
func New(opts ...Option) (service.QueryService, error) {
	o := &options{}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}

	return &dbService{
		pool:   o.pool,
		tracer: o.tracer,
	}, nil
}

// CheckReadiness checks if the service is ready to serve requests
func (s *dbService) CheckReadiness(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// GetCountry returns the availability row of one country
func (s *dbService) GetCountry(ctx context.Context, countryCode string) (*service.Country, error) {
	code := normalizeCode(countryCode)
	ctx, span := s.startSpan(ctx, "dbService.GetCountry",
		trace.WithAttributes(otel.AttrCountryCode.String(code)))
	defer span.End()

	row, err := sqlc.New(s.pool).GetCountryNumberTypes(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", service.ErrCountryNotFound, code)
	}
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to get country %s: %w", code, err)
	}

	country := toCountry(row)
	return &country, nil
}

// ListCountries returns availability rows ordered by country code
func (s *dbService) ListCountries(ctx context.Context, opts ...service.Option) ([]service.Country, error) {
	ctx, span := s.startSpan(ctx, "dbService.ListCountries")
	defer span.End()

	options := &service.ListCountriesOptions{
		Limit: service.DefaultPageSize,
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}

	span.SetAttributes(
		otel.AttrPageSize.Int(options.Limit),
		otel.AttrPageSkip.Int(options.Skip),
		otel.AttrNumberType.String(options.NumberType),
	)

	slog.DebugContext(ctx, "ListCountries query",
		"skip", options.Skip,
		"limit", options.Limit,
		"number_type", options.NumberType,
		"request_id", middleware.GetReqID(ctx))

	params := sqlc.ListCountryNumberTypesParams{
		NumberType: optionalText(options.NumberType),
		Size:       int32(options.Limit), //nolint:gosec // bounded by MaxPageSize
		Skip:       int32(options.Skip),  //nolint:gosec // validated non-negative
	}

	rows, err := sqlc.New(s.pool).ListCountryNumberTypes(ctx, params)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}

	countries := make([]service.Country, 0, len(rows))
	for _, row := range rows {
		countries = append(countries, toCountry(row))
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(countries)))
	return countries, nil
}

// ListRegulations returns the business regulations of one country
func (s *dbService) ListRegulations(
	ctx context.Context,
	countryCode string,
	opts ...service.Option,
) ([]service.Regulation, error) {
	code := normalizeCode(countryCode)
	ctx, span := s.startSpan(ctx, "dbService.ListRegulations",
		trace.WithAttributes(otel.AttrCountryCode.String(code)))
	defer span.End()

	options := &service.ListRegulationsOptions{}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}

	span.SetAttributes(
		otel.AttrNumberType.String(options.NumberType),
		otel.AttrOnlyAvailable.Bool(options.OnlyAvailableTypes),
	)

	querier := sqlc.New(s.pool)
	params := sqlc.ListRegulationsByCountryParams{
		IsoCountry: code,
		NumberType: optionalText(options.NumberType),
	}

	if options.OnlyAvailableTypes {
		row, err := querier.GetCountryNumberTypes(ctx, code)
		switch {
		case err == nil:
			params.RestrictTypes = true
			params.AvailableTypes = numberTypesOf(row).Available()
		case errors.Is(err, pgx.ErrNoRows):
			// Availability not synced for this country yet: fall back to
			// every regulation instead of hiding them all.
			slog.DebugContext(ctx, "No availability data, returning all regulations",
				"country_code", code,
				"request_id", middleware.GetReqID(ctx))
		default:
			otel.RecordError(span, err)
			return nil, fmt.Errorf("failed to get available number types for %s: %w", code, err)
		}
	}

	rows, err := querier.ListRegulationsByCountry(ctx, params)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list regulations for %s: %w", code, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", service.ErrRegulationsNotFound, code)
	}

	regulations := make([]service.Regulation, 0, len(rows))
	for _, row := range rows {
		regulations = append(regulations, toRegulation(row))
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(regulations)))
	return regulations, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func optionalText(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}

func textPtr(value pgtype.Text) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}

func timeOf(value pgtype.Timestamptz) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return value.Time.UTC()
}

func numberTypesOf(row sqlc.CountryNumberType) provider.NumberTypes {
	return provider.NumberTypes{
		Local:            row.Local,
		TollFree:         row.TollFree,
		Mobile:           row.Mobile,
		National:         row.National,
		Voip:             row.Voip,
		SharedCost:       row.SharedCost,
		MachineToMachine: row.MachineToMachine,
	}
}

func toCountry(row sqlc.CountryNumberType) service.Country {
	return service.Country{
		CountryCode: strings.TrimSpace(row.CountryCode),
		Country:     row.Country,
		Beta:        row.Beta,
		NumberTypes: numberTypesOf(row),
		LastUpdated: timeOf(row.LastUpdated),
	}
}

func toRegulation(row sqlc.Regulation) service.Regulation {
	var requirements json.RawMessage
	if len(row.Requirements) > 0 {
		requirements = json.RawMessage(row.Requirements)
	}

	return service.Regulation{
		Sid:          row.Sid,
		FriendlyName: textPtr(row.FriendlyName),
		IsoCountry:   textPtr(row.IsoCountry),
		NumberType:   textPtr(row.NumberType),
		EndUserType:  row.EndUserType,
		Requirements: requirements,
		URL:          textPtr(row.Url),
		LastUpdated:  timeOf(row.LastUpdated),
	}
}
