// Package otel provides OpenTelemetry span helpers shared by the query service and the API.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the query service, the API and the sync pipelines
const (
	AttrCountryCode   = attribute.Key("country.code")
	AttrNumberType    = attribute.Key("number.type")
	AttrOnlyAvailable = attribute.Key("regulations.only_available_types")
	AttrJobKind       = attribute.Key("sync.kind")
	AttrPageSize      = attribute.Key("pagination.limit")
	AttrPageSkip      = attribute.Key("pagination.skip")
	AttrResultCount   = attribute.Key("result.count")
)

// StartSpan starts a child span, or returns the span already in ctx when
// tracer is nil.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err as a span event and marks the span failed. The
// status text stays generic so connection strings and provider payloads only
// appear in the event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
