package resolver

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name of the tracer for resolution operations.
	TracerName = "playerlink.resolver"
)

// Span attribute keys
const (
	AttrSource     = "source"
	AttrExternalID = "external_id"
	AttrPass       = "pass"
	AttrOutcome    = "outcome"
	AttrMethod     = "method"
	AttrConfidence = "confidence"
	AttrPlayerID   = "player_id"
	AttrPoolSize   = "pool_size"
	AttrBatchSize  = "batch_size"
)

// Span names
const (
	SpanResolve      = "playerlink.resolve"
	SpanResolveBatch = "playerlink.resolve_batch"
	SpanPass         = "playerlink.pass"
)

// tracer wraps the otel tracer with resolution-shaped helpers.
type tracer struct {
	t trace.Tracer
}

func newTracer() *tracer {
	return &tracer{t: otel.Tracer(TracerName)}
}

// startResolve starts the root span for one resolution.
func (tr *tracer) startResolve(ctx context.Context, source, externalID string) (context.Context, trace.Span) {
	return tr.t.Start(ctx, SpanResolve,
		trace.WithAttributes(
			attribute.String(AttrSource, source),
			attribute.String(AttrExternalID, externalID),
		),
	)
}

// startPass starts a child span for one cascade pass.
func (tr *tracer) startPass(ctx context.Context, pass string) (context.Context, trace.Span) {
	return tr.t.Start(ctx, SpanPass,
		trace.WithAttributes(attribute.String(AttrPass, pass)),
	)
}

// recordPoolSize annotates a pass span with the candidate pool size.
func recordPoolSize(span trace.Span, n int) {
	span.SetAttributes(attribute.Int(AttrPoolSize, n))
}

// recordOutcome annotates the root span with the final outcome.
func recordOutcome(span trace.Span, out Outcome) {
	span.SetAttributes(attribute.String(AttrOutcome, string(out.Kind)))
	if out.Kind == OutcomeResolved {
		span.SetAttributes(
			attribute.String(AttrPlayerID, out.PlayerID),
			attribute.String(AttrMethod, string(out.Method)),
			attribute.Float64(AttrConfidence, out.Confidence),
		)
	}
}

// recordError marks the span failed.
func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
