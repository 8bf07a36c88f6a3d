package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryMiddleware wraps a Dispatcher so every operation runs inside its
// own span. The wrapped service attaches events to whatever span is active,
// so the full purchase protocol shows up under one trace.
type TelemetryMiddleware struct {
	next   Dispatcher
	tracer trace.Tracer
}

func NewTelemetryMiddleware(next Dispatcher) Dispatcher {
	return &TelemetryMiddleware{next: next, tracer: otel.Tracer("dispatch")}
}

func (t *TelemetryMiddleware) Purchase(ctx context.Context, req Request) (*Result, error) {
	ctx, span := t.tracer.Start(ctx, "Purchase", trace.WithAttributes(
		attribute.Int("producto_id", req.ProductID),
		attribute.Int("cantidad", req.Quantity),
		attribute.String("modo", req.Mode),
	))
	defer span.End()

	res, err := t.next.Purchase(ctx, req)
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}

func (t *TelemetryMiddleware) ProbeRetries(ctx context.Context) (*ProbeResult, error) {
	ctx, span := t.tracer.Start(ctx, "ProbeRetries")
	defer span.End()

	res, err := t.next.ProbeRetries(ctx)
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}
