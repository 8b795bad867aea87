package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "ricks/vault"

// Tracer returns the tracer used by vault operations. It resolves against the
// global provider so Init may run before or after the first call.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartOperation opens a span for a vault entry point.
func StartOperation(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	attrs = append(attrs, attribute.String("vault.operation", op))
	return Tracer().Start(ctx, "vault."+op, trace.WithAttributes(attrs...))
}

// EndOperation records err on the span and closes it.
func EndOperation(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

var (
	opCounterOnce sync.Once
	opCounter     metric.Int64Counter
)

// CountOperation increments the OTLP operation counter. Errors creating the
// instrument leave the counter disabled.
func CountOperation(ctx context.Context, op, outcome string) {
	opCounterOnce.Do(func() {
		counter, err := otel.Meter(instrumentationName).Int64Counter(
			"ricks.vault.operations",
			metric.WithDescription("Vault operations by outcome"),
		)
		if err == nil {
			opCounter = counter
		}
	})
	if opCounter == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	opCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}
