// Package telemetry wires OpenTelemetry tracing for the pantry daemon,
// exported via OTLP/HTTP, with helpers to start a root span per user
// turn and a child span per dispatch round. No planning or composition
// spans are defined.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "pantry"

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// Init builds and registers a global TracerProvider exporting spans to
// endpoint via OTLP/HTTP. A no-op shutdown is returned when endpoint is
// empty, so local development need not stand up a collector.
func Init(ctx context.Context, endpoint, serviceVersion string) (Shutdown, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("build otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(tracerName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the pantry package tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartTurn starts the root span for one user turn.
func StartTurn(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "chat.turn", trace.WithAttributes(
		semconv.EnduserID(sessionID),
	))
}

// StartDispatch starts a child span for one executor dispatch round.
func StartDispatch(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "executor.dispatch")
}
