// Package otelhelper bootstraps OpenTelemetry tracing for the workflow builder.
package otelhelper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Common attribute keys.
	WorkflowIDKey       = "atelier.workflow.id"
	WorkflowNameKey     = "atelier.workflow.name"
	WorkflowCategoryKey = "atelier.workflow.category"
	WorkflowStatusKey   = "atelier.workflow.status"
	StepCountKey        = "atelier.workflow.step_count"
	ViolationCountKey   = "atelier.workflow.violation_count"
	SessionIDKey        = "atelier.session.id"
	EventTypeKey        = "atelier.event.type"
)

// TracerName is the instrumentation name used by the services.
const TracerName = "github.com/dukex/atelier"

// Shutdown flushes and stops the tracer provider.
type Shutdown func(ctx context.Context) error

// NewTracer installs a global provider exporting over OTLP/HTTP. The exporter
// is configured by the standard OTEL_EXPORTER_OTLP_* environment variables.
// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func NewTracer(ctx context.Context, serviceName string) (trace.Tracer, Shutdown, error) {
	provider, err := newTracerProvider(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}

	return provider.Tracer(TracerName), provider.Shutdown, nil
}

// Tracer returns the tracer of the global provider, a no-op one unless
// NewTracer was called.
// nolint:ireturn
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// nolint:ireturn,spancheck // Returning interface is intentional for OpenTelemetry tracing
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func newTracerProvider(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
