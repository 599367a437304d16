// Package telemetry wires OpenTelemetry tracing for the dashboard processes.
package telemetry

import (
	"context"
	"fmt"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
)

// InstrumentationName names the tracer used for spans outside HTTP handling.
const InstrumentationName = "github.com/benvon/smart-dashboard"

// InitTracer initializes the OpenTelemetry tracer provider exporting to an OTLP/HTTP endpoint
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	install(tp)
	return tp, nil
}

// Setup initializes tracing when enabled and returns a shutdown function that is always
// safe to call. A disabled setup leaves the global no-op provider in place.
func Setup(ctx context.Context, enabled bool, serviceName, endpoint string) (func(context.Context) error, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}
	tp, err := InitTracer(ctx, serviceName, endpoint)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error { return Shutdown(ctx, tp) }, nil
}

// Middleware returns the router middleware that starts a server span per request.
func Middleware(serviceName string) mux.MiddlewareFunc {
	return otelmux.Middleware(serviceName)
}

// Shutdown gracefully shuts down the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

func install(tp *sdktrace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}
