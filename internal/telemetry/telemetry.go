// Package telemetry wires up the orchestrator's trace exporter: stdout
// in development, OTLP/gRPC when an endpoint is configured. The
// orchestrator's dispatch/poll/terminal-event spans (internal/orchestrator)
// are the only consumer of the resulting trace.Tracer.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config selects which exporter NewTracerProvider wires up.
type Config struct {
	ServiceName string
	// OTLPEndpoint, if non-empty, sends spans over OTLP/gRPC to this
	// collector address instead of stdout.
	OTLPEndpoint string
}

// Provider owns the SDK trace provider's lifecycle; Shutdown must be
// called to flush pending spans on exit.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewTracerProvider builds and registers a global tracer provider per
// cfg, returning a Provider the caller is responsible for shutting
// down.
func NewTracerProvider(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	exporter, err := buildExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp}, nil
}

func buildExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	if cfg.OTLPEndpoint != "" {
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("build otlp exporter: %w", err)
		}
		return exp, nil
	}

	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("build stdout exporter: %w", err)
	}
	return exp, nil
}

// Tracer returns a named tracer from the provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.tp.Tracer(name)
}

// Shutdown flushes and stops the provider. Safe to call on a nil
// Provider (no-op), so callers can defer it unconditionally.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
