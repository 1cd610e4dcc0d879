package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
)

// TracingConfig configures span export. An empty ZipkinURL leaves the global
// no-op tracer provider in place; spans are still created but never exported.
type TracingConfig struct {
	ServiceName string
	ZipkinURL   string
}

var tracerProvider *sdktrace.TracerProvider

// InitTracing installs the W3C propagator and, when configured, a batching
// tracer provider that exports to Zipkin.
func InitTracing(cfg TracingConfig, logger *zap.Logger) error {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if cfg.ZipkinURL == "" {
		return nil
	}

	exporter, err := zipkin.New(cfg.ZipkinURL)
	if err != nil {
		return fmt.Errorf("zipkin exporter: %w", err)
	}
	name := cfg.ServiceName
	if name == "" {
		name = "weathernow"
	}
	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(name))
	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	if logger != nil {
		logger.Info("tracing enabled", zap.String("zipkin_url", cfg.ZipkinURL), zap.String("service_name", name))
	}
	return nil
}

func shutdownTracing(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}
