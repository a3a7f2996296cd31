package telemetry

import (
	"context"
	"fmt"

	"github.com/vendora/backend/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

const serviceName = "vendora-backend"

// Options configures trace export. An empty Endpoint disables tracing
// entirely; the server then runs without a registered provider.
type Options struct {
	Endpoint    string
	Environment string

	// SampleRatio is the head-sampling probability for root spans in
	// (0, 1]. Zero means sample everything.
	SampleRatio float64
}

// Setup wires the global OpenTelemetry tracer provider to an OTLP HTTP
// exporter and installs W3C trace-context propagation. The returned shutdown
// func flushes buffered spans; it is always non-nil and safe to call.
func Setup(ctx context.Context, opts Options) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if opts.Endpoint == "" {
		return noop, nil
	}

	ratio := opts.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceNamespace("vendora"),
			semconv.DeploymentEnvironment(opts.Environment),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("build trace resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(opts.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return noop, fmt.Errorf("create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Log.Info("Tracing enabled",
		zap.String("endpoint", opts.Endpoint),
		zap.Float64("sample_ratio", ratio),
	)

	return tp.Shutdown, nil
}
