// Package otel installs the process-wide OpenTelemetry tracer provider.
package otel

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"docarchive/internal/logging"
)

const defaultServiceName = "docarchive"

// settings mirrors the OTEL_* variables the SDK honours.
type settings struct {
	disabled    bool
	serviceName string
	protocol    string
	endpoint    string
	sampler     string
	samplerArg  string
}

func settingsFromEnv() settings {
	s := settings{
		disabled:    os.Getenv("OTEL_SDK_DISABLED") == "true",
		serviceName: getEnv("OTEL_SERVICE_NAME", defaultServiceName),
		protocol:    getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
		sampler:     getEnv("OTEL_TRACES_SAMPLER", "parentbased_always_on"),
		samplerArg:  getEnv("OTEL_TRACES_SAMPLER_ARG", "1.0"),
	}
	if s.endpoint == "" {
		s.endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	return s
}

func (s settings) fields() map[string]any {
	return map[string]any{
		"tracing_enabled": !s.disabled,
		"service_name":    s.serviceName,
		"otlp_protocol":   s.protocol,
		"otlp_endpoint":   s.endpoint,
		"sampler":         s.sampler,
		"sampler_arg":     s.samplerArg,
	}
}

// Init installs the tracer provider and W3C propagators and returns its shutdown func.
// When the exporter cannot be built, tracing stays on the no-op provider and Init still succeeds.
func Init(ctx context.Context, log *logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Default()
	}
	log = log.With("tracing")

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	cfg := settingsFromEnv()
	if cfg.disabled {
		log.Info(ctx, "tracing_configured", cfg.fields())
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(cfg.serviceName)),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg.protocol)
	if err != nil {
		log.Error(ctx, "tracing_init_failed", err, cfg.fields())
		return noopShutdown, nil
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(newSampler(cfg.sampler, cfg.samplerArg)),
	)
	otel.SetTracerProvider(tp)

	log.Info(ctx, "tracing_configured", cfg.fields())
	return tp.Shutdown, nil
}

func noopShutdown(context.Context) error { return nil }

// newExporter reads endpoint and headers from the OTEL_EXPORTER_OTLP_* variables.
func newExporter(ctx context.Context, protocol string) (*otlptrace.Exporter, error) {
	switch protocol {
	case "grpc":
		return otlptracegrpc.New(ctx)
	case "http/protobuf":
		return otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
	}
}

func newSampler(name, arg string) trace.Sampler {
	switch name {
	case "always_on":
		return trace.AlwaysSample()
	case "always_off":
		return trace.NeverSample()
	case "traceidratio":
		return trace.TraceIDRatioBased(parseRatio(arg))
	case "parentbased_always_off":
		return trace.ParentBased(trace.NeverSample())
	case "parentbased_traceidratio":
		return trace.ParentBased(trace.TraceIDRatioBased(parseRatio(arg)))
	default:
		return trace.ParentBased(trace.AlwaysSample())
	}
}

// parseRatio reads a sampling ratio in [0, 1], defaulting to 1.
func parseRatio(arg string) float64 {
	ratio, err := strconv.ParseFloat(arg, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1.0
	}
	return ratio
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
