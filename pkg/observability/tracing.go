package observability

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName names the tracer used when no explicit service
// name is configured.
const DefaultServiceName = "agentrt"

// TracingConfig selects and configures the span exporter used by
// InitTracing.
type TracingConfig struct {
	ServiceName  string
	Enabled      bool
	ExporterType string // "otlp", "stdout", or "none"
	OTLPEndpoint string
	OTLPHeaders  map[string]string
}

// TracingConfigFromEnv builds a TracingConfig from the standard
// OpenTelemetry environment variables (OTEL_SERVICE_NAME,
// OTEL_TRACES_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT,
// OTEL_EXPORTER_OTLP_HEADERS).
func TracingConfigFromEnv() TracingConfig {
	return TracingConfig{
		ServiceName:  getEnv("OTEL_SERVICE_NAME", DefaultServiceName),
		Enabled:      getEnv("OTEL_TRACES_ENABLED", "true") == "true",
		ExporterType: getEnv("OTEL_TRACES_EXPORTER", "none"),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPHeaders:  parseHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", "")),
	}
}

// InitTracing builds a trace.Tracer per cfg, returning a no-op shutdown
// func when tracing is disabled. The returned tracer is what
// agentrunner.WithTracer expects.
func InitTracing(cfg TracingConfig) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.Enabled || cfg.ExporterType == "none" || cfg.ExporterType == "" {
		log.Println("observability: tracing disabled")
		return otel.GetTracerProvider().Tracer(cfg.ServiceName), func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, nil, fmt.Errorf("observability: build resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.ExporterType {
	case "otlp":
		exporter, err = newOTLPExporter(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("observability: build otlp exporter: %w", err)
		}
		log.Printf("observability: tracing via OTLP at %s", cfg.OTLPEndpoint)
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("observability: build stdout exporter: %w", err)
		}
		log.Println("observability: tracing via stdout")
	default:
		return nil, nil, fmt.Errorf("observability: unknown exporter type %q", cfg.ExporterType)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	shutdown := func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
		}
		return tp.Shutdown(ctx)
	}

	return tp.Tracer(cfg.ServiceName), shutdown, nil
}

func newOTLPExporter(cfg TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.OTLPHeaders))
	}
	client := otlptracehttp.NewClient(opts...)
	return otlptrace.New(context.Background(), client)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseHeaders(headerStr string) map[string]string {
	if headerStr == "" {
		return nil
	}
	headers := make(map[string]string)
	for _, pair := range strings.Split(headerStr, ",") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			headers[k] = v
		}
	}
	return headers
}
