package otelstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// OTLPConfig configures the OTLP tracer provider.
// Most users only need ServiceName and Endpoint. Other options are for
// advanced use cases like production deployments with TLS.
type OTLPConfig struct {
	// ServiceName identifies your service in traces (e.g., "user-api").
	// This is how you'll find your traces in Jaeger/Tempo.
	ServiceName string

	// ServiceVersion is shown alongside traces (e.g., "v1.2.3", "abc123").
	ServiceVersion string

	// Endpoint is the OTLP collector address (e.g., "localhost:4317").
	// Port 4317 is the standard gRPC port, 4318 for HTTP.
	Endpoint string

	// UseHTTP uses HTTP instead of gRPC for OTLP export.
	// Use HTTP when gRPC is blocked (e.g., some cloud environments).
	// Default: false (uses gRPC)
	UseHTTP bool

	// Insecure disables TLS. Use for local development only.
	// Default: true (insecure, for easy local development)
	Insecure bool

	// Headers are sent with every trace export request.
	// Use for authentication tokens or custom headers.
	Headers map[string]string

	// SampleRate controls what percentage of traces are recorded.
	// 1.0 = record everything (100%), 0.1 = record 10%, 0.0 = record nothing.
	// Default: 1.0 (record all traces)
	SampleRate float64

	// BatchTimeout is how long to wait before sending a batch of spans.
	// Lower = faster visibility, Higher = more efficient batching.
	// Default: 5 seconds
	BatchTimeout time.Duration
}

// DefaultOTLPConfig returns the default OTLP configuration
func DefaultOTLPConfig(serviceName, endpoint string) OTLPConfig {
	return OTLPConfig{
		ServiceName:    serviceName,
		ServiceVersion: "unknown",
		Endpoint:       endpoint,
		UseHTTP:        false,
		Insecure:       true,
		Headers:        nil,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
	}
}

// OTLPOption configures the OTLP tracer provider
type OTLPOption func(*OTLPConfig)

// WithServiceVersion sets the service version
func WithServiceVersion(version string) OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.ServiceVersion = version
	}
}

// WithHTTPExporter uses HTTP instead of gRPC
func WithHTTPExporter() OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.UseHTTP = true
	}
}

// WithSecure enables TLS
func WithSecure() OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.Insecure = false
	}
}

// WithHeaders sets additional headers for the exporter
func WithHeaders(headers map[string]string) OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.Headers = headers
	}
}

// WithSampleRate sets the sampling rate
func WithSampleRate(rate float64) OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.SampleRate = rate
	}
}

// NewOTLPTracerProvider creates a tracer provider that exports spans to an
// OTLP collector (Jaeger, Grafana Tempo, Honeycomb, etc.) and installs it
// as the global provider, so Stores created afterwards without
// WithTracerProvider pick it up automatically.
//
// IMPORTANT: Always call Shutdown() when your application exits to flush
// any pending spans:
//
//	provider, err := otelstore.NewOTLPTracerProvider("my-service", "localhost:4317")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Shutdown(context.Background())
//
// View traces in Jaeger UI at http://localhost:16686 (default Jaeger port).
func NewOTLPTracerProvider(serviceName, endpoint string, opts ...OTLPOption) (*sdktrace.TracerProvider, error) {
	cfg := DefaultOTLPConfig(serviceName, endpoint)
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()

	// Create the appropriate exporter
	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Create resource with service information
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	// Create sampler
	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.BatchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	// Set as global provider
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider, nil
}

// createExporter creates the appropriate OTLP exporter based on configuration
func createExporter(ctx context.Context, cfg OTLPConfig) (*otlptrace.Exporter, error) {
	if cfg.UseHTTP {
		return createHTTPExporter(ctx, cfg)
	}
	return createGRPCExporter(ctx, cfg)
}

// createHTTPExporter creates an HTTP-based OTLP exporter
func createHTTPExporter(ctx context.Context, cfg OTLPConfig) (*otlptrace.Exporter, error) {
	options := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		options = append(options, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		options = append(options, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, options...)
}

// createGRPCExporter creates a gRPC-based OTLP exporter
func createGRPCExporter(ctx context.Context, cfg OTLPConfig) (*otlptrace.Exporter, error) {
	options := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		options = append(options, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		options = append(options, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptracegrpc.New(ctx, options...)
}
