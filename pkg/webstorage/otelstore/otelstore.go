// Package otelstore provides a webstorage.Backend decorator that emits one
// OpenTelemetry client span per backend operation, plus an OTLP tracer
// provider for exporting those spans to Jaeger, Grafana Tempo or any
// OTLP-compatible collector.
package otelstore

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/friends-of-js/web-storage/pkg/webstorage"
)

// tracerName identifies this instrumentation library in exported spans.
const tracerName = "github.com/friends-of-js/web-storage/pkg/webstorage/otelstore"

// Store wraps another webstorage.Backend and traces every operation. The
// wrapped backend keeps its semantics unchanged. Backend methods are
// synchronous, so spans are roots rather than children of a caller
// context.
type Store struct {
	next   webstorage.Backend
	tracer trace.Tracer
}

type options struct {
	provider trace.TracerProvider
}

// Option configures a Store.
type Option func(*options)

// WithTracerProvider sets the provider spans are created from. The global
// provider is used by default, so an application that installs one via
// NewOTLPTracerProvider needs no extra wiring.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// New wraps next with tracing.
//
// Example:
//
//	provider, err := otelstore.NewOTLPTracerProvider("my-service", "localhost:4317")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Shutdown(context.Background())
//
//	store := webstorage.New(otelstore.New(webstorage.NewMemoryBackend()))
func New(next webstorage.Backend, opts ...Option) *Store {
	if next == nil {
		panic("otelstore: nil backend")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	provider := o.provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return &Store{
		next:   next,
		tracer: provider.Tracer(tracerName),
	}
}

// Verify it implements the interface
var _ webstorage.Backend = (*Store)(nil)

// Len reports the entry count of the wrapped backend.
func (s *Store) Len() int {
	span := s.startSpan("webstorage.len")
	defer span.End()

	n := s.next.Len()
	span.SetAttributes(attribute.Int("webstorage.entries", n))
	return n
}

// Key returns the key at position i in the wrapped backend.
func (s *Store) Key(i int) (string, bool) {
	span := s.startSpan("webstorage.key", attribute.Int("webstorage.index", i))
	defer span.End()

	key, ok := s.next.Key(i)
	span.SetAttributes(attribute.Bool("webstorage.found", ok))
	return key, ok
}

// Get retrieves the value for a key.
func (s *Store) Get(key string) (string, bool) {
	span := s.startSpan("webstorage.get", attribute.String("webstorage.key", key))
	defer span.End()

	value, ok := s.next.Get(key)
	span.SetAttributes(attribute.Bool("webstorage.found", ok))
	return value, ok
}

// Set writes through to the wrapped backend. Failed writes record the
// error on the span; capacity rejections are additionally marked with the
// webstorage.rejected attribute.
func (s *Store) Set(key, value string) error {
	span := s.startSpan("webstorage.set",
		attribute.String("webstorage.key", key),
		attribute.Int("webstorage.value_bytes", len(value)))
	defer span.End()

	err := s.next.Set(key, value)
	if err != nil {
		if errors.Is(err, webstorage.ErrQuotaExceeded) {
			span.SetAttributes(attribute.Bool("webstorage.rejected", true))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Remove deletes a key from the wrapped backend.
func (s *Store) Remove(key string) error {
	span := s.startSpan("webstorage.remove", attribute.String("webstorage.key", key))
	defer span.End()

	err := s.next.Remove(key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Clear removes all entries from the wrapped backend.
func (s *Store) Clear() error {
	span := s.startSpan("webstorage.clear")
	defer span.End()

	err := s.next.Clear()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// startSpan opens a client span for one backend operation.
func (s *Store) startSpan(name string, attrs ...attribute.KeyValue) trace.Span {
	_, span := s.tracer.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	return span
}
