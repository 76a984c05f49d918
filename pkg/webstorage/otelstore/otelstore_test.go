package otelstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/friends-of-js/web-storage/pkg/webstorage"
)

// newTracedStore wraps next with a Store whose spans land in the returned
// recorder instead of an exporter.
func newTracedStore(t *testing.T, next webstorage.Backend) (*Store, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	return New(next, WithTracerProvider(provider)), recorder
}

func findAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewNilBackendPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New(nil) did not panic")
		}
	}()
	New(nil)
}

func TestStoreEmitsSpanPerOperation(t *testing.T) {
	store, recorder := newTracedStore(t, webstorage.NewMemoryBackend())

	if err := store.Set("theme", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	store.Get("theme")
	store.Len()
	store.Key(0)
	if err := store.Remove("theme"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	spans := recorder.Ended()
	wantNames := []string{
		"webstorage.set",
		"webstorage.get",
		"webstorage.len",
		"webstorage.key",
		"webstorage.remove",
		"webstorage.clear",
	}
	if len(spans) != len(wantNames) {
		t.Fatalf("got %d spans, want %d", len(spans), len(wantNames))
	}
	for i, span := range spans {
		if span.Name() != wantNames[i] {
			t.Errorf("span[%d].Name() = %q, want %q", i, span.Name(), wantNames[i])
		}
		if span.SpanKind() != trace.SpanKindClient {
			t.Errorf("span[%d].SpanKind() = %v, want client", i, span.SpanKind())
		}
	}
}

func TestGetSpanAttributes(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantFound bool
	}{
		{
			name:      "hit",
			key:       "theme",
			wantFound: true,
		},
		{
			name:      "miss",
			key:       "missing",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, recorder := newTracedStore(t, webstorage.NewMemoryBackend())
			if err := store.Set("theme", "dark"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			store.Get(tt.key)

			spans := recorder.Ended()
			span := spans[len(spans)-1]
			if span.Name() != "webstorage.get" {
				t.Fatalf("last span = %q, want webstorage.get", span.Name())
			}
			if v, ok := findAttr(span, "webstorage.key"); !ok || v.AsString() != tt.key {
				t.Errorf("webstorage.key attribute = %v (present %v), want %q", v.Emit(), ok, tt.key)
			}
			if v, ok := findAttr(span, "webstorage.found"); !ok || v.AsBool() != tt.wantFound {
				t.Errorf("webstorage.found attribute = %v (present %v), want %v", v.Emit(), ok, tt.wantFound)
			}
		})
	}
}

func TestSetFaultRecordsError(t *testing.T) {
	cause := errors.New("disk on fire")
	store, recorder := newTracedStore(t, &faultyBackend{err: cause})

	if err := store.Set("theme", "dark"); !errors.Is(err, cause) {
		t.Fatalf("Set() error = %v, want %v", err, cause)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Status().Code != codes.Error {
		t.Errorf("status code = %v, want error", span.Status().Code)
	}
	if span.Status().Description != cause.Error() {
		t.Errorf("status description = %q, want %q", span.Status().Description, cause.Error())
	}
	events := span.Events()
	if len(events) != 1 || events[0].Name != "exception" {
		t.Errorf("events = %+v, want a single exception event", events)
	}
}

func TestSetCapacityRejectionMarksSpan(t *testing.T) {
	backend := webstorage.NewQuotaBackend(webstorage.NewMemoryBackend(), 8)
	store, recorder := newTracedStore(t, backend)

	err := store.Set("key", "far too large for the budget")
	if !errors.Is(err, webstorage.ErrQuotaExceeded) {
		t.Fatalf("Set() error = %v, want quota exceeded", err)
	}

	spans := recorder.Ended()
	span := spans[len(spans)-1]
	if v, ok := findAttr(span, "webstorage.rejected"); !ok || !v.AsBool() {
		t.Errorf("webstorage.rejected attribute = %v (present %v), want true", v.Emit(), ok)
	}
	if span.Status().Code != codes.Error {
		t.Errorf("status code = %v, want error", span.Status().Code)
	}
}

func TestStoreWithFacade(t *testing.T) {
	traced, recorder := newTracedStore(t, webstorage.NewMemoryBackend())
	store := webstorage.New(traced, webstorage.WithNamespace("session"))

	if ok, err := store.Set("theme", "dark"); err != nil || !ok {
		t.Fatalf("Set() = (%v, %v), want (true, nil)", ok, err)
	}

	spans := recorder.Ended()
	var setSpan sdktrace.ReadOnlySpan
	for _, span := range spans {
		if span.Name() == "webstorage.set" {
			setSpan = span
		}
	}
	if setSpan == nil {
		t.Fatal("no webstorage.set span recorded")
	}
	if v, ok := findAttr(setSpan, "webstorage.key"); !ok || v.AsString() != "session/theme" {
		t.Errorf("webstorage.key attribute = %v (present %v), want %q", v.Emit(), ok, "session/theme")
	}
}

func TestDefaultOTLPConfig(t *testing.T) {
	cfg := DefaultOTLPConfig("user-api", "localhost:4317")

	if cfg.ServiceName != "user-api" {
		t.Errorf("ServiceName = %q, want user-api", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "unknown" {
		t.Errorf("ServiceVersion = %q, want unknown", cfg.ServiceVersion)
	}
	if cfg.Endpoint != "localhost:4317" {
		t.Errorf("Endpoint = %q, want localhost:4317", cfg.Endpoint)
	}
	if cfg.UseHTTP {
		t.Error("UseHTTP = true, want false")
	}
	if !cfg.Insecure {
		t.Error("Insecure = false, want true")
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v, want 1.0", cfg.SampleRate)
	}
	if cfg.BatchTimeout != 5*time.Second {
		t.Errorf("BatchTimeout = %v, want 5s", cfg.BatchTimeout)
	}
}

func TestOTLPOptions(t *testing.T) {
	cfg := DefaultOTLPConfig("user-api", "localhost:4318")
	for _, opt := range []OTLPOption{
		WithServiceVersion("v1.2.3"),
		WithHTTPExporter(),
		WithSecure(),
		WithHeaders(map[string]string{"authorization": "Bearer token"}),
		WithSampleRate(0.25),
	} {
		opt(&cfg)
	}

	if cfg.ServiceVersion != "v1.2.3" {
		t.Errorf("ServiceVersion = %q, want v1.2.3", cfg.ServiceVersion)
	}
	if !cfg.UseHTTP {
		t.Error("UseHTTP = false, want true")
	}
	if cfg.Insecure {
		t.Error("Insecure = true, want false")
	}
	if cfg.Headers["authorization"] != "Bearer token" {
		t.Errorf("Headers = %v, want authorization header", cfg.Headers)
	}
	if cfg.SampleRate != 0.25 {
		t.Errorf("SampleRate = %v, want 0.25", cfg.SampleRate)
	}
}

func TestNewOTLPTracerProvider(t *testing.T) {
	// The gRPC exporter connects lazily, so construction succeeds without
	// a collector listening.
	provider, err := NewOTLPTracerProvider("web-storage-test", "localhost:4317")
	if err != nil {
		t.Fatalf("NewOTLPTracerProvider() error = %v", err)
	}
	if otel.GetTracerProvider() != provider {
		t.Error("provider was not installed globally")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

type faultyBackend struct {
	err error
}

func (f *faultyBackend) Len() int                    { return 0 }
func (f *faultyBackend) Key(_ int) (string, bool)    { return "", false }
func (f *faultyBackend) Get(_ string) (string, bool) { return "", false }
func (f *faultyBackend) Set(_, _ string) error       { return f.err }
func (f *faultyBackend) Remove(_ string) error       { return f.err }
func (f *faultyBackend) Clear() error                { return f.err }
