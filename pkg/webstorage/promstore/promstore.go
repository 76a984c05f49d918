// Package promstore provides a webstorage.Backend decorator that records
// Prometheus metrics for backend operations.
//
// Prometheus will scrape /metrics and you'll see data like:
//
//	# HELP webstorage_backend_ops_total Backend operations by outcome.
//	# TYPE webstorage_backend_ops_total counter
//	webstorage_backend_ops_total{op="set",outcome="ok"} 1542
//	webstorage_backend_ops_total{op="get",outcome="miss"} 12
//
//	# HELP webstorage_backend_entries Entries currently stored.
//	# TYPE webstorage_backend_entries gauge
//	webstorage_backend_entries 87
//
// For visualization, connect Prometheus to Grafana and create dashboards.
package promstore

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/friends-of-js/web-storage/pkg/webstorage"
)

// Store wraps another webstorage.Backend and counts every operation, its
// outcome and its latency. The wrapped backend keeps its semantics
// unchanged, so a Store can sit under any facade or decorator.
type Store struct {
	next     webstorage.Backend
	registry *prometheus.Registry

	ops      *prometheus.CounterVec
	rejects  prometheus.Counter
	entries  prometheus.GaugeFunc
	duration *prometheus.HistogramVec
}

type config struct {
	registry *prometheus.Registry
	buckets  []float64
}

// Option configures a Store.
type Option func(*config)

// WithRegistry uses a custom Prometheus registry instead of a fresh one.
// Go runtime collectors are only registered on registries the Store
// creates itself, so an application registry is never double-registered.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

// WithDurationBuckets sets custom buckets for the operation latency
// histogram.
func WithDurationBuckets(buckets []float64) Option {
	return func(c *config) {
		c.buckets = buckets
	}
}

// New wraps next with metrics collection.
//
// By default, it creates a new registry and includes Go runtime collectors
// (memory usage, goroutine count, etc.).
//
// Example:
//
//	metered := promstore.New(webstorage.NewMemoryBackend())
//	store := webstorage.New(metered)
//	http.Handle("/metrics", metered.Handler())
func New(next webstorage.Backend, opts ...Option) *Store {
	if next == nil {
		panic("promstore: nil backend")
	}

	cfg := &config{
		buckets: []float64{
			0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	registry := cfg.registry
	if registry == nil {
		registry = prometheus.NewRegistry()

		// Register default Go metrics
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	s := &Store{
		next:     next,
		registry: registry,
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webstorage_backend_ops_total",
			Help: "Backend operations by outcome.",
		}, []string{"op", "outcome"}),
		rejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webstorage_backend_rejects_total",
			Help: "Writes rejected for capacity.",
		}),
		entries: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "webstorage_backend_entries",
			Help: "Entries currently stored.",
		}, func() float64 {
			return float64(next.Len())
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webstorage_backend_op_duration_seconds",
			Help:    "Backend operation latency.",
			Buckets: cfg.buckets,
		}, []string{"op"}),
	}

	registry.MustRegister(s.ops, s.rejects, s.entries, s.duration)

	return s
}

// Verify it implements the interface
var _ webstorage.Backend = (*Store)(nil)

// Len reports the entry count of the wrapped backend.
func (s *Store) Len() int {
	defer s.observe("len", time.Now())

	n := s.next.Len()
	s.ops.WithLabelValues("len", "ok").Inc()
	return n
}

// Key returns the key at position i in the wrapped backend.
func (s *Store) Key(i int) (string, bool) {
	defer s.observe("key", time.Now())

	key, ok := s.next.Key(i)
	s.ops.WithLabelValues("key", outcome(ok)).Inc()
	return key, ok
}

// Get retrieves the value for a key, counting hits and misses.
func (s *Store) Get(key string) (string, bool) {
	defer s.observe("get", time.Now())

	value, ok := s.next.Get(key)
	s.ops.WithLabelValues("get", outcome(ok)).Inc()
	return value, ok
}

// Set writes through to the wrapped backend. Capacity rejections count
// separately from other failures.
func (s *Store) Set(key, value string) error {
	defer s.observe("set", time.Now())

	err := s.next.Set(key, value)
	switch {
	case err == nil:
		s.ops.WithLabelValues("set", "ok").Inc()
	case errors.Is(err, webstorage.ErrQuotaExceeded):
		s.rejects.Inc()
		s.ops.WithLabelValues("set", "rejected").Inc()
	default:
		s.ops.WithLabelValues("set", "error").Inc()
	}
	return err
}

// Remove deletes a key from the wrapped backend.
func (s *Store) Remove(key string) error {
	defer s.observe("remove", time.Now())

	err := s.next.Remove(key)
	s.ops.WithLabelValues("remove", errOutcome(err)).Inc()
	return err
}

// Clear removes all entries from the wrapped backend.
func (s *Store) Clear() error {
	defer s.observe("clear", time.Now())

	err := s.next.Clear()
	s.ops.WithLabelValues("clear", errOutcome(err)).Inc()
	return err
}

// Handler returns an HTTP handler for Prometheus metrics scraping
func (s *Store) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying Prometheus registry
func (s *Store) Registry() *prometheus.Registry {
	return s.registry
}

// observe records the elapsed time of one operation.
func (s *Store) observe(op string, start time.Time) {
	s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "miss"
}

func errOutcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
