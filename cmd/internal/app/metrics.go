package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tunebox/cmd/identity"
)

// Metrics owns the service's Prometheus registry.
type Metrics struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

// NewMetrics registers the HTTP and user store collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tunebox_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tunebox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		storeOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tunebox_user_store_operations_total",
			Help: "User store operations by outcome",
		}, []string{"op", "result"}),
		storeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tunebox_user_store_operation_duration_seconds",
			Help:    "User store operation latency in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1},
		}, []string{"op"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := routePattern(r)
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routePattern keeps label cardinality bounded: unmatched paths share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (m *Metrics) observeStore(op string, start time.Time, err error) {
	m.storeOps.WithLabelValues(op, storeResult(err)).Inc()
	m.storeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func storeResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case identity.IsConflict(err):
		return "conflict"
	case identity.IsInvalidInput(err):
		return "invalid"
	case identity.IsNotFound(err):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// instrumentedStore decorates an identity.Store with operation metrics.
type instrumentedStore struct {
	next    identity.Store
	metrics *Metrics
}

func newInstrumentedStore(next identity.Store, m *Metrics) identity.Store {
	if m == nil {
		return next
	}
	return &instrumentedStore{next: next, metrics: m}
}

func (s *instrumentedStore) FindByEmail(ctx context.Context, email string) (identity.User, bool, error) {
	start := time.Now()
	u, ok, err := s.next.FindByEmail(ctx, email)
	s.metrics.observeStore("find_by_email", start, err)
	return u, ok, err
}

func (s *instrumentedStore) FindByUsername(ctx context.Context, username string) (identity.User, bool, error) {
	start := time.Now()
	u, ok, err := s.next.FindByUsername(ctx, username)
	s.metrics.observeStore("find_by_username", start, err)
	return u, ok, err
}

func (s *instrumentedStore) FindByID(ctx context.Context, id string) (identity.User, bool, error) {
	start := time.Now()
	u, ok, err := s.next.FindByID(ctx, id)
	s.metrics.observeStore("find_by_id", start, err)
	return u, ok, err
}

func (s *instrumentedStore) CreateLocal(ctx context.Context, username, email, password string) (identity.User, error) {
	start := time.Now()
	u, err := s.next.CreateLocal(ctx, username, email, password)
	s.metrics.observeStore("create_local", start, err)
	return u, err
}

func (s *instrumentedStore) UpsertFederated(ctx context.Context, in identity.FederatedInput) (identity.User, error) {
	start := time.Now()
	u, err := s.next.UpsertFederated(ctx, in)
	s.metrics.observeStore("upsert_federated", start, err)
	return u, err
}

func (s *instrumentedStore) UpdateProfile(ctx context.Context, id, username, email string) (identity.User, error) {
	start := time.Now()
	u, err := s.next.UpdateProfile(ctx, id, username, email)
	s.metrics.observeStore("update_profile", start, err)
	return u, err
}

func (s *instrumentedStore) UpdatePassword(ctx context.Context, id, password string) error {
	start := time.Now()
	err := s.next.UpdatePassword(ctx, id, password)
	s.metrics.observeStore("update_password", start, err)
	return err
}
