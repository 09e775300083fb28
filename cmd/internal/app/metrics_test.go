package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tunebox/cmd/identity"
)

func storeOpCount(t *testing.T, a *App, op, result string) float64 {
	t.Helper()
	return testutil.ToFloat64(a.metrics.storeOps.WithLabelValues(op, result))
}

type stubStore struct {
	identity.Store
	err error
}

func (s stubStore) FindByID(context.Context, string) (identity.User, bool, error) {
	return identity.User{}, false, s.err
}

func (s stubStore) UpdatePassword(context.Context, string, string) error { return s.err }

func TestInstrumentedStore_Results(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "ok", err: nil, want: "ok"},
		{name: "conflict", err: identity.ConflictError{Op: "x", Field: identity.FieldEmail}, want: "conflict"},
		{name: "invalid", err: identity.ValidationError{Op: "x", Field: identity.FieldPassword}, want: "invalid"},
		{name: "not found", err: identity.NotFoundError{Op: "x"}, want: "not_found"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "other", err: errors.New("disk"), want: "error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMetrics()
			s := newInstrumentedStore(stubStore{err: tc.err}, m)

			_ = s.UpdatePassword(context.Background(), "id", "pw")
			_, _, _ = s.FindByID(context.Background(), "id")

			if got := testutil.ToFloat64(m.storeOps.WithLabelValues("update_password", tc.want)); got != 1 {
				t.Fatalf("update_password %s = %v", tc.want, got)
			}
			if got := testutil.ToFloat64(m.storeOps.WithLabelValues("find_by_id", tc.want)); got != 1 {
				t.Fatalf("find_by_id %s = %v", tc.want, got)
			}
		})
	}
}

func TestNewInstrumentedStore_NilMetrics(t *testing.T) {
	inner := stubStore{}
	if got := newInstrumentedStore(inner, nil); got != identity.Store(inner) {
		t.Fatalf("nil metrics should return the store unchanged")
	}
}

func TestMetricsMiddleware_RoutePattern(t *testing.T) {
	m := NewMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/users/1", "/users/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/users/{id}", "418")); got != 2 {
		t.Fatalf("route counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched counter = %v, want 1", got)
	}
}
