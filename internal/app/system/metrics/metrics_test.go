package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/divvyapp/divvy/internal/app/system/metrics"
	"github.com/go-chi/chi/v5"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/houses/{houseID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/houses/"+id, nil))
	}
	m.CascadeDeleted(7)
	m.InstancesGenerated(3)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	want := `divvy_http_requests_total{method="GET",route="/houses/{houseID}",status="404"} 3`
	if !strings.Contains(body, want) {
		t.Errorf("missing %q in:\n%s", want, body)
	}
	if !strings.Contains(body, "divvy_store_cascade_deleted_documents_total 7") {
		t.Error("cascade delete counter missing")
	}
	if !strings.Contains(body, "divvy_chores_generated_instances_total 3") {
		t.Error("generated instances counter missing")
	}
}

func TestNilMetricsCountersAreNoops(t *testing.T) {
	var m *metrics.Metrics
	m.CascadeDeleted(1)
	m.InstancesGenerated(1)
}
