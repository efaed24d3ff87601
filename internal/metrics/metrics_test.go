package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/issue-tracker-api/internal/models"
)

func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransition(models.StatusClosed)
	m.ObserveTransition(models.StatusClosed)
	m.ObserveDenial("issue.view", "not permitted on this resource")
	m.ObserveBlob("store", nil)
	m.ObserveBlob("delete", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StatusTransitionsTotal.WithLabelValues("Closed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDenialsTotal.WithLabelValues("issue.view", "not permitted on this resource")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlobOperationsTotal.WithLabelValues("delete", "error")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "issue_tracker_status_transitions_total")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition(models.StatusTriage)
		m.ObserveDenial("a", "b")
		m.ObserveBlob("store", nil)
		m.ObserveLogin("ok")
	})
}
