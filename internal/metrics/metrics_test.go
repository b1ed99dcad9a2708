package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"epidash/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestWrapHandlerCountsRequests(t *testing.T) {
	m := NewMetrics()
	h := m.WrapHandler("/api/v1/sessions/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x", nil))
	}
	require.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/api/v1/sessions/{id}", "404")))
}

func TestObservers(t *testing.T) {
	m := NewMetrics()
	m.ObserveRefresh(time.Millisecond, true)
	m.ObserveRefresh(time.Millisecond, false)
	m.ObserveTick(false)
	m.ObserveTick(true)
	m.SessionsChanged(1)
	m.SessionsChanged(1)
	m.SessionsChanged(-1)
	m.ObserveImport(model.ImportCompleted, model.ImportStats{Observations: 10, Facilities: 3})

	require.Equal(t, 1.0, testutil.ToFloat64(m.emptyRefreshes))
	require.Equal(t, 1.0, testutil.ToFloat64(m.playbackTicks.WithLabelValues("true")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.liveSessions))
	require.Equal(t, 1.0, testutil.ToFloat64(m.importRuns.WithLabelValues(model.ImportCompleted)))
	require.Equal(t, 10.0, testutil.ToFloat64(m.importedRows.WithLabelValues("observations")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRefresh(time.Millisecond, true)
	m.ObserveTick(true)
	m.SessionsChanged(1)
	m.ObserveImport(model.ImportFailed, model.ImportStats{})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.SessionsChanged(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "dashboard_sessions 2")
}
