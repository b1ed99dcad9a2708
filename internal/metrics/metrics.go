package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"epidash/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on registration. It implements the engine and
// import observers.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	refreshDuration   prometheus.Histogram
	emptyRefreshes    prometheus.Counter
	playbackTicks     *prometheus.CounterVec
	liveSessions      prometheus.Gauge
	importRuns        *prometheus.CounterVec
	importedRows      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_refresh_duration_seconds",
			Help:    "Histogram of view refresh durations.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		emptyRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_empty_refreshes_total",
			Help: "Refreshes whose selection matched no map rows.",
		}),
		playbackTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_playback_ticks_total",
			Help: "Playback ticks applied, by whether the tick finished playback.",
		}, []string{"finished"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_sessions",
			Help: "Number of live dashboard sessions.",
		}),
		importRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "import_runs_total",
			Help: "Import runs by final status.",
		}, []string{"status"}),
		importedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Rows stored by completed imports, by table.",
		}, []string{"table"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.refreshDuration,
		m.emptyRefreshes,
		m.playbackTicks,
		m.liveSessions,
		m.importRuns,
		m.importedRows,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades pass through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// WrapHandler counts and times requests for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRefresh(d time.Duration, empty bool) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(d.Seconds())
	if empty {
		m.emptyRefreshes.Inc()
	}
}

func (m *Metrics) ObserveTick(finished bool) {
	if m == nil {
		return
	}
	m.playbackTicks.WithLabelValues(strconv.FormatBool(finished)).Inc()
}

func (m *Metrics) SessionsChanged(delta int) {
	if m == nil {
		return
	}
	m.liveSessions.Add(float64(delta))
}

func (m *Metrics) ObserveImport(status string, stats model.ImportStats) {
	if m == nil {
		return
	}
	m.importRuns.WithLabelValues(status).Inc()
	m.importedRows.WithLabelValues("observations").Add(float64(stats.Observations))
	m.importedRows.WithLabelValues("facilities").Add(float64(stats.Facilities))
}
