package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wakeapp_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wakeapp_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// FramesIngested counts every frame taken off the stream, valid or not.
	FramesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wakeapp_frames_ingested_total",
			Help: "Total number of AIS frames received from the stream.",
		},
	)

	// FramesSkipped counts frames that contributed nothing to a scan.
	FramesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wakeapp_frames_skipped_total",
			Help: "Total number of AIS frames dropped during a scan.",
		},
		[]string{"reason"},
	)

	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wakeapp_scans_total",
			Help: "Total number of approach scans run.",
		},
		[]string{"outcome"},
	)

	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wakeapp_scan_duration_seconds",
			Help:    "Wall-clock duration of approach scans in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// ScanApproaches holds the approach count from the most recent scan.
	ScanApproaches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wakeapp_scan_approaches",
			Help: "Number of approaching freighters found by the last scan.",
		},
	)

	TideRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wakeapp_tide_requests_total",
			Help: "Total number of tide prediction fetches.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(FramesIngested)
	prometheus.MustRegister(FramesSkipped)
	prometheus.MustRegister(ScansTotal)
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(ScanApproaches)
	prometheus.MustRegister(TideRequests)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(r.URL.Path, r.Method).Observe(duration)
	})
}
