package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "activation"

var ulidSegment = regexp.MustCompile(`^[0-9A-Za-z]{26}$`)

// HTTP
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "endpoint", "status_code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status_code"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response body size.",
		Buckets:   prometheus.ExponentialBuckets(128, 4, 7),
	}, []string{"method", "endpoint"})
)

// Database
var (
	dbConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "connections_in_use",
		Help:      "Open database connections currently in use.",
	})

	dbConnectionsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "connections_idle",
		Help:      "Idle database connections in the pool.",
	})

	dbQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "queries_total",
		Help:      "Instrumented queries by operation and result.",
	}, []string{"operation", "status"})

	dbQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Instrumented query latency.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"})
)

// Activation funnel
var (
	authAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dashboard_logins_total",
		Help:      "Dashboard login attempts by result.",
	}, []string{"status"})

	leadSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_submissions_total",
		Help:      "Public lead submissions by outcome (created, merged, conflict, invalid, error).",
	}, []string{"outcome"})

	leadFilesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_files_created_total",
		Help:      "Lead file records created, by source (device, upload).",
	}, []string{"source"})

	moderationDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_decisions_total",
		Help:      "Moderation decisions by resulting status.",
	}, []string{"status"})

	smsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sms",
		Name:      "notifications_total",
		Help:      "Decision SMS attempts by message kind and result.",
	}, []string{"kind", "status"})

	signedURLDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "signed_url_duration_seconds",
		Help:      "Time spent checking and presigning object URLs.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"status"})
)

// PrometheusMiddleware records request count, latency and response size
// for everything except the scrape endpoint.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := endpointLabel(r.URL.Path)
		code := strconv.Itoa(rec.status)
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, code).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint, code).Observe(time.Since(start).Seconds())
		httpResponseSize.WithLabelValues(r.Method, endpoint).Observe(float64(rec.size))
	})
}

// endpointLabel collapses record ids in a path so label cardinality stays
// bounded: /api/v1/share/01J9Z... becomes /api/v1/share/:id.
func endpointLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if ulidSegment.MatchString(segment) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordAuthAttempt counts a dashboard login.
func RecordAuthAttempt(success bool) {
	authAttemptsTotal.WithLabelValues(result(success)).Inc()
}

func RecordLeadSubmission(outcome string) {
	leadSubmissionsTotal.WithLabelValues(outcome).Inc()
}

func RecordLeadFileCreated(source string) {
	leadFilesCreatedTotal.WithLabelValues(source).Inc()
}

func RecordModerationDecision(status string) {
	moderationDecisionsTotal.WithLabelValues(status).Inc()
}

// RecordSMS counts a decision notification; kind is "share" or "rejected".
func RecordSMS(kind string, success bool) {
	smsSentTotal.WithLabelValues(kind, result(success)).Inc()
}

// RecordSignedURL observes one exists-then-presign round trip.
func RecordSignedURL(status string, duration time.Duration) {
	signedURLDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordDBQuery observes an instrumented query.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	dbQueriesTotal.WithLabelValues(operation, result(err == nil)).Inc()
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections publishes connection pool usage.
func UpdateDBConnections(active, idle int) {
	dbConnectionsActive.Set(float64(active))
	dbConnectionsIdle.Set(float64(idle))
}
