// Package metrics holds the Prometheus collectors for tracker processes.
//
// Collectors register against the default registry on import; the /metrics
// endpoint is served by Handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_reaction_toggles_total",
		Help: "The total number of applied reaction toggles",
	}, []string{"target_kind", "action"})

	reactionRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_reaction_toggle_retries_total",
		Help: "The total number of toggle attempts retried after a concurrent write",
	}, []string{"target_kind"})

	commentWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_comment_writes_total",
		Help: "The total number of comment mutations",
	}, []string{"operation"})

	projectViews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_project_views_total",
		Help: "The total number of project view increments",
	}, []string{"status"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_events_published_total",
		Help: "The total number of engagement events handed to the broker",
	}, []string{"subject", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracker_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)

// ObserveToggle counts a completed toggle.
func ObserveToggle(targetKind, action string) {
	reactionToggles.WithLabelValues(targetKind, action).Inc()
}

// ObserveToggleRetry counts a toggle attempt lost to a concurrent writer.
func ObserveToggleRetry(targetKind string) {
	reactionRetries.WithLabelValues(targetKind).Inc()
}

// ObserveCommentWrite counts a create, update or delete.
func ObserveCommentWrite(operation string) {
	commentWrites.WithLabelValues(operation).Inc()
}

// ObserveProjectView counts a view increment outcome.
func ObserveProjectView(err error) {
	projectViews.WithLabelValues(status(err)).Inc()
}

// ObserveEventPublish counts a publish outcome per subject.
func ObserveEventPublish(subject string, err error) {
	eventsPublished.WithLabelValues(subject, status(err)).Inc()
}

// ObserveHTTP records a request duration.
func ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

// Handler exposes the default registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps a handler and records its latency under route.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		ObserveHTTP(r.Method, route, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
