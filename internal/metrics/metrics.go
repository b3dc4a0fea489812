package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess    = "success"
	OutcomeCached     = "cached"
	OutcomeNotFound   = "not_found"
	OutcomeInvalid    = "invalid"
	OutcomeSuperseded = "superseded"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total requests by route, method, and status.",
		},
		[]string{"route", "method", "status"},
	)
	lookupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_lookups_total",
			Help: "Weather lookups by outcome and unit system.",
		},
		[]string{"outcome", "units"},
	)
	lookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weather_lookup_duration_seconds",
			Help:    "Time from trigger to rendered view or error.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() { prometheus.MustRegister(requestCounter, lookupCounter, lookupDuration) }

// ObserveLookup records one finished lookup.
func ObserveLookup(outcome, units string, took time.Duration) {
	lookupCounter.WithLabelValues(outcome, units).Inc()
	lookupDuration.Observe(took.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware counts requests by chi route pattern so ids in paths do not
// explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		requestCounter.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
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
