package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/cloudbyte/internal/middleware"
)

var (
	once sync.Once

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudbyte_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudbyte_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudbyte_purchases_total",
			Help: "Plan activations recorded by checkout, per plan.",
		},
		[]string{"plan"},
	)

	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudbyte_auth_attempts_total",
			Help: "Sign-in and sign-up attempts by outcome.",
		},
		[]string{"action", "result"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal, httpRequestDuration,
			purchasesTotal, authAttemptsTotal,
		)
	})
}

// WatchSessions exposes the live session count reported by fn.
func WatchSessions(fn func() int) {
	gauge := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "cloudbyte_sessions_cached",
			Help: "Live sessions held by the session cache.",
		},
		func() float64 { return float64(fn()) },
	)
	if err := prometheus.Register(gauge); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware counts and times every request by its matched route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := middleware.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.Status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func IncPurchase(planID string) {
	purchasesTotal.WithLabelValues(planID).Inc()
}

// IncAuthAttempt records an auth outcome; action is "signin" or "signup".
func IncAuthAttempt(action, result string) {
	authAttemptsTotal.WithLabelValues(action, result).Inc()
}
