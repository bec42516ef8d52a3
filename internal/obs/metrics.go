package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Общие HTTP-метрики
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets, // [0.005..10]
		},
		[]string{"method", "path", "status"},
	)
)

// Метрики домена учётных записей
var (
	signUpsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_signups_total",
		Help: "Successful account registrations.",
	})

	signInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_signins_total",
			Help: "Sign-in attempts by outcome.",
		},
		[]string{"outcome"},
	)

	otpIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otp_issued_total",
		Help: "OTP challenges issued.",
	})

	otpValidatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_validations_total",
			Help: "OTP validation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	mailFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_mail_failures_total",
		Help: "Background mail deliveries that failed.",
	})
)

// Регистрация метрик в default-регистре.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		signUpsTotal, signInsTotal, otpIssuedTotal, otpValidatedTotal,
		mailFailuresTotal,
	)
}

// IncSignUp counts a completed registration.
func IncSignUp() { signUpsTotal.Inc() }

// IncSignIn counts a sign-in attempt with its outcome ("ok", "denied", "error").
func IncSignIn(outcome string) { signInsTotal.WithLabelValues(outcome).Inc() }

// IncOTPIssued counts an issued OTP challenge.
func IncOTPIssued() { otpIssuedTotal.Inc() }

// IncOTPValidated counts an OTP validation attempt with its outcome.
func IncOTPValidated(outcome string) { otpValidatedTotal.WithLabelValues(outcome).Inc() }

// IncMailFailure counts a background mail delivery failure.
func IncMailFailure() { mailFailuresTotal.Inc() }

// Хэндлер Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// CanonicalPath collapses resource identifiers so metric labels stay bounded.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if rest, ok := strings.CutPrefix(path, "/v1/users/"); ok && rest != "" {
		switch {
		case !strings.Contains(rest, "/"):
			return "/v1/users/:id"
		case strings.HasSuffix(rest, "/status") && strings.Count(rest, "/") == 1:
			return "/v1/users/:id/status"
		}
	}
	return path
}

// Обёртка для измерения RPS/latency/в полёте.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter — локальная копия, чтобы знать код ответа.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
