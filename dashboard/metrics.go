package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Metrics holds the dashboard's request instruments.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	trades   prometheus.Gauge
}

// NewMetrics registers the dashboard collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tradeview",
				Name:      "http_requests_total",
				Help:      "Total number of dashboard HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tradeview",
				Name:      "http_request_duration_seconds",
				Help:      "Dashboard HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"route", "method"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tradeview",
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight dashboard requests",
		}),
		trades: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tradeview",
			Name:      "loaded_trades",
			Help:      "Number of trades loaded into the dashboard",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.inFlight, m.trades)
	return m
}

// Middleware records request metrics labelled by chi route pattern, and
// logs server errors and slow requests.
func (m *Metrics) Middleware(log zerolog.Logger, slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.inFlight.Inc()
			defer m.inFlight.Dec()

			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			elapsed := time.Since(start)

			route := routeLabel(r)
			status := strconv.Itoa(rw.status)
			m.requests.WithLabelValues(route, r.Method, status).Inc()
			m.duration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())

			switch {
			case rw.status >= 500:
				log.Error().Str("route", route).Str("method", r.Method).Int("status", rw.status).Dur("elapsed", elapsed).Msg("http request failed")
			case slow > 0 && elapsed >= slow:
				log.Warn().Str("route", route).Str("method", r.Method).Int("status", rw.status).Dur("elapsed", elapsed).Msg("http request slow")
			}
		})
	}
}

// routeLabel prefers the matched chi pattern to keep label cardinality low.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
