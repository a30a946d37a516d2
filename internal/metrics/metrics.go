package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestDuration tracks request latency by method, route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "p2pdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "route", "status"},
	)

	// OrdersCreated counts orders opened per currency pair.
	OrdersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "p2pdesk_orders_created_total",
			Help: "Total number of P2P orders created",
		},
		[]string{"crypto", "fiat"},
	)

	// OrderTransitions counts lifecycle transitions by action.
	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "p2pdesk_order_transitions_total",
			Help: "Total number of order lifecycle transitions by action",
		},
		[]string{"action"},
	)

	// OrderRejections counts rejected order requests by validation kind.
	OrderRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "p2pdesk_order_rejections_total",
			Help: "Total number of rejected order requests by reason",
		},
		[]string{"kind"},
	)

	// PushClients tracks connected websocket clients.
	PushClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "p2pdesk_push_clients",
			Help: "Current number of websocket push clients",
		},
	)
)

// Middleware records request metrics under the matched chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
