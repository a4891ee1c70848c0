// internal/pkg/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the shop's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	orders    *prometheus.CounterVec
	coupons   *prometheus.CounterVec
	sideFails *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders created from carts by payment method.",
		}, []string{"payment_method"}),
		coupons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coupon_applications_total",
			Help: "Coupon applications by outcome.",
		}, []string{"result"}),
		sideFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_side_effect_failures_total",
			Help: "Post-checkout steps that failed without undoing the order.",
		}, []string{"step"}),
	}
	reg.MustRegister(m.requests, m.latency, m.orders, m.coupons, m.sideFails)
	return m
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// OrderPlaced counts a committed checkout
func (m *Metrics) OrderPlaced(paymentMethod string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(paymentMethod).Inc()
}

// CouponApplied counts an apply attempt; result is "applied" or an error kind
func (m *Metrics) CouponApplied(result string) {
	if m == nil {
		return
	}
	m.coupons.WithLabelValues(result).Inc()
}

// SideEffectFailed counts a failed receipt, upload or email step
func (m *Metrics) SideEffectFailed(step string) {
	if m == nil {
		return
	}
	m.sideFails.WithLabelValues(step).Inc()
}
