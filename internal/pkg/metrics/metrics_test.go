package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("/api/v1/cart", "POST", 201, 20*time.Millisecond)
	m.ObserveRequest("", "GET", 404, time.Millisecond)
	m.OrderPlaced("cash")
	m.OrderPlaced("cash")
	m.CouponApplied("conflict")
	m.SideEffectFailed("email")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/v1/cart", "POST", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "404")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.orders.WithLabelValues("cash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.coupons.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sideFails.WithLabelValues("email")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest("/", "GET", 200, time.Millisecond)
		m.OrderPlaced("card")
		m.CouponApplied("applied")
		m.SideEffectFailed("pdf")
	})
	assert.Nil(t, New(nil))
}
