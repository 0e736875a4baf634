package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveBackendRequest("cart.add", 201, 20*time.Millisecond)
	m.ObserveBackendRequest("", 0, time.Millisecond)
	m.CartMutation("add", nil)
	m.CartMutation("add", errors.New("x"))
	m.OrderPlaced("cart", nil)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.EventDropped("cart.updated")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("cart.add", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("unknown", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartMutations.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartMutations.WithLabelValues("add", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersPlaced.WithLabelValues("cart", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsDropped.WithLabelValues("cart.updated")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveBackendRequest("x", 200, time.Second)
	m.CartMutation("add", nil)
	m.OrderPlaced("cart", nil)
	m.CacheHit()
	m.CacheMiss()
	m.EventDropped("x")

	unregistered := New(nil)
	unregistered.CartMutation("add", nil)
}
