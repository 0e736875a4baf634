package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the gateway's Prometheus collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	backendDuration *prometheus.HistogramVec
	backendRequests *prometheus.CounterVec
	cartMutations   *prometheus.CounterVec
	ordersPlaced    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_backend_request_duration_seconds",
			Help:    "Latency of calls to the shop backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_backend_requests_total",
			Help: "Calls to the shop backend by status code; 0 means the call never got a response.",
		}, []string{"endpoint", "status"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart mutations by operation and result.",
		}, []string{"op", "result"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Checkout submissions by source and result.",
		}, []string{"source", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_product_cache_lookups_total",
			Help: "Product cache lookups by result.",
		}, []string{"result"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_events_dropped_total",
			Help: "Events a slow subscriber missed.",
		}, []string{"topic"}),
	}
	reg.MustRegister(m.backendDuration, m.backendRequests, m.cartMutations, m.ordersPlaced, m.cacheLookups, m.eventsDropped)
	return m
}

func (m *Metrics) ObserveBackendRequest(endpoint string, status int, duration time.Duration) {
	if m == nil || m.backendDuration == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	m.backendDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	m.backendRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

func (m *Metrics) CartMutation(op string, err error) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op), result(err)).Inc()
}

func (m *Metrics) OrderPlaced(source string, err error) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(source), result(err)).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil || m.cacheLookups == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil || m.cacheLookups == nil {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) EventDropped(topic string) {
	if m == nil || m.eventsDropped == nil {
		return
	}
	m.eventsDropped.WithLabelValues(normalizeLabel(topic)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
