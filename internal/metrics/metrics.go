package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cardapio"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	backendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_backend_calls_total",
			Help:      "Remote menu backend calls by operation and result.",
		},
		[]string{"backend", "op", "result"},
	)

	breakerOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "menu_breaker_open",
			Help:      "1 while the menu backend circuit breaker is open.",
		},
	)

	cacheSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_cache_loads_total",
			Help:      "Menu list loads by the source that served them.",
		},
		[]string{"source"},
	)

	degradedWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_degraded_writes_total",
			Help:      "Menu writes applied only to the local cache.",
		},
		[]string{"op"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_notifications_total",
			Help:      "Update notification deliveries by channel and result.",
		},
		[]string{"channel", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, backendCalls, breakerOpen, cacheSource, degradedWrites, notifications)
	})
}

func IncHTTP(endpoint, code string) {
	httpRequests.WithLabelValues(endpoint, code).Inc()
}

func IncBackendCall(backend, op, result string) {
	backendCalls.WithLabelValues(backend, op, result).Inc()
}

func SetBreakerOpen(open bool) {
	if open {
		breakerOpen.Set(1)
		return
	}
	breakerOpen.Set(0)
}

func IncCacheSource(source string) {
	cacheSource.WithLabelValues(source).Inc()
}

func IncDegradedWrite(op string) {
	degradedWrites.WithLabelValues(op).Inc()
}

func IncNotification(channel, result string) {
	notifications.WithLabelValues(channel, result).Inc()
}
