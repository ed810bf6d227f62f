// Package metrics owns the Prometheus registry exposed at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fastlog"

// Metrics methods are safe on a nil receiver so callers can run without a
// registry in tests.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fastsStarted    prometheus.Counter
	fastsEnded      prometheus.Counter
	mealsLogged     prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	metrics := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		fastsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fasts_started_total",
			Help:      "Fasts started.",
		}),
		fastsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fasts_ended_total",
			Help:      "Fasts ended.",
		}),
		mealsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meals_logged_total",
			Help:      "Meals logged.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.requests,
		metrics.requestDuration,
		metrics.fastsStarted,
		metrics.fastsEnded,
		metrics.mealsLogged,
	)
	return metrics
}

func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})
}

func (metrics *Metrics) ObserveRequest(method string, route string, status int, elapsed time.Duration) {
	if metrics == nil {
		return
	}
	metrics.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	metrics.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (metrics *Metrics) FastStarted() {
	if metrics != nil {
		metrics.fastsStarted.Inc()
	}
}

func (metrics *Metrics) FastEnded() {
	if metrics != nil {
		metrics.fastsEnded.Inc()
	}
}

func (metrics *Metrics) MealLogged() {
	if metrics != nil {
		metrics.mealsLogged.Inc()
	}
}
