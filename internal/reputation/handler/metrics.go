package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	trustwebRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustweb_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	trustwebRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trustweb_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	trustwebTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustweb_transitions_total",
		Help: "Ledger state transitions by operation and result tag.",
	}, []string{"op", "result"})

	trustwebVerifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trustweb_identities_verified_total",
		Help: "Identities that crossed the verification threshold.",
	})

	trustwebHealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustweb_health_checks_total",
		Help: "Total health checks by check and result.",
	}, []string{"check", "result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		trustwebRequestsTotal.WithLabelValues(method, path, status).Inc()
		trustwebRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// PrometheusRecorder feeds LedgerService transition outcomes into Prometheus.
type PrometheusRecorder struct{}

// RecordTransition implements service.MetricsRecorder.
func (PrometheusRecorder) RecordTransition(op, result string) {
	trustwebTransitionsTotal.WithLabelValues(op, result).Inc()
}

// RecordVerified implements service.MetricsRecorder.
func (PrometheusRecorder) RecordVerified() {
	trustwebVerifiedTotal.Inc()
}

// RecordHealthCheck records a health check result.
func RecordHealthCheck(check string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	trustwebHealthChecksTotal.WithLabelValues(check, result).Inc()
}
