package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the RPC metrics of the server
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the RPC metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playground",
			Name:      "rpc_requests_total",
			Help:      "Number of RPC requests by method and status.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "playground",
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency, dominated by ledger calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"method"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Middleware records every request served by the RPC routes
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		method := c.FullPath()
		if method == "" {
			method = "unknown"
		}
		m.requests.WithLabelValues(method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}
