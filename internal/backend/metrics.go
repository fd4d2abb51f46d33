package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricRequestMS = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "backend_request_ms",
	Help:    "Backend request latency by operation and status",
	Buckets: prometheus.ExponentialBuckets(10, 1.8, 12),
}, []string{"op", "status"})
