package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feed_subscribers",
		Help: "Connected panel feed subscribers",
	})
	metricDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_messages_dropped_total",
		Help: "Feed messages dropped for slow subscribers",
	})
	metricCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_commands_total",
		Help: "Commands received over the feed by type",
	}, []string{"type"})
)
