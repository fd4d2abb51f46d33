package assistant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_state_transitions_total",
		Help: "Assistant state transitions",
	}, []string{"from", "to"})

	metricTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_turns_total",
		Help: "Turns settled by outcome",
	}, []string{"outcome"}) // ok|error|discarded

	metricNLULatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_nlu_latency_ms",
		Help:    "Latency of the NLU parse call",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 12),
	})

	metricNavigations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_seat_selection_navigations_total",
		Help: "Navigations to seat selection triggered by the assistant",
	})

	metricNotices = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_notices_total",
		Help: "User-visible notices raised by the assistant",
	}, []string{"kind"})

	metricSpeechSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_speech_suppressed_total",
		Help: "Responses not spoken because they belong to the payment step",
	})

	metricCaptureSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_capture_sessions_total",
		Help: "Capture sessions by how they ended",
	}, []string{"end"}) // final|ended|error|stopped
)
