package stt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricAudioBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_audio_bytes_total",
		Help: "Total audio bytes sent to provider",
	})

	metricFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_frames_total",
		Help: "Total audio frames sent to provider",
	})

	metricConnectMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stt_connect_ms",
		Help:    "Time to establish provider connection (ms)",
		Buckets: prometheus.ExponentialBuckets(10, 1.8, 10),
	})

	metricTTFTMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stt_ttft_ms",
		Help:    "Time from connect to first transcript text (ms)",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 10),
	})

	gaugeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stt_sessions_active",
		Help: "Active capture sockets",
	})

	metricInterims = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_interim_total",
		Help: "Interim transcripts received",
	})

	// Transcript handling metrics
	metricFinalEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stt_final_emitted_total",
		Help: "Final transcripts emitted by source (provider, utterance_end, stream_closed, typed)",
	}, []string{"source"})

	metricInterimDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_interim_dropped_total",
		Help: "Captures that ended with only interim text, which is never submitted",
	})

	metricEmptyFinalSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_empty_final_skipped_total",
		Help: "Empty final transcripts skipped",
	})

	metricUtteranceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stt_utterance_events_total",
		Help: "Utterance boundary events observed",
	}, []string{"type"}) // speech_started, utterance_end

	metricErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stt_errors_total",
		Help: "Capture errors by origin",
	}, []string{"origin"}) // connect, socket, provider
)
