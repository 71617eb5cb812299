// Package metrics exports Prometheus metrics for the audio pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "survey"

var (
	// QueueDepth tracks items waiting at each stage boundary.
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of items waiting in a pipeline stage queue",
		},
		[]string{"queue"},
	)

	// SessionsActive is the number of live telephony sessions.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active call sessions",
		},
	)

	// UtterancesTotal counts utterances emitted by the VAD engine.
	UtterancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total utterances detected, by disposition",
		},
		[]string{"status"}, // kept, discarded
	)

	// BargeInsTotal counts playback invalidations caused by caller speech.
	BargeInsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "barge_ins_total",
			Help:      "Total barge-in events",
		},
	)

	// FramesDroppedTotal counts malformed inbound media frames.
	FramesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Inbound media frames dropped, by reason",
		},
		[]string{"reason"},
	)

	// CollaboratorDuration times ASR, extractor and TTS round trips.
	CollaboratorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_duration_seconds",
			Help:      "Duration of collaborator calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"collaborator", "status"},
	)
)

// Register installs all collectors on the given registry.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		QueueDepth,
		SessionsActive,
		UtterancesTotal,
		BargeInsTotal,
		FramesDroppedTotal,
		CollaboratorDuration,
	)
}
