package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docscan_realtime_frames_submitted_total",
			Help: "Total number of frames offered to the realtime detector",
		},
	)

	framesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docscan_realtime_frames_dropped_total",
			Help: "Frames dropped before processing",
		},
		[]string{"reason"}, // reason: busy, skip
	)

	framesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docscan_realtime_frames_processed_total",
			Help: "Frames that completed a detection cycle",
		},
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docscan_realtime_cycle_duration_seconds",
			Help:    "Wall-clock duration of one detection cycle",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	detectionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docscan_realtime_detections_total",
			Help: "Detection cycle outcomes",
		},
		[]string{"outcome"}, // outcome: found, not_found
	)
)
