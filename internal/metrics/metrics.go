// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job outcome labels
const (
	ResultFinished = "finished"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
)

var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videocompressor_jobs_total",
			Help: "Total number of compression jobs by result",
		},
		[]string{"result"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "videocompressor_job_duration_seconds",
			Help:    "Wall time of an encode from start to exit",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		},
	)

	JobRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videocompressor_job_running",
			Help: "1 while the job slot is busy",
		},
	)

	JobProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videocompressor_job_progress_percent",
			Help: "Progress of the running job",
		},
	)

	PlannedVideoBitrate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "videocompressor_planned_video_bitrate_bps",
			Help:    "Video bitrate chosen by the planner",
			Buckets: prometheus.ExponentialBuckets(100_000, 2, 10),
		},
	)

	ProgressLinesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videocompressor_progress_lines_skipped_total",
			Help: "Encoder status lines whose time= value did not parse",
		},
	)

	ProbeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videocompressor_probe_failures_total",
			Help: "Sources whose duration could not be read",
		},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videocompressor_notifications_dropped_total",
			Help: "Progress events not handed to notifiers because the queue was full",
		},
	)
)
