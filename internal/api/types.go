// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package api

import "github.com/ZSC714725/videocompressor/internal/job"

// JobRequest for POST /jobs
type JobRequest struct {
	Input    string `json:"input" binding:"required"`
	TargetMB int    `json:"target_size_mb"`
}

// JobList wraps GET /jobs
type JobList struct {
	Busy bool       `json:"busy"`
	Jobs []job.Info `json:"jobs"`
}

// JobReport holds the last encoder log lines
type JobReport struct {
	ID    string      `json:"id"`
	State job.State   `json:"state"`
	Log   [][2]string `json:"log"`
}

// PlanResponse for GET /plan
type PlanResponse struct {
	Duration     float64 `json:"duration_seconds"`
	TargetMB     int     `json:"target_size_mb"`
	VideoBitrate int64   `json:"video_bitrate_bps"`
	AudioBitrate int64   `json:"audio_bitrate_bps"`
	MaxWidth     int     `json:"max_width"`
}

// Health for GET /healthz
type Health struct {
	Status string `json:"status"`
	Busy   bool   `json:"busy"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
