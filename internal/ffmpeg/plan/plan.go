// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频
//
// Package plan derives the encoder parameters for a size-targeted re-encode.

package plan

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	// AudioBitrate is the fixed AAC allocation, 128 kbit/s
	AudioBitrate int64 = 128 * 1024
	// MinVideoBitrate is the floor applied to every planned video bitrate
	MinVideoBitrate int64 = 100_000
	// MaxWidth caps the output width; height follows the aspect ratio
	MaxWidth = 1280
	// OutputSuffix is inserted before the extension of the source path
	OutputSuffix = "_compressed"
)

var (
	ErrInvalidDuration = errors.New("source duration must be positive")
	ErrInvalidTarget   = errors.New("target size must be positive")
)

// Bitrate returns the video bitrate in bits per second that, together with
// AudioBitrate, fills targetMB megabytes over durationSeconds.
//
// It does not validate its input. durationSeconds must be > 0; use
// NewRequest when the values come from outside.
func Bitrate(durationSeconds float64, targetMB int) int64 {
	totalBits := int64(targetMB) * 1024 * 1024 * 8
	video := int64(math.Floor(float64(totalBits)/durationSeconds)) - AudioBitrate
	if video < MinVideoBitrate {
		video = MinVideoBitrate
	}
	return video
}

// Request is one size-targeted transcode. Zero value is not usable.
type Request struct {
	duration float64
	targetMB int
}

// Parameters are derived from a Request
type Parameters struct {
	VideoBitrate int64 `json:"video_bitrate_bps"`
	AudioBitrate int64 `json:"audio_bitrate_bps"`
}

// NewRequest validates duration and target size
func NewRequest(durationSeconds float64, targetMB int) (Request, error) {
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidDuration, durationSeconds)
	}
	if targetMB <= 0 {
		return Request{}, fmt.Errorf("%w: %d", ErrInvalidTarget, targetMB)
	}
	return Request{duration: durationSeconds, targetMB: targetMB}, nil
}

// Duration of the source in seconds
func (r Request) Duration() float64 { return r.duration }

// TargetMB is the requested output size
func (r Request) TargetMB() int { return r.targetMB }

// Plan returns the parameters for r
func (r Request) Plan() Parameters {
	return Parameters{
		VideoBitrate: Bitrate(r.duration, r.targetMB),
		AudioBitrate: AudioBitrate,
	}
}

// OutputPath returns input with OutputSuffix inserted before its extension
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + OutputSuffix + ext
}

// ScaleFilter keeps the width at or below MaxWidth and the height even
func ScaleFilter() string {
	return fmt.Sprintf("scale='min(%d,iw)':-2", MaxWidth)
}

// Args returns the ffmpeg arguments (without the binary) for the fixed
// H.264/AAC pipeline.
func Args(input, output string, p Parameters) []string {
	return ffmpeg.Input(input).
		Output(output, ffmpeg.KwArgs{
			"c:v":       "libx264",
			"b:v":       strconv.FormatInt(p.VideoBitrate, 10),
			"preset":    "slow",
			"profile:v": "high",
			"c:a":       "aac",
			"b:a":       "128k",
			"movflags":  "+faststart",
			"vf":        ScaleFilter(),
		}).
		OverWriteOutput().
		GetArgs()
}
