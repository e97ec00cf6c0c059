// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrProbe means the container duration could not be read
var ErrProbe = errors.New("probe failed")

// ProbeArgs asks ffprobe for the bare container duration in seconds
func ProbeArgs(input string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	}
}

func probeDuration(ctx context.Context, binary, input string) (float64, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, ProbeArgs(input)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return 0, fmt.Errorf("%w: %s", ErrProbe, msg)
	}
	return ParseDuration(stdout.Bytes())
}

// ParseDuration reads the ffprobe duration output. Empty, non-numeric and
// non-positive values are probe failures.
func ParseDuration(out []byte) (float64, error) {
	text := strings.TrimSpace(string(out))
	if text == "" {
		return 0, fmt.Errorf("%w: empty duration", ErrProbe)
	}
	// some containers report one line per program; the first one wins
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	d, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q", ErrProbe, text)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, fmt.Errorf("%w: duration %q", ErrProbe, text)
	}
	return d, nil
}
