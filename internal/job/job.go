// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package job

import (
	"sync"
	"time"

	"github.com/ZSC714725/videocompressor/internal/ffmpeg/parse"
	"github.com/ZSC714725/videocompressor/internal/process"
)

// State of a job
type State string

const (
	StateProbing  State = "probing"
	StateEncoding State = "encoding"
	StateFinished State = "finished"
	StateFailed   State = "failed"
)

// Done reports whether the job reached a final state
func (s State) Done() bool {
	return s == StateFinished || s == StateFailed
}

// Job is one source file compressed to one output file
type Job struct {
	ID        string
	Input     string
	Output    string
	TargetMB  int
	CreatedAt time.Time

	lock       sync.RWMutex
	state      State
	duration   float64
	video      int64
	audio      int64
	percent    int
	err        string
	startedAt  time.Time
	finishedAt time.Time
	proc       process.Process
	parser     parse.Parser
}

// Info is a point-in-time copy of a job
type Info struct {
	ID           string          `json:"id"`
	Input        string          `json:"input"`
	Output       string          `json:"output"`
	TargetMB     int             `json:"target_size_mb"`
	State        State           `json:"state"`
	Percent      int             `json:"percent"`
	Duration     float64         `json:"duration_seconds"`
	VideoBitrate int64           `json:"video_bitrate_bps"`
	AudioBitrate int64           `json:"audio_bitrate_bps"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Progress     *parse.Progress `json:"progress,omitempty"`
	Process      *ProcessInfo    `json:"process,omitempty"`
}

// ProcessInfo describes the encoder process of a job
type ProcessInfo struct {
	PID      int     `json:"pid"`
	State    string  `json:"state"`
	ExitCode int     `json:"exit_code"`
	Runtime  int64   `json:"runtime_seconds"`
	CPU      float64 `json:"cpu_usage"`
	Memory   uint64  `json:"memory_bytes"`
	LastLine string  `json:"last_logline"`
}

func newJob(id, input, output string, targetMB int) *Job {
	return &Job{
		ID:        id,
		Input:     input,
		Output:    output,
		TargetMB:  targetMB,
		CreatedAt: time.Now(),
		state:     StateProbing,
	}
}

// State returns the current state
func (j *Job) State() State {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.state
}

// Percent returns the last reported progress
func (j *Job) Percent() int {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.percent
}

// Info returns a snapshot of the job
func (j *Job) Info() Info {
	j.lock.RLock()
	info := Info{
		ID:           j.ID,
		Input:        j.Input,
		Output:       j.Output,
		TargetMB:     j.TargetMB,
		State:        j.state,
		Percent:      j.percent,
		Duration:     j.duration,
		VideoBitrate: j.video,
		AudioBitrate: j.audio,
		Error:        j.err,
		CreatedAt:    j.CreatedAt,
	}
	if !j.startedAt.IsZero() {
		t := j.startedAt
		info.StartedAt = &t
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		info.FinishedAt = &t
	}
	proc, parser := j.proc, j.parser
	j.lock.RUnlock()

	if parser != nil {
		prog := parser.Progress()
		info.Progress = &prog
	}
	if proc != nil {
		st := proc.Status()
		info.Process = &ProcessInfo{
			PID:      st.PID,
			State:    st.State,
			ExitCode: st.ExitCode,
			Runtime:  int64(st.Duration.Seconds()),
			CPU:      st.CPU,
			Memory:   st.Memory,
			LastLine: st.LastLine,
		}
	}
	return info
}

// Log returns the last encoder output lines
func (j *Job) Log() []process.Line {
	j.lock.RLock()
	parser := j.parser
	j.lock.RUnlock()
	if parser == nil {
		return nil
	}
	return parser.Log()
}

func (j *Job) planned(duration float64, video, audio int64) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.duration = duration
	j.video = video
	j.audio = audio
}

func (j *Job) attach(proc process.Process, parser parse.Parser) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.proc = proc
	j.parser = parser
	j.state = StateEncoding
	j.percent = 0
	j.startedAt = time.Now()
}

func (j *Job) setPercent(pct int) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.percent = pct
}

func (j *Job) finish() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.state = StateFinished
	j.percent = 100
	j.finishedAt = time.Now()
}

func (j *Job) fail(err error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.state = StateFailed
	j.err = err.Error()
	j.finishedAt = time.Now()
}
