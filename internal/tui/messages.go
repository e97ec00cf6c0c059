// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package tui

import (
	"time"

	"github.com/ZSC714725/videocompressor/internal/job"
)

// SubmittedMsg is sent once the runner accepted or rejected the job
type SubmittedMsg struct {
	Job    *job.Job
	Events <-chan job.Event
	Cancel func()
	Err    error
}

// EventMsg carries one job event
type EventMsg struct {
	Event job.Event
}

// EventsClosedMsg is sent when the event channel is closed
type EventsClosedMsg struct{}

// TickMsg refreshes elapsed time and encoder stats
type TickMsg struct {
	Time time.Time
}

// FolderOpenedMsg reports the result of opening the output folder
type FolderOpenedMsg struct {
	Dir string
	Err error
}
