// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package tui

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"github.com/ZSC714725/videocompressor/internal/job"

	tea "github.com/charmbracelet/bubbletea"
)

// submitJob probes the input and starts the encode
func submitJob(runner job.Runner, req job.Request) tea.Cmd {
	return func() tea.Msg {
		j, err := runner.Submit(context.Background(), req)
		if err != nil {
			return SubmittedMsg{Job: j, Err: err}
		}
		events, cancel, err := runner.Subscribe(j.ID)
		return SubmittedMsg{Job: j, Events: events, Cancel: cancel, Err: err}
	}
}

// waitForEvent blocks on the next job event
func waitForEvent(events <-chan job.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// tickCmd ticks every 500ms while encoding
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func openFolderCmd(open func(dir string) error, dir string) tea.Cmd {
	return func() tea.Msg {
		return FolderOpenedMsg{Dir: dir, Err: open(dir)}
	}
}

// openFolder starts the platform file manager on dir without waiting for it
func openFolder(dir string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", dir)
	case "darwin":
		cmd = exec.Command("open", dir)
	default:
		cmd = exec.Command("xdg-open", dir)
	}
	return cmd.Start()
}
