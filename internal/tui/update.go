// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package tui

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/ZSC714725/videocompressor/internal/job"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case startMsg:
		return m.start()
	case SubmittedMsg:
		return m.handleSubmitted(msg)
	case EventMsg:
		return m.handleEvent(msg)
	case EventsClosedMsg:
		return m.handleClosed()
	case TickMsg:
		return m.handleTick(msg)
	case FolderOpenedMsg:
		m.Opened, m.OpenErr = msg.Dir, msg.Err
		return m, nil
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		return m, tea.Quit
	case "enter":
		if m.Screen == ScreenWelcome {
			return m.start()
		}
		if m.Done() {
			return m, tea.Quit
		}
	case "+", "up", "k":
		if m.Screen == ScreenWelcome {
			m.TargetMB = clamp(m.TargetMB+1, m.minTarget, m.maxTarget)
		}
	case "-", "down", "j":
		if m.Screen == ScreenWelcome {
			m.TargetMB = clamp(m.TargetMB-1, m.minTarget, m.maxTarget)
		}
	case "o":
		if m.Screen == ScreenFinished && m.Output != "" {
			return m, openFolderCmd(m.open, filepath.Dir(m.Output))
		}
	case "r":
		// 失败后可重试
		if m.Screen == ScreenFailed {
			return m.start()
		}
	}
	return m, nil
}

// handleSubmitted switches to the compressing screen or shows why the
// job was rejected.
func (m Model) handleSubmitted(msg SubmittedMsg) (tea.Model, tea.Cmd) {
	m.Job = msg.Job
	if msg.Job != nil {
		m.Info = msg.Job.Info()
	}
	if msg.Err != nil {
		m.Screen = ScreenFailed
		m.Err = msg.Err
		return m, nil
	}

	m.Screen = ScreenCompressing
	m.events = msg.Events
	m.cancel = msg.Cancel
	m.Started = time.Now()
	m.Now = m.Started
	return m, tea.Batch(waitForEvent(m.events), tickCmd())
}

// handleEvent applies one job event
func (m Model) handleEvent(msg EventMsg) (tea.Model, tea.Cmd) {
	ev := msg.Event
	switch ev.Type {
	case job.EventStarted:
		m.Percent = 0
	case job.EventProgress:
		m.Percent = ev.Percent
	case job.EventFinished:
		m.Percent = 100
		m.Output = ev.Output
		m.Screen = ScreenFinished
	case job.EventFailed:
		m.Screen = ScreenFailed
		m.Err = errors.New(ev.Error)
	}
	if m.Job != nil {
		m.Info = m.Job.Info()
	}
	if ev.Terminal() {
		m.cancel = nil
		return m, nil
	}
	return m, waitForEvent(m.events)
}

// handleClosed covers a channel closed before a terminal event reached us
func (m Model) handleClosed() (tea.Model, tea.Cmd) {
	m.cancel = nil
	if m.Done() || m.Job == nil {
		return m, nil
	}
	m.Info = m.Job.Info()
	switch m.Info.State {
	case job.StateFinished:
		m.Screen = ScreenFinished
		m.Percent = 100
		m.Output = m.Info.Output
	case job.StateFailed:
		m.Screen = ScreenFailed
		m.Err = errors.New(m.Info.Error)
	}
	return m, nil
}

func (m Model) handleTick(msg TickMsg) (tea.Model, tea.Cmd) {
	if m.Screen != ScreenCompressing {
		return m, nil
	}
	m.Now = msg.Time
	if m.Job != nil {
		m.Info = m.Job.Info()
	}
	return m, tickCmd()
}
