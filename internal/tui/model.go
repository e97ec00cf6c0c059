// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package tui

import (
	"time"

	"github.com/ZSC714725/videocompressor/internal/job"

	tea "github.com/charmbracelet/bubbletea"
)

// Screen is what the TUI currently shows
type Screen string

const (
	ScreenWelcome     Screen = "welcome"
	ScreenProbing     Screen = "probing"
	ScreenCompressing Screen = "compressing"
	ScreenFinished    Screen = "finished"
	ScreenFailed      Screen = "failed"
)

// Options for a new model
type Options struct {
	Runner      job.Runner
	Input       string
	TargetMB    int
	MinTargetMB int
	MaxTargetMB int
	// AutoStart skips the welcome screen
	AutoStart bool
	// OpenFolder shows a directory in the file manager, "o" on the
	// finished screen. Defaults to the platform opener.
	OpenFolder func(dir string) error
}

// Model is the state of the terminal front end for one job
type Model struct {
	runner    job.Runner
	minTarget int
	maxTarget int
	autoStart bool
	open      func(dir string) error

	Input    string
	TargetMB int
	Screen   Screen

	Job     *job.Job
	Info    job.Info
	Percent int
	Output  string
	Err     error
	Started time.Time
	Now     time.Time
	// Opened is the folder last shown in the file manager
	Opened  string
	OpenErr error

	events <-chan job.Event
	cancel func()
}

// NewModel creates a model on the welcome screen
func NewModel(opts Options) Model {
	m := Model{
		runner:    opts.Runner,
		minTarget: opts.MinTargetMB,
		maxTarget: opts.MaxTargetMB,
		autoStart: opts.AutoStart,
		open:      opts.OpenFolder,
		Input:     opts.Input,
		TargetMB:  opts.TargetMB,
		Screen:    ScreenWelcome,
	}
	if m.open == nil {
		m.open = openFolder
	}
	if m.minTarget <= 0 {
		m.minTarget = 1
	}
	if m.maxTarget < m.minTarget {
		m.maxTarget = m.minTarget
	}
	m.TargetMB = clamp(m.TargetMB, m.minTarget, m.maxTarget)
	return m
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	if m.autoStart {
		return func() tea.Msg { return startMsg{} }
	}
	return nil
}

// Done reports whether the job reached a final screen
func (m Model) Done() bool {
	return m.Screen == ScreenFinished || m.Screen == ScreenFailed
}

type startMsg struct{}

func (m Model) start() (Model, tea.Cmd) {
	m.Screen = ScreenProbing
	m.Err = nil
	m.Percent = 0
	return m, submitJob(m.runner, job.Request{Input: m.Input, TargetMB: m.TargetMB})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
