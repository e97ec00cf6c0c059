// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ZSC714725/videocompressor/internal/job"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel() Model {
	return NewModel(Options{Input: "/videos/trip.mp4", TargetMB: 20, MinTargetMB: 1, MaxTargetMB: 500})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelClampsTarget(t *testing.T) {
	tests := []struct {
		target, want int
	}{
		{20, 20},
		{0, 1},
		{900, 500},
	}
	for _, tt := range tests {
		m := NewModel(Options{TargetMB: tt.target, MinTargetMB: 1, MaxTargetMB: 500})
		if m.TargetMB != tt.want {
			t.Errorf("target %d: got %d, want %d", tt.target, m.TargetMB, tt.want)
		}
	}
}

func TestWelcomeAdjustTarget(t *testing.T) {
	m := newTestModel()
	m = update(t, m, key("+"))
	m = update(t, m, key("+"))
	m = update(t, m, key("-"))
	if m.TargetMB != 21 {
		t.Errorf("target = %d, want 21", m.TargetMB)
	}

	m.TargetMB = 500
	m = update(t, m, key("+"))
	if m.TargetMB != 500 {
		t.Errorf("target = %d, want clamp at 500", m.TargetMB)
	}
}

func TestEnterStartsProbing(t *testing.T) {
	m := newTestModel()
	next, cmd := m.Update(key("enter"))
	if next.(Model).Screen != ScreenProbing {
		t.Errorf("screen = %s, want probing", next.(Model).Screen)
	}
	if cmd == nil {
		t.Error("expected submit command")
	}
}

func TestAutoStart(t *testing.T) {
	m := NewModel(Options{Input: "a.mp4", TargetMB: 20, AutoStart: true})
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("expected start command")
	}
	m = update(t, m, cmd())
	if m.Screen != ScreenProbing {
		t.Errorf("screen = %s, want probing", m.Screen)
	}
}

func TestSubmitRejected(t *testing.T) {
	m := newTestModel()
	m.Screen = ScreenProbing
	m = update(t, m, SubmittedMsg{Err: job.ErrProbe})

	if m.Screen != ScreenFailed {
		t.Fatalf("screen = %s, want failed", m.Screen)
	}
	if !strings.Contains(m.View(), "Compression failed") {
		t.Error("failed view missing headline")
	}
}

func TestProgressToFinished(t *testing.T) {
	events := make(chan job.Event)
	m := newTestModel()
	m = update(t, m, SubmittedMsg{Events: events, Cancel: func() {}})
	if m.Screen != ScreenCompressing {
		t.Fatalf("screen = %s, want compressing", m.Screen)
	}

	m = update(t, m, EventMsg{Event: job.Event{Type: job.EventStarted}})
	m = update(t, m, EventMsg{Event: job.Event{Type: job.EventProgress, Percent: 37}})
	if m.Percent != 37 {
		t.Errorf("percent = %d, want 37", m.Percent)
	}
	if !strings.Contains(m.View(), " 37%") {
		t.Errorf("view missing percent: %s", m.View())
	}

	next, cmd := m.Update(EventMsg{Event: job.Event{Type: job.EventFinished, Percent: 100, Output: "/videos/trip_compressed.mp4"}})
	m = next.(Model)
	if cmd != nil {
		t.Error("no command expected after terminal event")
	}
	if m.Screen != ScreenFinished || m.Output != "/videos/trip_compressed.mp4" {
		t.Errorf("screen = %s, output = %s", m.Screen, m.Output)
	}
	if !strings.Contains(m.View(), "trip_compressed.mp4") {
		t.Error("finished view missing output path")
	}
}

func TestFailedEvent(t *testing.T) {
	m := newTestModel()
	m = update(t, m, SubmittedMsg{Events: make(chan job.Event), Cancel: func() {}})
	m = update(t, m, EventMsg{Event: job.Event{Type: job.EventFailed, Percent: 12, Error: "encode failed: exited with code 1"}})

	if m.Screen != ScreenFailed {
		t.Fatalf("screen = %s", m.Screen)
	}
	if m.Err == nil || !strings.Contains(m.Err.Error(), "code 1") {
		t.Errorf("err = %v", m.Err)
	}

	next, cmd := m.Update(key("r"))
	if next.(Model).Screen != ScreenProbing || cmd == nil {
		t.Error("r should retry from the failed screen")
	}
}

func TestQuitCancelsSubscription(t *testing.T) {
	cancelled := false
	m := newTestModel()
	m = update(t, m, SubmittedMsg{Events: make(chan job.Event), Cancel: func() { cancelled = true }})

	_, cmd := m.Update(key("q"))
	if !cancelled {
		t.Error("subscription not cancelled on quit")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestTickOnlyWhileCompressing(t *testing.T) {
	m := newTestModel()
	if _, cmd := m.Update(TickMsg{Time: time.Now()}); cmd != nil {
		t.Error("tick on welcome screen should stop")
	}

	m = update(t, m, SubmittedMsg{Events: make(chan job.Event), Cancel: func() {}})
	now := m.Started.Add(3 * time.Second)
	next, cmd := m.Update(TickMsg{Time: now})
	if cmd == nil {
		t.Error("tick should continue while compressing")
	}
	if !strings.Contains(next.(Model).View(), "elapsed 3s") {
		t.Errorf("view missing elapsed time: %s", next.(Model).View())
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent, filled int
	}{
		{0, 0},
		{50, 10},
		{100, 20},
		{150, 20},
		{-5, 0},
	}
	for _, tt := range tests {
		bar := ProgressBar(tt.percent, 20)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("ProgressBar(%d) filled = %d, want %d", tt.percent, got, tt.filled)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != 20 {
			t.Errorf("ProgressBar(%d) width = %d", tt.percent, got)
		}
	}
}

func TestEventsClosedFallsBackToJob(t *testing.T) {
	m := newTestModel()
	m.Screen = ScreenCompressing
	m = update(t, m, EventsClosedMsg{})
	if m.Screen != ScreenCompressing {
		t.Errorf("screen = %s, closing without a job keeps the screen", m.Screen)
	}
}

func TestOpenFolderAfterFinish(t *testing.T) {
	var opened []string
	m := NewModel(Options{
		Input:    "/videos/trip.mp4",
		TargetMB: 20,
		OpenFolder: func(dir string) error {
			opened = append(opened, dir)
			return nil
		},
	})

	if _, cmd := m.Update(key("o")); cmd != nil {
		t.Error("o on the welcome screen should do nothing")
	}

	m.Screen = ScreenFinished
	m.Output = "/videos/trip_compressed.mp4"
	_, cmd := m.Update(key("o"))
	if cmd == nil {
		t.Fatal("expected open command")
	}
	m = update(t, m, cmd())

	if len(opened) != 1 || opened[0] != "/videos" {
		t.Errorf("opened = %v, want [/videos]", opened)
	}
	if !strings.Contains(m.View(), "Opened /videos") {
		t.Errorf("view missing opened folder: %s", m.View())
	}

	m = update(t, m, FolderOpenedMsg{Dir: "/videos", Err: errors.New("no file manager")})
	if !strings.Contains(m.View(), "no file manager") {
		t.Errorf("view missing open error: %s", m.View())
	}
}
