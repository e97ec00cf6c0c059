// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const barWidth = 40

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("🎬 VideoCompressor"))
	b.WriteString("\n")

	switch m.Screen {
	case ScreenWelcome:
		b.WriteString(fmt.Sprintf("File:   %s\n", m.Input))
		b.WriteString(fmt.Sprintf("Target: %s\n\n", HighlightStyle.Render(fmt.Sprintf("%d MB", m.TargetMB))))
		b.WriteString(InfoStyle.Render(fmt.Sprintf("+/- to change the target (%d-%d MB) | Enter to start | q to quit", m.minTarget, m.maxTarget)))
	case ScreenProbing:
		b.WriteString(StatusStyle.Render("⏳ Reading video duration..."))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render(filepath.Base(m.Input)))
	case ScreenCompressing:
		b.WriteString(fmt.Sprintf("Compressing %s to %d MB\n\n", filepath.Base(m.Input), m.TargetMB))
		b.WriteString(ProgressBar(m.Percent, barWidth))
		b.WriteString(fmt.Sprintf(" %3d%%\n\n", m.Percent))
		b.WriteString(InfoStyle.Render(m.stats()))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("Press 'q' or Ctrl+C to abort"))
	case ScreenFinished:
		box := StatusStyle.Render("✅ Compression complete") + "\n\n" + fmt.Sprintf("Saved to: %s", m.Output)
		b.WriteString(BoxStyle.Render(box))
		b.WriteString("\n\n")
		switch {
		case m.OpenErr != nil:
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("Can't open %s: %v", m.Opened, m.OpenErr)))
			b.WriteString("\n\n")
		case m.Opened != "":
			b.WriteString(InfoStyle.Render("Opened " + m.Opened))
			b.WriteString("\n\n")
		}
		b.WriteString(HighlightStyle.Render("Press 'o' to open the folder | Enter or 'q' to exit"))
	case ScreenFailed:
		msg := "unknown error"
		if m.Err != nil {
			msg = m.Err.Error()
		}
		b.WriteString(BoxStyle.Render(ErrorStyle.Render("❌ Compression failed") + "\n\n" + msg))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("Press 'r' to retry | Enter or 'q' to exit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) stats() string {
	parts := []string{fmt.Sprintf("elapsed %s", m.Now.Sub(m.Started).Truncate(time.Second))}
	if m.Info.VideoBitrate > 0 {
		parts = append(parts, fmt.Sprintf("video %d kbit/s", m.Info.VideoBitrate/1000))
	}
	if p := m.Info.Progress; p != nil && p.Speed > 0 {
		parts = append(parts, fmt.Sprintf("speed %.2fx", p.Speed))
	}
	if p := m.Info.Process; p != nil && p.CPU > 0 {
		parts = append(parts, fmt.Sprintf("cpu %.0f%%", p.CPU))
	}
	return strings.Join(parts, " | ")
}

// ProgressBar renders percent as a bar of width cells
func ProgressBar(percent, width int) string {
	percent = clamp(percent, 0, 100)
	filled := percent * width / 100
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}
