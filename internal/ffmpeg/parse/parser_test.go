// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package parse

import (
	"fmt"
	"testing"
)

func TestParserProgress(t *testing.T) {
	var percents []int
	var skipped []string
	p := New(Config{
		Duration:  60,
		OnPercent: func(pct int) { percents = append(percents, pct) },
		OnSkip:    func(line string) { skipped = append(skipped, line) },
	})

	lines := []string{
		"Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'in.mp4':",
		"  Duration: 00:01:00.00, start: 0.000000, bitrate: 5000 kb/s",
		"frame=    0 fps=0.0 q=0.0 size=       0kB time=N/A bitrate=N/A speed=N/A",
		"frame=  750 fps= 48 q=28.0 size=    1024kB time=00:00:30.00 bitrate= 279.6kbits/s speed=1.92x",
		"frame= 1500 fps= 50 q=28.0 size=    2048KiB time=00:00:59.00 bitrate= 284.3kbits/s speed=1.97x",
	}
	var status uint64
	for _, l := range lines {
		status += p.Parse(l)
	}

	if status != 3 {
		t.Errorf("status lines = %d, want 3", status)
	}
	if fmt.Sprint(percents) != "[50 98]" {
		t.Errorf("percents = %v", percents)
	}
	if len(skipped) != 1 {
		t.Errorf("skipped = %v", skipped)
	}

	prog := p.Progress()
	if prog.Frame != 1500 {
		t.Errorf("frame = %d", prog.Frame)
	}
	if prog.FPS != 50 {
		t.Errorf("fps = %v", prog.FPS)
	}
	if prog.Size != 2048*1024 {
		t.Errorf("size = %d", prog.Size)
	}
	if prog.Time != 59 {
		t.Errorf("time = %v", prog.Time)
	}
	if prog.Bitrate != 284.3 {
		t.Errorf("bitrate = %v", prog.Bitrate)
	}
	if prog.Speed != 1.97 {
		t.Errorf("speed = %v", prog.Speed)
	}
	if prog.Percent != 98 {
		t.Errorf("percent = %d", prog.Percent)
	}
	if prog.Skipped != 1 {
		t.Errorf("skipped = %d", prog.Skipped)
	}

	if n := len(p.Log()); n != len(lines) {
		t.Errorf("log has %d lines, want %d", n, len(lines))
	}

	p.ResetStats()
	if got := p.Progress(); got != (Progress{}) {
		t.Errorf("after reset: %+v", got)
	}
}

func TestParserLogRing(t *testing.T) {
	p := New(Config{LogLines: 3, Duration: 10})
	for i := 0; i < 5; i++ {
		p.Parse(fmt.Sprintf("line %d", i))
	}

	log := p.Log()
	if len(log) != 3 {
		t.Fatalf("log length = %d", len(log))
	}
	if log[0].Data != "line 2" || log[2].Data != "line 4" {
		t.Errorf("log = %v", log)
	}

	p.ResetLog()
	if len(p.Log()) != 0 {
		t.Error("log not cleared")
	}
}
