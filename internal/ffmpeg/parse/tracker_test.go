// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package parse

import (
	"errors"
	"testing"
)

func TestLinePercent(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		total  float64
		want   int
		wantOK bool
	}{
		{"half way", "frame=10 time=00:00:30.00 bitrate=500kbits/s", 60, 50, true},
		{"overshoot clamps", "frame=10 time=00:01:00.00 bitrate=500kbits/s", 30, 100, true},
		{"no marker", "frame=10 fps=25", 60, 0, false},
		{"hours", "size=100kB time=01:30:00.00 bitrate=1.0kbits/s", 3 * 3600, 50, true},
		{"no fraction", "time=00:00:06 speed=1x", 60, 10, true},
		{"floors", "time=00:00:59.99 x", 60, 99, true},
		{"end of line", "frame=1 time=00:00:15.50", 60, 25, true},
		{"tab terminated", "frame=1 time=00:00:15.50\tbitrate=1", 60, 25, true},
		{"last marker wins", "out time=00:00:10.00 time=00:00:20.00 x", 40, 50, true},
		{"N/A is skipped", "frame=0 time=N/A bitrate=N/A", 60, 0, false},
		{"two fields skipped", "time=00:30.00 x", 60, 0, false},
		{"letters skipped", "time=aa:bb:cc x", 60, 0, false},
		{"negative clamps to zero", "time=-00:00:00.04 x", 60, 0, true},
		{"zero", "time=00:00:00.00 x", 60, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LinePercent(tt.line, tt.total)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("percent = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	secs, err := ParseTimestamp("01:02:03.5")
	if err != nil {
		t.Fatal(err)
	}
	if secs != 3723.5 {
		t.Errorf("secs = %v", secs)
	}

	for _, bad := range []string{"", "N/A", "1:2", "1:2:3:4", "x:00:00", "00:00:NaN"} {
		if _, err := ParseTimestamp(bad); !errors.Is(err, ErrMalformedTime) {
			t.Errorf("ParseTimestamp(%q) err = %v, want ErrMalformedTime", bad, err)
		}
	}
}

func TestPercentClamp(t *testing.T) {
	tests := []struct {
		elapsed, total float64
		want           int
	}{
		{0, 10, 0},
		{5, 10, 50},
		{10, 10, 100},
		{25, 10, 100},
		{-1, 10, 0},
		{1, 0, 100},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.elapsed, tt.total); got != tt.want {
			t.Errorf("Percent(%v, %v) = %d, want %d", tt.elapsed, tt.total, got, tt.want)
		}
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker(100)

	if _, ok := tr.OnStatusLine("Input #0, mov,mp4,m4a,3gp,3g2,mj2"); ok {
		t.Fatal("unrelated line produced a percent")
	}
	if pct, ok := tr.OnStatusLine("frame=1 time=00:00:25.00 x"); !ok || pct != 25 {
		t.Fatalf("got %d %v", pct, ok)
	}
	if _, ok := tr.OnStatusLine("frame=2 time=garbage x"); ok {
		t.Fatal("malformed line produced a percent")
	}
	if tr.Percent() != 25 {
		t.Errorf("last percent = %d, want 25", tr.Percent())
	}
	if tr.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1", tr.Skipped())
	}

	tr.Reset()
	if tr.Percent() != 0 || tr.Skipped() != 0 {
		t.Errorf("after reset: percent %d skipped %d", tr.Percent(), tr.Skipped())
	}
}
