// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidator(t *testing.T) {
	v, err := NewValidator([]string{`(?i)\.(mp4|avi|mkv|mov|wmv)$`, " "}, []string{`^/private/`})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		path string
		want bool
	}{
		{"/videos/a.mp4", true},
		{"/videos/a.MOV", true},
		{"/videos/a.wmv", true},
		{"/videos/a.webm", false},
		{"/videos/a.mp4.txt", false},
		{"/private/a.mp4", false},
	}
	for _, tt := range tests {
		if got := v.IsValid(tt.path); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	open, _ := NewValidator(nil, nil)
	if !open.IsValid("anything") {
		t.Error("empty validator should accept")
	}

	if _, err := NewValidator([]string{"("}, nil); err == nil {
		t.Error("expected compile error")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		out     string
		want    float64
		wantErr bool
	}{
		{"60.000000\n", 60, false},
		{"  12.5 \r\n", 12.5, false},
		{"30.5\n31.0\n", 30.5, false},
		{"", 0, true},
		{"\n", 0, true},
		{"N/A\n", 0, true},
		{"0.000000\n", 0, true},
		{"-4\n", 0, true},
		{"nan\n", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration([]byte(tt.out))
		if tt.wantErr {
			if !errors.Is(err, ErrProbe) {
				t.Errorf("ParseDuration(%q) err = %v, want ErrProbe", tt.out, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", tt.out, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.out, got, tt.want)
		}
	}
}

func TestProbeArgs(t *testing.T) {
	args := ProbeArgs("/in/a.mp4")
	want := []string{"-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", "/in/a.mp4"}
	if len(args) != len(want) {
		t.Fatalf("args = %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestProbePathFor(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ffmpeg", "ffprobe"},
		{"/usr/local/bin/ffmpeg", "/usr/local/bin/ffprobe"},
		{"/opt/bin/ffmpeg.exe", "/opt/bin/ffprobe.exe"},
		{"/opt/bin/avconv", "ffprobe"},
	}
	for _, tt := range tests {
		if got := ProbePathFor(tt.in); got != tt.want {
			t.Errorf("ProbePathFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolvePrefersBundle(t *testing.T) {
	dir := t.TempDir()
	bundled := filepath.Join(dir, ExecutableName("ffprobe"))
	if err := os.WriteFile(bundled, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(dir, "does-not-exist-anywhere", "ffprobe")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filepath.Base(got) != ExecutableName("ffprobe") || !filepath.IsAbs(got) {
		t.Errorf("Resolve = %q", got)
	}

	if _, err := Resolve(t.TempDir(), "does-not-exist-anywhere", "ffprobe"); err == nil {
		t.Error("expected lookup error")
	}
}

func fakeProbe(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProbeDuration(t *testing.T) {
	ok := fakeProbe(t, `echo "93.250000"`)
	d, err := probeDuration(context.Background(), ok, "/in/a.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if d != 93.25 {
		t.Errorf("duration = %v", d)
	}

	failing := fakeProbe(t, `echo "/in/a.mp4: Invalid data found when processing input" >&2; exit 1`)
	_, err = probeDuration(context.Background(), failing, "/in/a.mp4")
	if !errors.Is(err, ErrProbe) {
		t.Fatalf("err = %v, want ErrProbe", err)
	}
	if want := "Invalid data found"; !strings.Contains(err.Error(), want) {
		t.Errorf("err %q does not carry stderr", err)
	}

	empty := fakeProbe(t, `exit 0`)
	if _, err := probeDuration(context.Background(), empty, "/in/a.mp4"); !errors.Is(err, ErrProbe) {
		t.Errorf("empty output err = %v", err)
	}
}
