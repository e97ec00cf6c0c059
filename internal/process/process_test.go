// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package process

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordParser struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordParser) Parse(line string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	return 0
}
func (r *recordParser) ResetStats() {}
func (r *recordParser) ResetLog()   {}
func (r *recordParser) Log() []Line { return nil }

func (r *recordParser) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func shell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not found")
	}
	return sh
}

func TestScanLine(t *testing.T) {
	input := "first\nframe=1 time=00:00:01.00\rframe=2 time=00:00:02.00\r\n\nlast"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanLine)

	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	want := []string{"first", "frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00", "last"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunSuccess(t *testing.T) {
	sh := shell(t)
	parser := &recordParser{}
	var states []string
	var mu sync.Mutex

	p, err := New(Config{
		Binary: sh,
		Args:   []string{"-c", `printf 'hello\nframe=1 time=00:00:01.00\rframe=2 time=00:00:02.00\n' 1>&2`},
		Parser: parser,
		OnStateChange: func(from, to string) {
			mu.Lock()
			states = append(states, to)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := parser.get()
	if len(lines) != 3 || lines[2] != "frame=2 time=00:00:02.00" {
		t.Errorf("lines = %q", lines)
	}

	st := p.Status()
	if st.State != "finished" {
		t.Errorf("state = %s", st.State)
	}
	if st.ExitCode != 0 {
		t.Errorf("exit code = %d", st.ExitCode)
	}
	if st.LastLine != "frame=2 time=00:00:02.00" {
		t.Errorf("last line = %q", st.LastLine)
	}
	if p.IsRunning() {
		t.Error("still running")
	}

	if err := p.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Run err = %v", err)
	}
}

func TestRunFailure(t *testing.T) {
	sh := shell(t)
	p, err := New(Config{
		Binary: sh,
		Args:   []string{"-c", "echo 'Conversion failed!' 1>&2; exit 3"},
	})
	if err != nil {
		t.Fatal(err)
	}

	err = p.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "code 3") || !strings.Contains(err.Error(), "Conversion failed!") {
		t.Errorf("err = %v", err)
	}
	if st := p.Status(); st.State != "failed" || st.ExitCode != 3 {
		t.Errorf("status = %+v", st)
	}
}

func TestRunMissingBinary(t *testing.T) {
	p, err := New(Config{Binary: "/definitely/not/here/ffmpeg"})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	if st := p.Status(); st.State != "failed" {
		t.Errorf("state = %s", st.State)
	}
}

func TestRunContextCancel(t *testing.T) {
	sh := shell(t)
	p, err := New(Config{
		Binary:    sh,
		Args:      []string{"-c", "exec sleep 30"},
		KillDelay: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("process was not stopped")
	}
	if p.IsRunning() {
		t.Error("still running")
	}
}
