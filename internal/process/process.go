// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频
//
// Package process runs one FFmpeg invocation and feeds its stderr to a Parser.

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrAlreadyStarted is returned by a second call to Run
var ErrAlreadyStarted = errors.New("process already started")

// Process is a single run of an external binary
type Process interface {
	// Run starts the binary and blocks until it exits. Cancelling ctx
	// interrupts the process, then kills it after KillDelay.
	Run(ctx context.Context) error
	Status() Status
	IsRunning() bool
}

// Config for a process
type Config struct {
	Binary        string
	Args          []string
	Parser        Parser
	Sampler       Sampler
	Logger        Logger
	KillDelay     time.Duration
	OnStart       func(pid int)
	OnStateChange func(from, to string)
}

// Status of a process
type Status struct {
	State    string
	PID      int
	ExitCode int
	Duration time.Duration
	Time     time.Time
	LastLine string
	CPU      float64
	Memory   uint64
}

// Logger interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

type stateType string

const (
	stateIdle      stateType = "idle"
	stateStarting  stateType = "starting"
	stateRunning   stateType = "running"
	stateFinishing stateType = "finishing"
	stateFinished  stateType = "finished"
	stateFailed    stateType = "failed"
	stateKilled    stateType = "killed"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateStarting || s == stateRunning || s == stateFinishing
}

// allowed state transitions
var transitions = map[stateType][]stateType{
	stateIdle:      {stateStarting},
	stateStarting:  {stateRunning, stateFailed},
	stateRunning:   {stateFinishing, stateFinished, stateFailed, stateKilled},
	stateFinishing: {stateFinished, stateFailed, stateKilled},
}

type process struct {
	binary    string
	args      []string
	killDelay time.Duration
	parser    Parser
	sampler   Sampler
	logger    Logger

	cmd *exec.Cmd

	state struct {
		state    stateType
		time     time.Time
		pid      int
		exitCode int
		lastLine string
		lock     sync.Mutex
	}
	onStart       func(pid int)
	onStateChange func(from, to string)
}

// New creates a new process
func New(config Config) (Process, error) {
	if len(config.Binary) == 0 {
		return nil, fmt.Errorf("no valid binary given")
	}

	p := &process{
		binary:        config.Binary,
		args:          config.Args,
		killDelay:     config.KillDelay,
		parser:        config.Parser,
		sampler:       config.Sampler,
		logger:        config.Logger,
		onStart:       config.OnStart,
		onStateChange: config.OnStateChange,
	}
	if p.parser == nil {
		p.parser = nullParser{}
	}
	if p.sampler == nil {
		p.sampler = NewNullSampler()
	}
	if p.logger == nil {
		p.logger = nopLogger{}
	}
	if p.killDelay <= 0 {
		p.killDelay = 5 * time.Second
	}

	p.state.state = stateIdle
	p.state.time = time.Now()
	p.state.exitCode = -1
	return p, nil
}

func (p *process) setState(state stateType) error {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()

	prev := p.state.state
	ok := false
	for _, next := range transitions[prev] {
		if next == state {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("can't change from %s to %s", prev, state)
	}

	p.state.state = state
	p.state.time = time.Now()
	if p.onStateChange != nil {
		go p.onStateChange(prev.String(), state.String())
	}
	return nil
}

func (p *process) getState() stateType {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return p.state.state
}

func (p *process) IsRunning() bool {
	return p.getState().IsRunning()
}

func (p *process) Status() Status {
	cpu, memory := p.sampler.Current()

	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return Status{
		State:    p.state.state.String(),
		PID:      p.state.pid,
		ExitCode: p.state.exitCode,
		Duration: time.Since(p.state.time),
		Time:     p.state.time,
		LastLine: p.state.lastLine,
		CPU:      cpu,
		Memory:   memory,
	}
}

func (p *process) Run(ctx context.Context) error {
	if err := p.setState(stateStarting); err != nil {
		return ErrAlreadyStarted
	}

	p.cmd = exec.Command(p.binary, p.args...)

	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		p.setState(stateFailed)
		p.parser.Parse(err.Error())
		return err
	}

	p.parser.ResetStats()
	p.parser.ResetLog()

	if err := p.cmd.Start(); err != nil {
		p.setState(stateFailed)
		p.parser.Parse(err.Error())
		return fmt.Errorf("start %s: %w", p.binary, err)
	}

	pid := p.cmd.Process.Pid
	p.state.lock.Lock()
	p.state.pid = pid
	p.state.lock.Unlock()

	if err := p.sampler.Start(pid); err != nil {
		p.logger.Debug("sampler for pid %d: %v", pid, err)
	}
	p.setState(stateRunning)
	p.logger.Debug("started %s (pid %d)", p.binary, pid)

	if p.onStart != nil {
		go p.onStart(pid)
	}

	done := make(chan struct{})
	interrupted := make(chan struct{})
	go p.watch(ctx, done, interrupted)

	p.read(stderr)
	err = p.wait()
	close(done)

	p.sampler.Stop()

	select {
	case <-interrupted:
		if err == nil {
			err = ctx.Err()
		} else {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
	default:
	}
	return err
}

// watch interrupts the process when ctx ends before it exits
func (p *process) watch(ctx context.Context, done, interrupted chan struct{}) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	close(interrupted)
	p.setState(stateFinishing)

	if runtime.GOOS == "windows" {
		p.cmd.Process.Kill()
		return
	}
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		p.cmd.Process.Kill()
		return
	}

	timer := time.NewTimer(p.killDelay)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		p.logger.Info("pid %d ignored interrupt, killing", p.cmd.Process.Pid)
		p.cmd.Process.Kill()
	}
}

func (p *process) read(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Split(scanLine)

	for scanner.Scan() {
		line := scanner.Text()
		p.state.lock.Lock()
		p.state.lastLine = line
		p.state.lock.Unlock()
		p.parser.Parse(line)
	}
	if err := scanner.Err(); err != nil {
		p.logger.Error("read output of %s: %v", p.binary, err)
		// drain so the child never blocks on a full pipe
		io.Copy(io.Discard, r)
	}
}

func (p *process) wait() error {
	err := p.cmd.Wait()

	exitCode := -1
	if p.cmd.ProcessState != nil {
		exitCode = p.cmd.ProcessState.ExitCode()
	}
	p.state.lock.Lock()
	p.state.exitCode = exitCode
	lastLine := p.state.lastLine
	p.state.lock.Unlock()

	if err == nil {
		p.setState(stateFinished)
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitCode >= 0 {
		p.setState(stateFailed)
		return fmt.Errorf("%s exited with code %d: %s", p.binary, exitCode, lastLine)
	}
	p.setState(stateKilled)
	return fmt.Errorf("%s: %w", p.binary, err)
}

// scanLine splits on \n and \r; FFmpeg rewrites its status line with \r.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

type nopLogger struct{}

func (nopLogger) Info(format string, args ...interface{})  {}
func (nopLogger) Error(format string, args ...interface{}) {}
func (nopLogger) Debug(format string, args ...interface{}) {}
