// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ZSC714725/videocompressor/internal/ffmpeg/parse"
	"github.com/ZSC714725/videocompressor/internal/ffmpeg/skills"
	"github.com/ZSC714725/videocompressor/internal/logger"
	"github.com/ZSC714725/videocompressor/internal/process"
)

// FFmpeg manages the FFmpeg and FFprobe binaries
type FFmpeg interface {
	New(config ProcessConfig) (process.Process, error)
	NewParser(config ParserConfig) parse.Parser
	Probe(ctx context.Context, input string) (float64, error)
	ValidateInput(path string) bool
	Skills() skills.Skills
	ReloadSkills() error
}

// ProcessConfig for creating an encoder process
type ProcessConfig struct {
	Args          []string
	Parser        process.Parser
	Logger        logger.Logger
	OnStart       func(pid int)
	OnStateChange func(from, to string)
}

// ParserConfig for the stderr parser of one encode
type ParserConfig struct {
	Duration  float64
	OnPercent func(int)
	OnSkip    func(string)
}

// Config for FFmpeg
type Config struct {
	Binary         string
	ProbeBinary    string
	BundleDir      string
	MaxLogLines    int
	ValidatorInput Validator
}

type ffmpeg struct {
	binary      string
	probe       string
	validatorIn Validator
	skills      skills.Skills
	logLines    int
	skillsLock  sync.RWMutex
}

// New resolves the binaries, detects the skills and fails when the
// compression pipeline cannot run on this build.
func New(config Config) (FFmpeg, error) {
	binary, err := Resolve(config.BundleDir, config.Binary, "ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg binary: %w", err)
	}

	probeBinary := config.ProbeBinary
	if probeBinary == "" {
		probeBinary = ProbePathFor(binary)
	}
	probe, err := Resolve(config.BundleDir, probeBinary, "ffprobe")
	if err != nil {
		return nil, fmt.Errorf("invalid ffprobe binary: %w", err)
	}

	f := &ffmpeg{
		binary:   binary,
		probe:    probe,
		logLines: config.MaxLogLines,
	}
	if f.logLines <= 0 {
		f.logLines = 100
	}

	if config.ValidatorInput != nil {
		f.validatorIn = config.ValidatorInput
	} else {
		f.validatorIn, _ = NewValidator(nil, nil)
	}

	if err := f.ReloadSkills(); err != nil {
		return nil, err
	}
	return f, nil
}

// Resolve prefers <bundleDir>/<name>[.exe] and falls back to looking up
// configured in PATH.
func Resolve(bundleDir, configured, name string) (string, error) {
	if bundleDir != "" {
		candidate := filepath.Join(bundleDir, ExecutableName(name))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs, nil
			}
			return candidate, nil
		}
	}
	if configured == "" {
		configured = name
	}
	return exec.LookPath(configured)
}

// ExecutableName appends .exe on Windows
func ExecutableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// ProbePathFor derives the ffprobe path that sits next to an ffmpeg binary
func ProbePathFor(ffmpegPath string) string {
	dir, base := filepath.Split(ffmpegPath)
	if !strings.Contains(base, "ffmpeg") {
		return "ffprobe"
	}
	return dir + strings.Replace(base, "ffmpeg", "ffprobe", 1)
}

func (f *ffmpeg) New(config ProcessConfig) (process.Process, error) {
	return process.New(process.Config{
		Binary:        f.binary,
		Args:          config.Args,
		Parser:        config.Parser,
		Sampler:       process.NewSysSampler(),
		Logger:        config.Logger,
		OnStart:       config.OnStart,
		OnStateChange: config.OnStateChange,
	})
}

func (f *ffmpeg) NewParser(config ParserConfig) parse.Parser {
	return parse.New(parse.Config{
		LogLines:  f.logLines,
		Duration:  config.Duration,
		OnPercent: config.OnPercent,
		OnSkip:    config.OnSkip,
	})
}

func (f *ffmpeg) Probe(ctx context.Context, input string) (float64, error) {
	return probeDuration(ctx, f.probe, input)
}

func (f *ffmpeg) ValidateInput(path string) bool {
	return f.validatorIn.IsValid(path)
}

func (f *ffmpeg) Skills() skills.Skills {
	f.skillsLock.RLock()
	defer f.skillsLock.RUnlock()
	return f.skills
}

func (f *ffmpeg) ReloadSkills() error {
	s, err := skills.New(f.binary)
	if err != nil {
		return fmt.Errorf("invalid ffmpeg: %w", err)
	}
	if missing := s.Missing(); len(missing) > 0 {
		return fmt.Errorf("ffmpeg %s lacks %s", s.FFmpeg.Version, strings.Join(missing, ", "))
	}
	f.skillsLock.Lock()
	f.skills = s
	f.skillsLock.Unlock()
	return nil
}
