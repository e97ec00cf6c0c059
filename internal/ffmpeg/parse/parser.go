// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package parse

import (
	"container/ring"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ZSC714725/videocompressor/internal/process"
)

// Progress holds FFmpeg progress info parsed from stderr
type Progress struct {
	Frame   uint64  `json:"frame"`
	FPS     float64 `json:"fps"`
	Size    uint64  `json:"size_bytes"`
	Time    float64 `json:"time_seconds"`
	Bitrate float64 `json:"bitrate_kbit"`
	Speed   float64 `json:"speed"`
	Percent int     `json:"percent"`
	Skipped uint64  `json:"skipped_lines"`
}

// Parser implements process.Parser for one encode
type Parser interface {
	process.Parser
	Progress() Progress
}

// Config for the parser
type Config struct {
	LogLines int
	// Duration of the source in seconds, the 100% mark
	Duration float64
	// OnPercent is called for every status line that yields a percent
	OnPercent func(percent int)
	// OnSkip is called for status lines whose time= value does not parse
	OnSkip func(line string)
}

type parser struct {
	re struct {
		frame   *regexp.Regexp
		fps     *regexp.Regexp
		size    *regexp.Regexp
		bitrate *regexp.Regexp
		speed   *regexp.Regexp
	}

	tracker   *Tracker
	onPercent func(int)
	onSkip    func(string)

	log      *ring.Ring
	logLines int

	progress Progress
	lock     sync.RWMutex
}

// New creates a Parser
func New(config Config) Parser {
	p := &parser{
		logLines:  config.LogLines,
		tracker:   NewTracker(config.Duration),
		onPercent: config.OnPercent,
		onSkip:    config.OnSkip,
	}
	if p.logLines <= 0 {
		p.logLines = 100
	}
	p.re.frame = regexp.MustCompile(`frame=\s*([0-9]+)`)
	p.re.fps = regexp.MustCompile(`fps=\s*([0-9\.]+)`)
	p.re.size = regexp.MustCompile(`size=\s*([0-9]+)(kB|KiB)`)
	p.re.bitrate = regexp.MustCompile(`bitrate=\s*([0-9\.]+)kbits/s`)
	p.re.speed = regexp.MustCompile(`speed=\s*([0-9\.]+)x`)

	p.log = ring.New(p.logLines)
	return p
}

// Parse records line and returns 1 for status lines, 0 otherwise
func (p *parser) Parse(line string) uint64 {
	now := time.Now()

	p.lock.Lock()
	p.log.Value = process.Line{Timestamp: now, Data: line}
	p.log = p.log.Next()

	if !strings.Contains(line, timeMarker) {
		p.lock.Unlock()
		return 0
	}

	if m := p.re.frame.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Frame = x
		}
	}
	if m := p.re.fps.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.FPS = x
		}
	}
	if m := p.re.size.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Size = x * 1024
		}
	}
	if m := p.re.bitrate.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Bitrate = x
		}
	}
	if m := p.re.speed.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Speed = x
		}
	}
	if ts, ok := Timestamp(line); ok {
		if secs, err := ParseTimestamp(ts); err == nil {
			p.progress.Time = secs
		}
	}

	pct, ok := p.tracker.OnStatusLine(line)
	if ok {
		p.progress.Percent = pct
	}
	p.progress.Skipped = p.tracker.Skipped()
	p.lock.Unlock()

	// callbacks run outside the lock so they may call Progress()
	if ok {
		if p.onPercent != nil {
			p.onPercent(pct)
		}
	} else if p.onSkip != nil {
		p.onSkip(line)
	}
	return 1
}

func (p *parser) ResetStats() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.progress = Progress{}
	p.tracker.Reset()
}

func (p *parser) ResetLog() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.log = ring.New(p.logLines)
}

func (p *parser) Log() []process.Line {
	var out []process.Line
	p.lock.RLock()
	p.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(process.Line))
		}
	})
	p.lock.RUnlock()
	return out
}

func (p *parser) Progress() Progress {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.progress
}
