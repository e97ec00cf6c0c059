// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package parse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

const timeMarker = "time="

// ErrMalformedTime is returned for a time= value that is not HH:MM:SS[.frac]
var ErrMalformedTime = errors.New("malformed time value")

// Timestamp returns the text following the last time= marker up to the next
// whitespace. ok is false when the line has no marker.
func Timestamp(line string) (string, bool) {
	i := strings.LastIndex(line, timeMarker)
	if i < 0 {
		return "", false
	}
	rest := line[i+len(timeMarker):]
	if end := strings.IndexFunc(rest, unicode.IsSpace); end >= 0 {
		rest = rest[:end]
	}
	return rest, true
}

// ParseTimestamp converts HH:MM:SS[.frac] into seconds
func ParseTimestamp(ts string) (float64, error) {
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, ts)
	}
	var v [3]float64
	for i, p := range parts {
		x, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTime, ts)
		}
		v[i] = x
	}
	return v[0]*3600 + v[1]*60 + v[2], nil
}

// Percent maps elapsed seconds onto [0,100] of total
func Percent(elapsed, total float64) int {
	pct := math.Floor(elapsed / total * 100)
	if math.IsNaN(pct) || pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// LinePercent is the stateless form of Tracker.OnStatusLine. Lines without a
// time= marker and lines whose timestamp does not parse both yield ok=false.
func LinePercent(line string, total float64) (int, bool) {
	ts, ok := Timestamp(line)
	if !ok {
		return 0, false
	}
	elapsed, err := ParseTimestamp(ts)
	if err != nil {
		return 0, false
	}
	return Percent(elapsed, total), true
}

// Tracker turns encoder status lines into completion percentages for one job
type Tracker struct {
	total   float64
	last    int
	skipped uint64
	lock    sync.Mutex
}

// NewTracker creates a tracker for a source of total seconds
func NewTracker(total float64) *Tracker {
	return &Tracker{total: total}
}

// OnStatusLine returns the percent for line, or ok=false when the line
// carries no usable time= marker. Malformed timestamps are counted and skipped.
func (t *Tracker) OnStatusLine(line string) (int, bool) {
	ts, ok := Timestamp(line)
	if !ok {
		return 0, false
	}
	elapsed, err := ParseTimestamp(ts)

	t.lock.Lock()
	defer t.lock.Unlock()
	if err != nil {
		t.skipped++
		return 0, false
	}
	t.last = Percent(elapsed, t.total)
	return t.last, true
}

// Percent returns the last reported percent
func (t *Tracker) Percent() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.last
}

// Skipped counts lines with an unparsable timestamp
func (t *Tracker) Skipped() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.skipped
}

// Reset sets the state back to 0%
func (t *Tracker) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.last = 0
	t.skipped = 0
}
