// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package process

import "time"

// Parser consumes process output (FFmpeg stderr) line by line
type Parser interface {
	// Parse returns non-zero for status lines
	Parse(line string) uint64
	ResetStats()
	ResetLog()
	Log() []Line
}

// Line is a timestamped log line
type Line struct {
	Timestamp time.Time
	Data      string
}

type nullParser struct{}

func (nullParser) Parse(line string) uint64 { return 0 }
func (nullParser) ResetStats()              {}
func (nullParser) ResetLog()                {}
func (nullParser) Log() []Line              { return nil }
