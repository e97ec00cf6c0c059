// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides a simple logging interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Config selects the slog handler behind a Logger
type Config struct {
	Prefix string
	Level  string // debug, info, warn, error
	Format string // text, json
	Output io.Writer
}

type slogLogger struct {
	prefix string
	log    *slog.Logger
}

// New returns a text logger at info level writing to stdout
func New(prefix string) Logger {
	return NewWithConfig(Config{Prefix: prefix})
}

// NewWithConfig builds a Logger from cfg. Unknown levels fall back to info,
// unknown formats to text.
func NewWithConfig(cfg Config) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	l := slog.New(handler)
	if cfg.Prefix != "" {
		l = l.With("component", cfg.Prefix)
	}
	return &slogLogger{prefix: cfg.Prefix, log: l}
}

// ParseLevel maps a level name to slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *slogLogger) Info(format string, args ...interface{}) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Error(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Debug(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

type nopLogger struct{}

// Nop discards everything
func Nop() Logger { return nopLogger{} }

func (nopLogger) Info(format string, args ...interface{})  {}
func (nopLogger) Error(format string, args ...interface{}) {}
func (nopLogger) Debug(format string, args ...interface{}) {}
