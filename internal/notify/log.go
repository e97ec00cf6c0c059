// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package notify

import (
	"context"

	"github.com/ZSC714725/videocompressor/internal/job"
	"github.com/ZSC714725/videocompressor/internal/logger"
)

// Log writes job events to a logger. Progress goes to debug level.
type Log struct {
	logger logger.Logger
}

// NewLog creates a logging notifier
func NewLog(l logger.Logger) *Log {
	if l == nil {
		l = logger.Nop()
	}
	return &Log{logger: l}
}

func (l *Log) Notify(ctx context.Context, ev job.Event) error {
	switch ev.Type {
	case job.EventProgress:
		l.logger.Debug("job %s: %d%%", ev.JobID, ev.Percent)
	case job.EventFailed:
		l.logger.Error("job %s: failed at %d%%: %s", ev.JobID, ev.Percent, ev.Error)
	case job.EventFinished:
		l.logger.Info("job %s: finished -> %s", ev.JobID, ev.Output)
	default:
		l.logger.Info("job %s: %s", ev.JobID, ev.Type)
	}
	return nil
}
