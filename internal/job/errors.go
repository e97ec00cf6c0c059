// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package job

import "errors"

var (
	ErrNotFound      = errors.New("job not found")
	ErrBusy          = errors.New("another job is running")
	ErrInvalidInput  = errors.New("invalid input file")
	ErrInvalidTarget = errors.New("invalid target size")
	ErrProbe         = errors.New("can't read source duration")
	ErrEncodeFailed  = errors.New("encode failed")
	ErrOutputMissing = errors.New("encoder produced no output file")
)
