// Log file rotation support
//
// Size-based rotation is delegated to lumberjack; this wraps it behind
// the same config surface the rest of the code uses.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"fmt"
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// Filename is the path to the log file.
	Filename string

	// MaxSize is the maximum size in megabytes before rotation.
	// Default is 10 MB.
	MaxSize int

	// MaxBackups is the maximum number of old log files to retain.
	// Default is 5.
	MaxBackups int

	// Compress determines if rotated files should be gzipped.
	Compress bool
}

// NewRotatingFileWriter creates an io.WriteCloser that appends to
// Filename and rotates it when it exceeds MaxSize.
func NewRotatingFileWriter(config RotationConfig) (io.WriteCloser, error) {
	if config.Filename == "" {
		return nil, fmt.Errorf("log: filename is required")
	}

	maxSize := config.MaxSize
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := config.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}

	return &lumberjack.Logger{
		Filename:   config.Filename,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   config.Compress,
	}, nil
}
