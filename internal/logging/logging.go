// Package logging points the standard logger at stderr and, when
// configured, a size-rotated log file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/radio-control/sdrfe/internal/config"
)

// Flags is the prefix layout used by every sdrfe binary.
const Flags = log.LstdFlags | log.Lmicroseconds | log.Lshortfile

// Setup configures the standard logger from cfg. The returned closer
// releases the log file and is safe to call when no file was configured.
func Setup(cfg config.LogConfig) io.Closer {
	return setup(log.Default(), os.Stderr, cfg)
}

func setup(l *log.Logger, console io.Writer, cfg config.LogConfig) io.Closer {
	l.SetFlags(Flags)

	if cfg.File == "" {
		l.SetOutput(console)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	l.SetOutput(io.MultiWriter(console, file))
	return file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
