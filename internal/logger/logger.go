// Package logger builds the zerolog logger of the process.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config defines the logger options.
type Config struct {
	// Level is one of "debug", "info", "warn" or "error". Default "info".
	Level string

	// Console switches stdout to the human readable console writer.
	Console bool

	// File, when set, also writes JSON lines to a rotating file.
	File string

	// FileSize is the maximum size in megabytes before rotation. Default 10.
	FileSize int

	// FileCount is the number of rotated files kept. Default 5.
	FileCount int
}

// Init builds the process logger from cfg.
func Init(cfg Config) zerolog.Logger {
	if cfg.FileSize == 0 {
		cfg.FileSize = 10
	}
	if cfg.FileCount == 0 {
		cfg.FileCount = 5
	}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	} else {
		writers = append(writers, os.Stdout)
	}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.FileSize,
			MaxBackups: cfg.FileCount,
			MaxAge:     28,
		})
	}

	return New(zerolog.MultiLevelWriter(writers...), cfg.Level)
}

// New returns a timestamped logger writing to w at the given level.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a configured level name to zerolog. Unknown names mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}
