// Package logging builds the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "15:04:05.000"

// Config selects the level and outputs of the root logger.
type Config struct {
	Level string
	// File, when set, receives JSON lines in addition to the console.
	File string
	// Console overrides the console destination. Nil means stderr.
	Console io.Writer
}

// Logger is the root logger plus the file it owns, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New builds a logger that writes human-readable lines to the console and,
// optionally, JSON to a file.
func New(cfg Config) (*Logger, error) {
	zerolog.ErrorFieldName = "err"

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: consoleTimeFormat}}

	var file *os.File
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		opened, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = opened
		writers = append(writers, zerolog.SyncWriter(file))
	}

	root := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(cfg.Level, zerolog.InfoLevel)).
		With().Timestamp().Logger()
	return &Logger{Logger: root, file: file}, nil
}

// Close releases the log file.
func (logger *Logger) Close() error {
	if logger == nil || logger.file == nil {
		return nil
	}
	return logger.file.Close()
}

// ParseLevel maps a level name to a zerolog level, falling back to def.
func ParseLevel(name string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "OFF", "DISABLED":
		return zerolog.Disabled
	default:
		return def
	}
}
