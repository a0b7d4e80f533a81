// Package logger wraps zerolog with rotation support, matching the logging
// conventions used across the control core and its diagnostics surface.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zerolog.Logger with rotation-aware output.
type Logger struct {
	zerolog.Logger
	writer io.Writer
	mu     sync.Mutex
}

var (
	global     *Logger
	globalOnce sync.Once
)

// Config holds logger configuration, loaded from the application config file.
type Config struct {
	Path       string
	Level      string
	Format     string // "json" or "console"
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Init initializes the process-wide global logger exactly once.
func Init(cfg Config) error {
	var err error
	globalOnce.Do(func() {
		global, err = New(cfg)
	})
	return err
}

// Global returns the process-wide logger, falling back to stderr if Init was
// never called (useful in tests).
func Global() *Logger {
	if global == nil {
		l, _ := New(Config{Level: "info", Format: "console"})
		return l
	}
	return global
}

// New builds a standalone logger instance.
func New(cfg Config) (*Logger, error) {
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("logger: create log directory: %w", err)
		}
	}

	var writer io.Writer
	if cfg.Path != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	} else {
		writer = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = writer
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zlog := zerolog.New(out).Level(level).With().Timestamp().Logger()

	return &Logger{Logger: zlog, writer: writer}, nil
}

// ForDevice returns a child logger tagged with the device identifier, the
// pattern every component above the Gateway uses so that a single device's
// multi-step dialogs can be grepped out of the shared log stream.
func (l *Logger) ForDevice(deviceID string) zerolog.Logger {
	return l.Logger.With().Str("device_id", deviceID).Logger()
}
