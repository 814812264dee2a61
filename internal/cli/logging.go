package cli

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/roach88/decsync/internal/config"
)

// newLogger builds the command logger. With a log file configured, logs are
// JSON lines in a size-rotated file; otherwise text on stderr. verbose forces
// debug level.
func newLogger(cfg config.LogConfig, verbose bool, stderr io.Writer) (*slog.Logger, func() error, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if cfg.File == "" {
		return slog.New(slog.NewTextHandler(stderr, handlerOpts)), func() error { return nil }, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	return slog.New(slog.NewJSONHandler(rotator, handlerOpts)), rotator.Close, nil
}
