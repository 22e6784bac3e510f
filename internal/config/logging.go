package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the process logger. When a log file is configured logs go
// there; otherwise they go to console, which the caller sets to io.Discard
// while the TUI owns the terminal. An unparsable level falls back to info.
func NewLogger(cfg LoggingConfig, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.File != "" {
		path, err := expandPath(cfg.File)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return zerolog.Nop(), nopCloser{}, err
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, err
		}
		logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
		return logger, f, nil
	}

	if console == nil || console == io.Discard {
		return zerolog.Nop(), nopCloser{}, nil
	}
	writer := zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, nopCloser{}, nil
}
