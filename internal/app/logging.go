package app

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig holds configuration for the process logger.
type LogConfig struct {
	Service string
	Version string
	Level   zerolog.Level

	// Pretty writes human-readable lines instead of JSON.
	Pretty bool
}

// NewLogger creates the process logger writing to w.
func NewLogger(w io.Writer, cfg LogConfig) zerolog.Logger {
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).
		Level(cfg.Level).
		With().
		Timestamp().
		Str("service", cfg.Service).
		Str("version", cfg.Version).
		Logger()
}
