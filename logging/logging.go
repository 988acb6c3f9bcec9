// Package logging builds the process zerolog.Logger
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/config"
)

// New builds a logger writing to stderr according to cfg
func New(cfg *config.Config) zerolog.Logger {
	return NewWriter(cfg, os.Stderr)
}

// NewWriter builds a logger writing to w
// Pretty output uses zerolog's console writer; otherwise JSON lines
func NewWriter(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.LogPretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
