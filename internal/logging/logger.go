package logging

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"

	"trackapi/internal/config"
)

// New builds the service logger from configuration.
// Logs go to stdout unless a file is configured, in which case the file is rotated by lumberjack.
func New(cfg config.LogConfig, loc *time.Location) zerolog.Logger {
	var output io.Writer = os.Stdout
	if cfg.File != "" {
		output = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			Compress:   cfg.Compress,
		}
	}
	return NewWithWriter(output, ParseLevel(cfg.Level), loc)
}

// NewWithWriter creates a JSON logger writing one object per line to w.
// Every entry carries a "ts" field rendered in loc.
func NewWithWriter(w io.Writer, level zerolog.Level, loc *time.Location) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	return zerolog.New(w).Level(level).Hook(timestampHook{loc: loc})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

type timestampHook struct {
	loc *time.Location
}

func (h timestampHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str("ts", time.Now().In(h.loc).Format(time.RFC3339Nano))
}
