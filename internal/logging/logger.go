package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Options struct {
	Level  zerolog.Level
	Format string
	// File, when set, also writes JSON logs to a size-rotated file.
	File string
	// Output defaults to stderr.
	Output io.Writer
}

// NewLogger builds a logger from opts and installs it as the global and default context
// logger, so code holding no request logger still logs through it.
func NewLogger(opts Options) (*zerolog.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	switch opts.Format {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	if opts.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	logger := zerolog.New(out).Level(opts.Level).With().Timestamp().Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return &logger, nil
}

// LevelFromVerbosity maps the number of -v flags to a level: none is warn, then info,
// debug and trace.
func LevelFromVerbosity(n int) zerolog.Level {
	switch {
	case n <= 0:
		return zerolog.WarnLevel
	case n == 1:
		return zerolog.InfoLevel
	case n == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
