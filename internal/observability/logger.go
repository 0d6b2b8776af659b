package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerOptions shapes the console logger.
type LoggerOptions struct {
	Output    io.Writer
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

// NewLogger builds a console logger tagged with app.
func NewLogger(app string, opts LoggerOptions) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	}
	if !opts.Timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(output).Level(opts.Level).With()
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Str("app", app).Logger()
}

// InitLogger installs a logger for app as the process-wide zerolog logger.
func InitLogger(app string, opts LoggerOptions) zerolog.Logger {
	logger := NewLogger(app, opts)
	log.Logger = logger
	return logger
}
