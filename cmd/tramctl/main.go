package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/tramctl/internal/config"
	"github.com/danmuck/tramctl/internal/logging"
	"github.com/danmuck/tramctl/internal/tracker"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tramctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, opts, err := parseArgs(args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		printHelp(os.Stdout)
		return nil
	}
	if errors.Is(err, errNoPort) {
		printHelp(os.Stderr)
		return err
	}
	if err != nil {
		return err
	}
	if opts.help {
		printHelp(os.Stdout)
		return nil
	}
	if opts.writeConfig != "" {
		return config.WriteTemplate(opts.writeConfig, false)
	}

	logOut, closeLog, err := logOutput(cfg, isatty.IsTerminal(os.Stdout.Fd()))
	if err != nil {
		return err
	}
	defer closeLog()
	logging.ConfigureRuntime(logging.Options{
		App:    "tramctl",
		Level:  cfg.Log.Level,
		Output: logOut,
	})

	svc, err := tracker.NewService(cfg, os.Stdout)
	if err != nil {
		return err
	}
	return svc.Run()
}

// logOutput picks the log destination. The TUI always owns the terminal, and
// the text dashboard owns it when stdout is a terminal, so without a log file
// those logs are dropped. Fatal errors still reach stderr from main.
func logOutput(cfg config.Config, stdoutIsTerminal bool) (io.Writer, func(), error) {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}
	switch {
	case cfg.Render.Mode == config.RenderTUI:
		return io.Discard, func() {}, nil
	case cfg.Render.Mode == config.RenderText && stdoutIsTerminal:
		return io.Discard, func() {}, nil
	}
	return os.Stderr, func() {}, nil
}
