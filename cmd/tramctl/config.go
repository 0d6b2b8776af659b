package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/tramctl/internal/config"
	"github.com/danmuck/tramctl/internal/ingest"
	"github.com/spf13/pflag"
)

var errNoPort = errors.New("no port provided")

// options holds what the command line asked for beyond the service config.
type options struct {
	help        bool
	writeConfig string
}

// parseArgs resolves defaults < --config file < flags < positional port.
func parseArgs(args []string, stderr io.Writer) (config.Config, options, error) {
	var (
		opts         options
		configPath   string
		host         string
		render       string
		statusAddr   string
		statusToken  string
		reconnect    bool
		onFrameError string
		onValueError string
		logLevel     string
		logFile      string
	)

	flagSet := pflag.NewFlagSet("tramctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "path to a TOML config file")
	flagSet.StringVar(&host, "host", "", "feed host (default 127.0.0.1)")
	flagSet.StringVar(&render, "render", "", "dashboard mode: text, tui or none")
	flagSet.StringVar(&statusAddr, "status-addr", "", "serve the status API on this address")
	flagSet.StringVar(&statusToken, "status-token", "", "bearer token required by the status API")
	flagSet.BoolVar(&reconnect, "reconnect", false, "redial after connection errors")
	flagSet.StringVar(&onFrameError, "on-frame-error", "", "abort or reconnect after a corrupt frame")
	flagSet.StringVar(&onValueError, "on-value-error", "", "skip or abort on an unparseable value")
	flagSet.StringVar(&logLevel, "log-level", "", "trace, debug, info, warn, error or off")
	flagSet.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	flagSet.StringVar(&opts.writeConfig, "write-config", "", "write an example config to this path and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		return config.Config{}, opts, err
	}
	if opts.help || opts.writeConfig != "" {
		return config.Config{}, opts, nil
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, opts, err
		}
		cfg = loaded
	}

	if flagSet.Changed("host") {
		cfg.Source.Host = strings.TrimSpace(host)
	}
	if flagSet.Changed("render") {
		cfg.Render.Mode = strings.ToLower(strings.TrimSpace(render))
	}
	if flagSet.Changed("status-addr") {
		cfg.Status.Addr = strings.TrimSpace(statusAddr)
	}
	if flagSet.Changed("status-token") {
		cfg.Status.Token = strings.TrimSpace(statusToken)
	}
	if flagSet.Changed("reconnect") {
		cfg.Source.Reconnect = reconnect
	}
	if flagSet.Changed("on-frame-error") {
		p, err := ingest.ParseFramePolicy(onFrameError)
		if err != nil {
			return config.Config{}, opts, err
		}
		cfg.Decode.OnFrameError = p
	}
	if flagSet.Changed("on-value-error") {
		p, err := ingest.ParseValuePolicy(onValueError)
		if err != nil {
			return config.Config{}, opts, err
		}
		cfg.Decode.OnValueError = p
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = strings.TrimSpace(logLevel)
	}
	if flagSet.Changed("log-file") {
		cfg.Log.File = strings.TrimSpace(logFile)
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		return config.Config{}, opts, errNoPort
	}
	if len(rest) > 1 {
		return config.Config{}, opts, fmt.Errorf("unexpected argument: %s", rest[1])
	}
	port, err := config.ParsePort(rest[0])
	if err != nil {
		return config.Config{}, opts, err
	}
	cfg.Source.Port = port

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, opts, err
	}
	return cfg, opts, nil
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `tramctl shows live tram locations and passenger counts from a feed server.

Usage:
  tramctl [flags] <port>

Flags:
  --config path          TOML config file (see --write-config)
  --host h               feed host (default 127.0.0.1)
  --render mode          text (default), tui or none
  --status-addr addr     serve /health, /trams and /metrics on addr
  --status-token t       require "Authorization: Bearer t" (except /health)
  --reconnect            redial after connection errors
  --on-frame-error p     abort (default) or reconnect
  --on-value-error p     skip (default) or abort
  --log-level lvl        trace, debug, info, warn, error, off
  --log-file path        write logs to a file; without one, logs are dropped while
                         the text or tui dashboard owns the terminal
  --write-config path    write an example config and exit
  -h, --help             show help
`)
}
