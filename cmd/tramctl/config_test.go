package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/tramctl/internal/config"
	"github.com/danmuck/tramctl/internal/ingest"
	"github.com/danmuck/tramctl/internal/testutil/testlog"
)

func TestParseArgsPortOnly(t *testing.T) {
	testlog.Start(t)
	cfg, opts, err := parseArgs([]string{"8081"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.help || opts.writeConfig != "" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	want := config.Default()
	want.Source.Port = 8081
	if cfg != want {
		t.Fatalf("unexpected config:\n got %+v\nwant %+v", cfg, want)
	}
}

func TestParseArgsMissingOrBadPort(t *testing.T) {
	testlog.Start(t)
	if _, _, err := parseArgs(nil, io.Discard); !errors.Is(err, errNoPort) {
		t.Fatalf("expected errNoPort, got %v", err)
	}
	for _, args := range [][]string{{"abc"}, {"0"}, {"70000"}, {"80", "81"}} {
		if _, _, err := parseArgs(args, io.Discard); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestParseArgsExampleConfigThenFlags(t *testing.T) {
	testlog.Start(t)
	cfg, _, err := parseArgs([]string{
		"--config", "ex.config.toml",
		"--render", "none",
		"--on-value-error", "abort",
		"--log-level", "debug",
		"--status-token", "s3cret",
		"6000",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Source.Port != 6000 {
		t.Fatalf("positional port should win, got %d", cfg.Source.Port)
	}
	if !cfg.Source.Reconnect || cfg.Source.MaxConnectAttempts != 0 {
		t.Fatalf("file settings lost: %+v", cfg.Source)
	}
	if cfg.Decode.OnFrameError != ingest.FrameReconnect || cfg.Decode.OnValueError != ingest.ValueAbort {
		t.Fatalf("unexpected policies: %+v", cfg.Decode)
	}
	if cfg.Render.Mode != config.RenderNone || cfg.Status.Addr != "127.0.0.1:9090" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected render/status/log: %+v %+v %+v", cfg.Render, cfg.Status, cfg.Log)
	}
	if cfg.Status.Token != "s3cret" {
		t.Fatalf("expected status token from flag, got %q", cfg.Status.Token)
	}
}

func TestParseArgsFlagValidation(t *testing.T) {
	testlog.Start(t)
	cases := [][]string{
		{"--render", "gui", "8081"},
		{"--render", "none", "8081"},
		{"--on-frame-error", "scan", "8081"},
		{"--bogus", "8081"},
	}
	for _, args := range cases {
		if _, _, err := parseArgs(args, io.Discard); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestParseArgsHelpAndWriteConfig(t *testing.T) {
	testlog.Start(t)
	_, opts, err := parseArgs([]string{"-h"}, io.Discard)
	if err != nil || !opts.help {
		t.Fatalf("expected help, opts=%+v err=%v", opts, err)
	}
	_, opts, err = parseArgs([]string{"--write-config", "out.toml"}, io.Discard)
	if err != nil || opts.writeConfig != "out.toml" {
		t.Fatalf("expected write-config, opts=%+v err=%v", opts, err)
	}
}

func TestLogOutputKeepsDashboardTerminalClean(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		mode     string
		terminal bool
		discard  bool
	}{
		{mode: config.RenderText, terminal: true, discard: true},
		{mode: config.RenderText, terminal: false, discard: false},
		{mode: config.RenderTUI, terminal: false, discard: true},
		{mode: config.RenderNone, terminal: true, discard: false},
	}
	for _, tc := range cases {
		cfg := config.Default()
		cfg.Render.Mode = tc.mode
		out, closeLog, err := logOutput(cfg, tc.terminal)
		if err != nil {
			t.Fatalf("%s terminal=%v: %v", tc.mode, tc.terminal, err)
		}
		closeLog()
		if (out == io.Discard) != tc.discard {
			t.Fatalf("%s terminal=%v: expected discard=%v, got %T", tc.mode, tc.terminal, tc.discard, out)
		}
	}

	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "tramctl.log")
	out, closeLog, err := logOutput(cfg, true)
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	defer closeLog()
	if _, ok := out.(*os.File); !ok {
		t.Fatalf("expected log file writer, got %T", out)
	}
}
