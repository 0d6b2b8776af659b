package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/tramctl/internal/ingest"
	"github.com/danmuck/tramctl/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tramctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadTemplateMatchesDefaults(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, Template())
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("template drifted from defaults:\n got %+v\nwant %+v", cfg, Default())
	}
}

func TestLoadOverridesOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
[source]
port = 9000
read_timeout = "2s"
reconnect = true
max_connect_attempts = 0

[decode]
on_frame_error = "reconnect"

[render]
mode = "TUI"

[log]
file = "tramctl.log"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.Host != "127.0.0.1" || cfg.Source.Port != 9000 {
		t.Fatalf("unexpected source: %+v", cfg.Source)
	}
	if cfg.Source.ReadTimeout != 2*time.Second || cfg.Source.ConnectTimeout != 5*time.Second {
		t.Fatalf("unexpected timeouts: %+v", cfg.Source)
	}
	if !cfg.Source.Reconnect || cfg.Source.MaxConnectAttempts != 0 {
		t.Fatalf("unexpected reconnect settings: %+v", cfg.Source)
	}
	if cfg.Decode.OnFrameError != ingest.FrameReconnect || cfg.Decode.OnValueError != ingest.ValueSkip {
		t.Fatalf("unexpected decode policies: %+v", cfg.Decode)
	}
	if cfg.Render.Mode != RenderTUI || cfg.Log.File != "tramctl.log" || cfg.Log.Level != "info" {
		t.Fatalf("unexpected render/log: %+v %+v", cfg.Render, cfg.Log)
	}

	ic := cfg.Ingest()
	if ic.Address != "127.0.0.1:9000" || !ic.Reconnect || ic.Session.ReadTimeout != 2*time.Second || ic.Session.MaxConnectAttempts != 0 {
		t.Fatalf("unexpected ingest config: %+v", ic)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"duration":    "[source]\nread_timeout = \"soon\"\n",
		"port":        "[source]\nport = 70000\n",
		"policy":      "[decode]\non_value_error = \"zero\"\n",
		"render":      "[render]\nmode = \"gui\"\n",
		"headless":    "[render]\nmode = \"none\"\n",
		"level":       "[log]\nlevel = \"loud\"\n",
		"unknown key": "[source]\nhots = \"x\"\n",
		"buffer":      "[source]\nread_buffer = 0\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParsePort(t *testing.T) {
	testlog.Start(t)
	for _, raw := range []string{"1", "8081", "65535", " 80 "} {
		if _, err := ParsePort(raw); err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
	}
	for _, raw := range []string{"", "0", "65536", "-1", "80a", "http"} {
		if _, err := ParsePort(raw); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "tramctl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal, got %v", err)
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestLoadStatusToken(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
[status]
addr = "127.0.0.1:9090"
token = "  s3cret "
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Status.Token != "s3cret" || cfg.Status.Addr != "127.0.0.1:9090" {
		t.Fatalf("unexpected status config: %+v", cfg.Status)
	}
}
