package tracker

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/tramctl/internal/config"
	"github.com/danmuck/tramctl/internal/protocol"
	"github.com/danmuck/tramctl/internal/registry"
	"github.com/danmuck/tramctl/internal/testutil/testlog"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func serveOnce(t *testing.T, payload []byte) (config.Config, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	release := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write(payload)
		<-release
	}()
	host, portRaw, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portRaw)
	cfg := config.Default()
	cfg.Source.Host = host
	cfg.Source.Port = port
	return cfg, func() {
		close(release)
		_ = ln.Close()
	}
}

func TestServiceTextDashboardEndToEnd(t *testing.T) {
	testlog.Start(t)
	payload := []byte("\x07MSGTYPE\x08LOCATION\x07TRAM_ID\x07TRAMABC\x05VALUE\x04CITY" +
		"\x07MSGTYPE\x0fPASSENGER_COUNT\x07TRAM_ID\x07TRAMABC\x05VALUE\x0250")
	cfg, cleanup := serveOnce(t, payload)
	defer cleanup()

	var out syncBuffer
	svc, err := NewService(cfg, &out)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.RunContext(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), "Passenger Count: 50") {
		if time.Now().After(deadline) {
			t.Fatalf("dashboard never showed the count; output=%q", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !strings.Contains(out.String(), "Tram TRAMABC:\n    Location: CITY\n") {
		t.Fatalf("unexpected dashboard output %q", out.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("service did not stop")
	}
	if err := svc.Registry().MergeLocation("T", "x"); !errors.Is(err, registry.ErrClosed) {
		t.Fatalf("registry should be closed after run, got %v", err)
	}
}

func TestServiceFatalDesyncStopsAll(t *testing.T) {
	testlog.Start(t)
	cfg, cleanup := serveOnce(t, []byte("\x06MSGTYPE"))
	defer cleanup()
	cfg.Render.Mode = config.RenderNone
	cfg.Status.Addr = "127.0.0.1:0"

	svc, err := NewService(cfg, &syncBuffer{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- svc.RunContext(context.Background()) }()
	select {
	case err := <-done:
		if !errors.Is(err, protocol.ErrDesync) {
			t.Fatalf("expected ErrDesync, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("service did not stop on desync")
	}
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	testlog.Start(t)
	cfg := config.Default()
	cfg.Render.Mode = "gui"
	if _, err := NewService(cfg, &syncBuffer{}); err == nil {
		t.Fatalf("expected validation error")
	}
}
