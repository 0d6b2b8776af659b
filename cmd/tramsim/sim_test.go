package main

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/danmuck/tramctl/internal/protocol"
	"github.com/danmuck/tramctl/internal/protocol/schema"
	"github.com/danmuck/tramctl/internal/registry"
	"github.com/danmuck/tramctl/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func TestGeneratorStreamDecodes(t *testing.T) {
	testlog.Start(t)
	cfg := defaultSimConfig()
	cfg.MaxChunk = 7
	g := newGenerator(cfg, 1)

	var stream []byte
	var sent []protocol.UpdateRecord
	for i := 0; i < 200; i++ {
		rec := g.next()
		sent = append(sent, rec)
		var err error
		stream, err = protocol.AppendRecord(stream, schema.Default(), rec)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	a := protocol.NewDefaultAssembler()
	var decoded []protocol.UpdateRecord
	for _, chunk := range g.chunks(stream) {
		if len(chunk) > cfg.MaxChunk {
			t.Fatalf("chunk of %d bytes exceeds max %d", len(chunk), cfg.MaxChunk)
		}
		recs, err := a.Feed(chunk)
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		decoded = append(decoded, recs...)
	}
	if diff := cmp.Diff(sent, decoded); diff != "" {
		t.Fatalf("decoded stream mismatch (-sent +decoded):\n%s", diff)
	}
}

func TestGeneratorBadValues(t *testing.T) {
	testlog.Start(t)
	cfg := defaultSimConfig()
	cfg.BadValueRate = 1
	g := newGenerator(cfg, 3)
	for i := 0; i < 50; i++ {
		rec := g.next()
		if rec.Discriminant == schema.DiscriminantPassengerCount && rec.RawValue != "n/a" {
			t.Fatalf("expected bad value, got %q", rec.RawValue)
		}
	}
}

func TestSimConfigValidate(t *testing.T) {
	testlog.Start(t)
	if err := defaultSimConfig().validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, mutate := range []func(*simConfig){
		func(c *simConfig) { c.Trams = 0 },
		func(c *simConfig) { c.MaxChunk = 0 },
		func(c *simConfig) { c.MaxCount = 70000 },
		func(c *simConfig) { c.BadValueRate = 2 },
	} {
		cfg := defaultSimConfig()
		mutate(&cfg)
		if err := cfg.validate(); err == nil {
			t.Fatalf("expected validation error for %+v", cfg)
		}
	}
}

func TestSimulatorServesDecodableFeed(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	cfg := defaultSimConfig()
	cfg.Interval = time.Millisecond
	cfg.Seed = 7
	cfg.MaxChunk = 5
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newSimulator(cfg).Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	a := protocol.NewDefaultAssembler()
	buf := make([]byte, 64)
	var recs []protocol.UpdateRecord
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for len(recs) < 20 {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		got, err := a.Feed(buf[:n])
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		recs = append(recs, got...)
	}
	for _, rec := range recs {
		if !rec.Discriminant.Valid() || rec.EntityID == "" {
			t.Fatalf("bad record %+v", rec)
		}
		if rec.Discriminant.String() == "PASSENGER_COUNT" {
			if _, err := registry.ParsePassengerCount(rec.RawValue); err != nil {
				t.Fatalf("bad count %q", rec.RawValue)
			}
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("simulator did not stop")
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := io.ReadAll(conn); err != nil {
		t.Fatalf("expected clean close after shutdown, got %v", err)
	}
}
