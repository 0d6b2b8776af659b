package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/tramctl/internal/protocol"
	"github.com/danmuck/tramctl/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

var stops = []string{
	"CITY", "DEPOT", "HARBOUR", "UNIVERSITY", "STADIUM",
	"MARKET", "HOSPITAL", "AIRPORT", "PARK", "MUSEUM",
}

type simConfig struct {
	Interval     time.Duration
	Trams        int
	Seed         int64
	MaxChunk     int
	MaxCount     int
	BadValueRate float64
}

func defaultSimConfig() simConfig {
	return simConfig{
		Interval: 500 * time.Millisecond,
		Trams:    5,
		Seed:     time.Now().UnixNano(),
		MaxChunk: 16,
		MaxCount: 120,
	}
}

func (c simConfig) validate() error {
	if c.Trams < 1 {
		return fmt.Errorf("trams must be >= 1")
	}
	if c.MaxChunk < 1 {
		return fmt.Errorf("max-chunk must be >= 1")
	}
	if c.MaxCount < 0 || c.MaxCount > 65535 {
		return fmt.Errorf("max-count must be in 0-65535")
	}
	if c.BadValueRate < 0 || c.BadValueRate > 1 {
		return fmt.Errorf("bad-value-rate must be in 0-1")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be >= 0")
	}
	return nil
}

// generator produces a random feed for a fixed fleet.
type generator struct {
	cfg simConfig
	rng *rand.Rand
}

func newGenerator(cfg simConfig, seed int64) *generator {
	return &generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

func (g *generator) next() protocol.UpdateRecord {
	id := fmt.Sprintf("TRAM%03d", g.rng.Intn(g.cfg.Trams)+1)
	if g.rng.Intn(2) == 0 {
		return protocol.UpdateRecord{
			Discriminant: schema.DiscriminantLocation,
			EntityID:     id,
			RawValue:     stops[g.rng.Intn(len(stops))],
		}
	}
	value := strconv.Itoa(g.rng.Intn(g.cfg.MaxCount + 1))
	if g.cfg.BadValueRate > 0 && g.rng.Float64() < g.cfg.BadValueRate {
		value = "n/a"
	}
	return protocol.UpdateRecord{
		Discriminant: schema.DiscriminantPassengerCount,
		EntityID:     id,
		RawValue:     value,
	}
}

// chunks splits b into random pieces of 1..MaxChunk bytes.
func (g *generator) chunks(b []byte) [][]byte {
	var out [][]byte
	for len(b) > 0 {
		n := 1 + g.rng.Intn(g.cfg.MaxChunk)
		if n > len(b) {
			n = len(b)
		}
		out = append(out, b[:n])
		b = b[n:]
	}
	return out
}

type simulator struct {
	cfg   simConfig
	mu    sync.Mutex
	conns map[net.Conn]struct{}
	seq   int64
}

func newSimulator(cfg simConfig) *simulator {
	return &simulator{cfg: cfg, conns: make(map[net.Conn]struct{})}
}

// Serve accepts feed clients on ln until ctx ends.
func (s *simulator) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		s.closeAll()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.track(conn)
		go s.handleConn(ctx, conn)
	}
}

func (s *simulator) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer s.untrack(conn)
	remote := conn.RemoteAddr().String()
	log.Info().Str("remote", remote).Msg("tramsim client connected")

	s.mu.Lock()
	s.seq++
	g := newGenerator(s.cfg, s.cfg.Seed+s.seq)
	s.mu.Unlock()

	ticker := time.NewTicker(max(s.cfg.Interval, time.Millisecond))
	defer ticker.Stop()
	var buf []byte
	for {
		rec := g.next()
		var err error
		buf, err = protocol.AppendRecord(buf[:0], schema.Default(), rec)
		if err != nil {
			log.Error().Err(err).Msg("tramsim encode")
			return
		}
		for _, chunk := range g.chunks(buf) {
			if _, err := conn.Write(chunk); err != nil {
				log.Info().Str("remote", remote).Err(err).Msg("tramsim client gone")
				return
			}
		}
		log.Debug().Str("record", rec.String()).Msg("tramsim sent")
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *simulator) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *simulator) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *simulator) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
