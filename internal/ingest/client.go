package ingest

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/tramctl/internal/dispatch"
	"github.com/danmuck/tramctl/internal/observability"
	"github.com/danmuck/tramctl/internal/protocol"
	"github.com/danmuck/tramctl/internal/protocol/session"
	"github.com/danmuck/tramctl/internal/registry"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyRunning = errors.New("ingest: client already running")

// State is the connection state of a Client.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateBackoff
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Update notifies readers that a batch of records reached the registry.
type Update struct {
	Records  int
	Entities int
	At       time.Time
}

// Stats are cumulative counters for one Client.
type Stats struct {
	State      State
	Bytes      uint64
	Records    uint64
	Errors     uint64
	Reconnects uint64
	LastError  string
}

// Client is the single producer of registry writes: it reads the feed,
// decodes records and dispatches them, applying the configured failure
// policies.
type Client struct {
	cfg        Config
	dial       DialFunc
	reg        *registry.Registry
	dispatcher *dispatch.Dispatcher
	asm        *protocol.Assembler
	rng        *rand.Rand
	updates    chan Update

	running    atomic.Bool
	state      atomic.Int32
	bytes      atomic.Uint64
	records    atomic.Uint64
	errCount   atomic.Uint64
	reconnects atomic.Uint64

	mu      sync.Mutex
	lastErr error
}

func NewClient(cfg Config, reg *registry.Registry) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dial := cfg.Dial
	if dial == nil {
		dial = TCPDialer(cfg.Address, cfg.Session.ConnectTimeout)
	}
	return &Client{
		cfg:        cfg,
		dial:       dial,
		reg:        reg,
		dispatcher: dispatch.New(reg),
		asm:        protocol.NewDefaultAssembler(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		updates:    make(chan Update, 1),
	}, nil
}

// Updates delivers a notification after each batch of applied records. Slow
// readers miss intermediate notifications, never the latest one. The channel
// is closed when Run returns.
func (c *Client) Updates() <-chan Update {
	return c.updates
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) Stats() Stats {
	s := Stats{
		State:      c.State(),
		Bytes:      c.bytes.Load(),
		Records:    c.records.Load(),
		Errors:     c.errCount.Load(),
		Reconnects: c.reconnects.Load(),
	}
	c.mu.Lock()
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	c.mu.Unlock()
	return s
}

// Run connects and consumes the feed until ctx ends or a failure the policies
// treat as fatal. Cancellation returns nil.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.updates)
	defer c.setState(StateStopped)

	failures := 0
	for {
		src, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		applied, err := c.consume(ctx, src)
		_ = src.Close()
		if ctx.Err() != nil {
			log.Info().Str("addr", c.cfg.Address).Msg("ingest.Client stopped")
			return nil
		}
		c.recordError(err)
		if !c.shouldReconnect(err) {
			log.Error().Err(err).Str("kind", Classify(err)).Msg("ingest.Client fatal")
			return err
		}

		if applied > 0 {
			failures = 0
		}
		failures++
		c.reconnects.Add(1)
		observability.RecordReconnect()
		log.Warn().Err(err).Str("kind", Classify(err)).Int("attempt", failures).Msg("ingest.Client reconnecting")
		c.setState(StateBackoff)
		if err := session.SleepBackoff(ctx, c.cfg.Session.Backoff, failures, c.rng); err != nil {
			return nil
		}
	}
}

func (c *Client) connect(ctx context.Context) (Source, error) {
	var attempt int
	for {
		attempt++
		c.setState(StateConnecting)
		src, err := c.dial(ctx)
		if err == nil {
			c.setState(StateConnected)
			log.Info().Str("addr", c.cfg.Address).Int("attempt", attempt).Msg("ingest.Client connected")
			return src, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		cerr := &ConnectionError{Op: "dial", Addr: c.cfg.Address, Err: err}
		c.recordError(cerr)
		log.Warn().Err(err).Str("addr", c.cfg.Address).Int("attempt", attempt).Msg("ingest.Client dial failed")
		if !c.cfg.Session.ShouldRetry(attempt) {
			return nil, cerr
		}
		c.setState(StateBackoff)
		if err := session.SleepBackoff(ctx, c.cfg.Session.Backoff, attempt, c.rng); err != nil {
			return nil, err
		}
	}
}

// consume reads src until it fails, returning the number of records applied.
// The assembler restarts at a message boundary for every connection.
func (c *Client) consume(ctx context.Context, src Source) (int, error) {
	c.asm.Reset()
	stop := context.AfterFunc(ctx, func() {
		_ = src.Close()
	})
	defer stop()

	ds, bounded := src.(DeadlineSource)
	buf := make([]byte, c.cfg.Session.ReadBuffer)
	total := 0
	for {
		if bounded {
			ctxDeadline, ok := ctx.Deadline()
			_ = ds.SetReadDeadline(c.cfg.Session.ReadDeadline(time.Now(), ctxDeadline, ok))
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			c.bytes.Add(uint64(n))
			observability.RecordIngestBytes(n)
			recs, ferr := c.asm.Feed(buf[:n])
			applied, aerr := c.apply(recs)
			total += applied
			if aerr != nil {
				return total, aerr
			}
			if ferr != nil {
				return total, ferr
			}
		}
		if rerr == nil {
			continue
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		if errors.Is(rerr, io.EOF) {
			if cerr := c.asm.Close(); cerr != nil {
				return total, cerr
			}
		}
		return total, &ConnectionError{Op: "read", Addr: c.cfg.Address, Err: rerr}
	}
}

func (c *Client) apply(recs []protocol.UpdateRecord) (int, error) {
	applied := 0
	for _, rec := range recs {
		err := c.dispatcher.Dispatch(rec)
		if err == nil {
			applied++
			c.records.Add(1)
			observability.RecordIngestRecord(rec.Discriminant.String())
			continue
		}
		if errors.Is(err, registry.ErrValueParse) && c.cfg.OnValueError == ValueSkip {
			c.recordError(err)
			log.Warn().Err(err).Str("entity", rec.EntityID).Str("kind", KindValueParse).Msg("ingest.Client skipped record")
			continue
		}
		c.notify(applied)
		return applied, err
	}
	c.notify(applied)
	return applied, nil
}

func (c *Client) notify(applied int) {
	if applied == 0 {
		return
	}
	entities := c.reg.Len()
	observability.SetRegistryEntities(entities)
	u := Update{Records: applied, Entities: entities, At: time.Now()}
	select {
	case c.updates <- u:
	default:
		// Drop the stale pending update in favour of this one.
		select {
		case <-c.updates:
		default:
		}
		select {
		case c.updates <- u:
		default:
		}
	}
}

func (c *Client) shouldReconnect(err error) bool {
	switch {
	case protocol.IsFrameError(err):
		return c.cfg.OnFrameError == FrameReconnect
	case errors.Is(err, ErrConnection):
		return c.cfg.Reconnect
	default:
		return false
	}
}

func (c *Client) recordError(err error) {
	if err == nil {
		return
	}
	c.errCount.Add(1)
	observability.RecordIngestError(Classify(err))
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}
