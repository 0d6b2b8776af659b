package protocol

import (
	"errors"
	"fmt"

	"github.com/danmuck/tramctl/internal/protocol/frame"
	"github.com/danmuck/tramctl/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

// DecodeError locates a decode failure within the stream.
type DecodeError struct {
	Position schema.Position
	Key      string
	Offset   uint64
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s (key %q) at stream offset %d: %v", e.Position, e.Key, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Assembler is the per-connection decode state machine. It consumes bytes as
// they arrive, keeps any undecoded tail across calls, and emits one
// UpdateRecord per complete schema window.
//
// A desync or unknown message type leaves the Assembler failed: every later
// Feed returns the same error until Reset. The Assembler never scans forward
// looking for a plausible boundary.
type Assembler struct {
	schema  schema.Schema
	keys    []string
	buf     []byte
	pos     schema.Position
	pending UpdateRecord
	values  []string
	offset  uint64
	err     error
}

// NewAssembler returns an Assembler for s awaiting the message-type field.
// Schemas rejected by Schema.Validate are refused.
func NewAssembler(s schema.Schema) (*Assembler, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return newAssembler(s), nil
}

// NewDefaultAssembler returns an Assembler for the tram feed schema.
func NewDefaultAssembler() *Assembler {
	return newAssembler(schema.Default())
}

func newAssembler(s schema.Schema) *Assembler {
	return &Assembler{
		schema: s,
		keys:   s.Keys(),
		values: make([]string, 0, len(s.ValueKeys)),
	}
}

// Feed appends p to the carry-over buffer and decodes every complete record
// now available. Records decoded before a failure are returned alongside the
// error. A field split across reads is not an error: its bytes stay buffered
// until a later Feed completes it.
func (a *Assembler) Feed(p []byte) ([]UpdateRecord, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.buf = append(a.buf, p...)

	var out []UpdateRecord
	consumed := 0
	for consumed < len(a.buf) {
		key := a.keys[a.pos]
		f, n, err := frame.NextField(a.buf[consumed:], key)
		if errors.Is(err, frame.ErrTruncated) {
			break
		}
		if err != nil {
			a.fail(err, key)
			a.compact(consumed)
			return out, a.err
		}
		if err := a.accept(f); err != nil {
			a.fail(err, key)
			a.compact(consumed)
			return out, a.err
		}
		consumed += n
		a.offset += uint64(n)

		if int(a.pos) == len(a.keys)-1 {
			out = append(out, a.emit())
			continue
		}
		a.pos++
	}
	a.compact(consumed)
	return out, nil
}

// Close reports whether the stream ended cleanly. A source that closes with a
// partial field or a partial message buffered yields ErrTruncatedFrame.
func (a *Assembler) Close() error {
	if a.err != nil {
		return a.err
	}
	if len(a.buf) == 0 && a.pos == schema.PositionMessageType {
		return nil
	}
	return &DecodeError{
		Position: a.pos,
		Key:      a.keys[a.pos],
		Offset:   a.offset,
		Err:      fmt.Errorf("%w: stream ended with %d bytes buffered", ErrTruncatedFrame, len(a.buf)),
	}
}

// Reset discards buffered bytes, any partial record and a prior failure, and
// returns to awaiting the message-type field. Use it only when the next byte
// fed is known to start a message, such as on a fresh connection.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
	a.pos = schema.PositionMessageType
	a.pending = UpdateRecord{}
	a.values = a.values[:0]
	a.offset = 0
	a.err = nil
}

// State returns the schema position the next field must fill.
func (a *Assembler) State() schema.Position {
	return a.pos
}

// Buffered returns the number of carried-over bytes awaiting more input.
func (a *Assembler) Buffered() int {
	return len(a.buf)
}

// Err returns the failure that stopped the Assembler, if any.
func (a *Assembler) Err() error {
	return a.err
}

func (a *Assembler) accept(f frame.Field) error {
	switch a.pos {
	case schema.PositionMessageType:
		d, err := schema.ParseDiscriminant(f.Value)
		if err != nil {
			return err
		}
		a.pending.Discriminant = d
	case schema.PositionEntityID:
		a.pending.EntityID = string(f.Value)
	default:
		a.values = append(a.values, string(f.Value))
	}
	return nil
}

func (a *Assembler) emit() UpdateRecord {
	rec := a.pending
	rec.RawValue = a.values[0]
	if len(a.values) > 1 {
		rec.Extra = append([]string(nil), a.values[1:]...)
	}
	a.pending = UpdateRecord{}
	a.values = a.values[:0]
	a.pos = schema.PositionMessageType
	log.Trace().Str("record", rec.String()).Msg("protocol.Assembler emit")
	return rec
}

func (a *Assembler) fail(err error, key string) {
	a.err = fmt.Errorf("%w: %w", ErrAssemblerFailed, &DecodeError{
		Position: a.pos,
		Key:      key,
		Offset:   a.offset,
		Err:      err,
	})
	log.Debug().Err(err).Str("state", a.pos.String()).Uint64("offset", a.offset).Msg("protocol.Assembler failed")
}

func (a *Assembler) compact(consumed int) {
	if consumed == 0 {
		return
	}
	n := copy(a.buf, a.buf[consumed:])
	a.buf = a.buf[:n]
}
