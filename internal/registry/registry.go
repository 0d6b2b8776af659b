// Package registry holds the latest known state of every tram observed on the
// feed. It is safe for one writer and many concurrent readers; readers only
// ever receive copies.
package registry

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// Unknown is rendered for attributes that have not been reported.
const Unknown = "unknown"

var (
	ErrClosed        = errors.New("registry: closed")
	ErrValueParse    = errors.New("registry: value parse failed")
	ErrEmptyEntityID = errors.New("registry: empty entity id")
)

// ValueParseError reports a raw attribute value that could not be interpreted.
type ValueParseError struct {
	EntityID  string
	Attribute string
	Raw       string
	Err       error
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("registry: parse %s %q for %q: %v", e.Attribute, e.Raw, e.EntityID, e.Err)
}

func (e *ValueParseError) Unwrap() []error {
	return []error{ErrValueParse, e.Err}
}

// PassengerCount is an optional count. The zero value is unknown.
type PassengerCount struct {
	Value uint16 `json:"value"`
	Known bool   `json:"known"`
}

// KnownCount returns a known count of n.
func KnownCount(n uint16) PassengerCount {
	return PassengerCount{Value: n, Known: true}
}

func (p PassengerCount) String() string {
	if !p.Known {
		return Unknown
	}
	return strconv.FormatUint(uint64(p.Value), 10)
}

// ParsePassengerCount parses raw as a decimal count in [0, 65535]. Signs,
// whitespace and empty input are rejected.
func ParsePassengerCount(raw string) (uint16, error) {
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

// EntityState is the merged view of one tram.
type EntityState struct {
	ID             string         `json:"id"`
	Location       string         `json:"location"`
	PassengerCount PassengerCount `json:"passenger_count"`
}

func newEntityState(id string) EntityState {
	return EntityState{ID: id, Location: Unknown}
}

// Registry maps entity ids to their state. Entries are created on first
// observation and kept until Close.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*EntityState
	order   []string
	closed  bool
}

func New() *Registry {
	return &Registry{entries: make(map[string]*EntityState)}
}

// Close releases the entries. Later merges return ErrClosed; reads return empty results.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.entries = nil
	r.order = nil
	return nil
}

// MergeLocation sets the location of id, creating the entry if needed.
func (r *Registry) MergeLocation(id, location string) error {
	if id == "" {
		return &ValueParseError{Attribute: "entity_id", Raw: id, Err: ErrEmptyEntityID}
	}
	return r.update(id, func(s *EntityState) {
		s.Location = location
	})
}

// MergePassengerCount parses raw and sets the passenger count of id. A value
// that does not parse leaves the registry unchanged and returns a
// *ValueParseError.
func (r *Registry) MergePassengerCount(id, raw string) error {
	if id == "" {
		return &ValueParseError{Attribute: "entity_id", Raw: id, Err: ErrEmptyEntityID}
	}
	n, err := ParsePassengerCount(raw)
	if err != nil {
		return &ValueParseError{EntityID: id, Attribute: "passenger_count", Raw: raw, Err: err}
	}
	return r.SetPassengerCount(id, n)
}

// SetPassengerCount sets an already parsed passenger count for id.
func (r *Registry) SetPassengerCount(id string, n uint16) error {
	if id == "" {
		return &ValueParseError{Attribute: "entity_id", Raw: id, Err: ErrEmptyEntityID}
	}
	return r.update(id, func(s *EntityState) {
		s.PassengerCount = KnownCount(n)
	})
}

func (r *Registry) update(id string, apply func(*EntityState)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	s, ok := r.entries[id]
	if !ok {
		st := newEntityState(id)
		s = &st
		r.entries[id] = s
		r.order = append(r.order, id)
		log.Debug().Str("entity", id).Int("entities", len(r.order)).Msg("registry.Registry created")
	}
	apply(s)
	return nil
}

// Get returns a copy of the state of id.
func (r *Registry) Get(id string) (EntityState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.entries[id]
	if !ok {
		return EntityState{}, false
	}
	return *s, true
}

// Snapshot returns copies of every entry in first-observation order.
func (r *Registry) Snapshot() []EntityState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntityState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.entries[id])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
