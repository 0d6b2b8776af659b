// Package dispatch routes decoded feed records into the entity registry.
package dispatch

import (
	"github.com/danmuck/tramctl/internal/protocol"
	"github.com/danmuck/tramctl/internal/registry"
)

// Store is the registry surface the Dispatcher writes to.
type Store interface {
	MergeLocation(id, location string) error
	MergePassengerCount(id, raw string) error
}

// Dispatcher applies each record to the attribute its discriminant names.
// It performs no decoding or parsing of its own.
type Dispatcher struct {
	store Store
}

var _ protocol.Visitor = (*Dispatcher)(nil)
var _ Store = (*registry.Registry)(nil)

func New(store Store) *Dispatcher {
	return &Dispatcher{store: store}
}

// Dispatch routes rec. Errors come from the store unchanged.
func (d *Dispatcher) Dispatch(rec protocol.UpdateRecord) error {
	return rec.Accept(d)
}

func (d *Dispatcher) Location(rec protocol.UpdateRecord) error {
	return d.store.MergeLocation(rec.EntityID, rec.RawValue)
}

func (d *Dispatcher) PassengerCount(rec protocol.UpdateRecord) error {
	return d.store.MergePassengerCount(rec.EntityID, rec.RawValue)
}
