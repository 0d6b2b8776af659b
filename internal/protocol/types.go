package protocol

import (
	"fmt"

	"github.com/danmuck/tramctl/internal/protocol/schema"
)

// UpdateRecord is one assembled message: a single attribute update for one entity.
type UpdateRecord struct {
	Discriminant schema.Discriminant
	EntityID     string
	RawValue     string
	// Extra holds values for schema value keys after the first; nil for the tram feed schema.
	Extra []string
}

func (r UpdateRecord) String() string {
	return fmt.Sprintf("%s %s=%q", r.Discriminant, r.EntityID, r.RawValue)
}

// Visitor handles each discriminant of an UpdateRecord.
type Visitor interface {
	Location(rec UpdateRecord) error
	PassengerCount(rec UpdateRecord) error
}

// Accept routes r to the visitor method for its discriminant.
func (r UpdateRecord) Accept(v Visitor) error {
	switch r.Discriminant {
	case schema.DiscriminantLocation:
		return v.Location(r)
	case schema.DiscriminantPassengerCount:
		return v.PassengerCount(r)
	default:
		return schema.UnknownDiscriminantError{Value: r.Discriminant.String()}
	}
}
