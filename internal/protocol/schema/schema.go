package schema

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Wire keys of the tram feed, in positional order.
const (
	KeyMessageType = "MSGTYPE"
	KeyEntityID    = "TRAM_ID"
	KeyValue       = "VALUE"
)

var (
	ErrUnknownDiscriminant = errors.New("schema: unknown message type")
	ErrInvalidSchema       = errors.New("schema: invalid")
)

// Discriminant selects which entity attribute a message updates.
type Discriminant uint8

const (
	DiscriminantUnknown Discriminant = iota
	DiscriminantLocation
	DiscriminantPassengerCount
)

var discriminantNames = map[Discriminant]string{
	DiscriminantLocation:       "LOCATION",
	DiscriminantPassengerCount: "PASSENGER_COUNT",
}

var discriminantsByName = map[string]Discriminant{
	"LOCATION":        DiscriminantLocation,
	"PASSENGER_COUNT": DiscriminantPassengerCount,
}

// String returns the wire name of d.
func (d Discriminant) String() string {
	if name, ok := discriminantNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Discriminant(%d)", uint8(d))
}

// Valid reports whether d is a registered message type.
func (d Discriminant) Valid() bool {
	_, ok := discriminantNames[d]
	return ok
}

// Discriminants returns the registered message types in wire-table order.
func Discriminants() []Discriminant {
	return []Discriminant{DiscriminantLocation, DiscriminantPassengerCount}
}

// UnknownDiscriminantError carries the rejected message-type value.
type UnknownDiscriminantError struct {
	Value string
}

func (e UnknownDiscriminantError) Error() string {
	return fmt.Sprintf("schema: unknown message type %q", e.Value)
}

func (e UnknownDiscriminantError) Unwrap() error {
	return ErrUnknownDiscriminant
}

// ParseDiscriminant maps a message-type field value onto a registered discriminant.
func ParseDiscriminant(value []byte) (Discriminant, error) {
	d, ok := discriminantsByName[string(value)]
	if !ok {
		log.Debug().Str("value", string(value)).Msg("schema.ParseDiscriminant unknown")
		return DiscriminantUnknown, UnknownDiscriminantError{Value: string(value)}
	}
	return d, nil
}

// Schema is the fixed positional key layout of one message: a message-type key,
// an identifier key, then the value keys in order. Messages are exactly
// len(Keys()) fields long; adding a key is a schema version change.
type Schema struct {
	MessageTypeKey string
	EntityIDKey    string
	ValueKeys      []string
}

// Default returns the tram feed schema [MSGTYPE, TRAM_ID, VALUE].
func Default() Schema {
	return Schema{
		MessageTypeKey: KeyMessageType,
		EntityIDKey:    KeyEntityID,
		ValueKeys:      []string{KeyValue},
	}
}

// Keys returns every key in positional order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, 2+len(s.ValueKeys))
	keys = append(keys, s.MessageTypeKey, s.EntityIDKey)
	keys = append(keys, s.ValueKeys...)
	return keys
}

// Len returns the number of fields per message.
func (s Schema) Len() int {
	return 2 + len(s.ValueKeys)
}

// KeyAt returns the key expected at position pos.
func (s Schema) KeyAt(pos Position) string {
	switch {
	case pos == PositionMessageType:
		return s.MessageTypeKey
	case pos == PositionEntityID:
		return s.EntityIDKey
	default:
		return s.ValueKeys[int(pos)-2]
	}
}

// Validate rejects schemas that cannot be framed.
func (s Schema) Validate() error {
	if len(s.ValueKeys) == 0 {
		return fmt.Errorf("%w: at least one value key required", ErrInvalidSchema)
	}
	seen := make(map[string]struct{}, s.Len())
	for i, key := range s.Keys() {
		if key == "" {
			return fmt.Errorf("%w: empty key at position %d", ErrInvalidSchema, i)
		}
		if len(key) > 255 {
			return fmt.Errorf("%w: key %q longer than 255 bytes", ErrInvalidSchema, key)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidSchema, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Position is the decode state: the schema slot the next field must fill.
type Position int

const (
	PositionMessageType Position = iota
	PositionEntityID
	PositionValue
)

func (p Position) String() string {
	switch p {
	case PositionMessageType:
		return "awaiting_msg_type"
	case PositionEntityID:
		return "awaiting_entity_id"
	case PositionValue:
		return "awaiting_value"
	default:
		return fmt.Sprintf("awaiting_value_%d", int(p)-int(PositionValue))
	}
}
