package protocol

import (
	"fmt"
	"io"

	"github.com/danmuck/tramctl/internal/protocol/frame"
	"github.com/danmuck/tramctl/internal/protocol/schema"
)

// Encode writes rec to w using the tram feed schema.
func Encode(w io.Writer, rec UpdateRecord) error {
	buf, err := AppendRecord(nil, schema.Default(), rec)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// AppendRecord appends the wire encoding of rec under s to dst.
func AppendRecord(dst []byte, s schema.Schema, rec UpdateRecord) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return dst, err
	}
	if !rec.Discriminant.Valid() {
		return dst, schema.UnknownDiscriminantError{Value: rec.Discriminant.String()}
	}
	if len(rec.Extra) != len(s.ValueKeys)-1 {
		return dst, fmt.Errorf("protocol: record has %d values, schema wants %d", 1+len(rec.Extra), len(s.ValueKeys))
	}
	start := len(dst)
	var err error
	if dst, err = frame.AppendField(dst, s.MessageTypeKey, []byte(rec.Discriminant.String())); err != nil {
		return dst[:start], err
	}
	if dst, err = frame.AppendField(dst, s.EntityIDKey, []byte(rec.EntityID)); err != nil {
		return dst[:start], err
	}
	values := append([]string{rec.RawValue}, rec.Extra...)
	for i, key := range s.ValueKeys {
		if dst, err = frame.AppendField(dst, key, []byte(values[i])); err != nil {
			return dst[:start], err
		}
	}
	return dst, nil
}

// EncodedLen returns the number of wire bytes rec occupies under the tram feed schema.
func EncodedLen(rec UpdateRecord) int {
	return frame.EncodedLen(schema.KeyMessageType, []byte(rec.Discriminant.String())) +
		frame.EncodedLen(schema.KeyEntityID, []byte(rec.EntityID)) +
		frame.EncodedLen(schema.KeyValue, []byte(rec.RawValue))
}
