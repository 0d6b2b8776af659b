package frame

import (
	"errors"
	"fmt"
)

// MaxFieldLen is the largest key or value a single length byte can declare.
const MaxFieldLen = 255

var (
	ErrDesync       = errors.New("frame: key desync")
	ErrTruncated    = errors.New("frame: truncated frame")
	ErrFieldTooLong = errors.New("frame: field longer than 255 bytes")
)

// Field is one decoded length-prefixed key/value unit.
type Field struct {
	Key    string
	Value  []byte
	Length uint8
}

// DesyncError reports a key that does not match the schema position being decoded.
type DesyncError struct {
	Expected    string
	DeclaredLen int
	Got         []byte
}

func (e *DesyncError) Error() string {
	if e.DeclaredLen != len(e.Expected) {
		return fmt.Sprintf("frame: key desync: want %q (len %d), declared len %d", e.Expected, len(e.Expected), e.DeclaredLen)
	}
	return fmt.Sprintf("frame: key desync: want %q, got %q", e.Expected, e.Got)
}

func (e *DesyncError) Unwrap() error {
	return ErrDesync
}

// NextField decodes the field at the start of buf, which must carry expectedKey.
// It returns the field and the number of bytes it occupies. ErrTruncated means
// buf ends inside the field and nothing was consumed; callers waiting on a live
// source should retry once more bytes arrive.
func NextField(buf []byte, expectedKey string) (Field, int, error) {
	if len(buf) < 1 {
		return Field{}, 0, ErrTruncated
	}
	keyLen := int(buf[0])
	if keyLen != len(expectedKey) {
		return Field{}, 0, &DesyncError{Expected: expectedKey, DeclaredLen: keyLen}
	}

	avail := buf[1:]
	if len(avail) > keyLen {
		avail = avail[:keyLen]
	}
	// A mismatching prefix is already a desync; no need to wait for the rest.
	if string(avail) != expectedKey[:len(avail)] {
		return Field{}, 0, &DesyncError{Expected: expectedKey, DeclaredLen: keyLen, Got: copyBytes(avail)}
	}
	if len(avail) < keyLen {
		return Field{}, 0, ErrTruncated
	}

	off := 1 + keyLen
	if len(buf) < off+1 {
		return Field{}, 0, ErrTruncated
	}
	valueLen := int(buf[off])
	off++
	if len(buf)-off < valueLen {
		return Field{}, 0, ErrTruncated
	}

	return Field{
		Key:    expectedKey,
		Value:  copyBytes(buf[off : off+valueLen]),
		Length: uint8(valueLen),
	}, off + valueLen, nil
}

// AppendField appends the wire encoding of key/value to dst.
func AppendField(dst []byte, key string, value []byte) ([]byte, error) {
	if len(key) > MaxFieldLen {
		return dst, fmt.Errorf("%w: key %d bytes", ErrFieldTooLong, len(key))
	}
	if len(value) > MaxFieldLen {
		return dst, fmt.Errorf("%w: %s value %d bytes", ErrFieldTooLong, key, len(value))
	}
	dst = append(dst, byte(len(key)))
	dst = append(dst, key...)
	dst = append(dst, byte(len(value)))
	dst = append(dst, value...)
	return dst, nil
}

// EncodedLen returns the number of wire bytes a key/value field occupies.
func EncodedLen(key string, value []byte) int {
	return 2 + len(key) + len(value)
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
