package protocol

import (
	"errors"

	"github.com/danmuck/tramctl/internal/protocol/frame"
	"github.com/danmuck/tramctl/internal/protocol/schema"
)

// Decode failures. Each is matched with errors.Is against errors returned by
// the Assembler.
var (
	ErrDesync              = frame.ErrDesync
	ErrTruncatedFrame      = frame.ErrTruncated
	ErrUnknownDiscriminant = schema.ErrUnknownDiscriminant
	ErrFieldTooLong        = frame.ErrFieldTooLong
	ErrInvalidSchema       = schema.ErrInvalidSchema
	ErrAssemblerFailed     = errors.New("protocol: assembler failed; reset required")
)

// IsFrameError reports whether err means the byte stream is no longer
// schema-aligned (or ended mid-frame).
func IsFrameError(err error) bool {
	return errors.Is(err, ErrDesync) ||
		errors.Is(err, ErrTruncatedFrame) ||
		errors.Is(err, ErrUnknownDiscriminant)
}
