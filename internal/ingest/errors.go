package ingest

import (
	"errors"
	"fmt"

	"github.com/danmuck/tramctl/internal/protocol"
	"github.com/danmuck/tramctl/internal/registry"
)

var (
	ErrConnection      = errors.New("ingest: connection failed")
	ErrAddressRequired = errors.New("ingest: source address required")
	ErrInvalidPolicy   = errors.New("ingest: invalid policy")
)

// ConnectionError reports a failure to open or read the byte source.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("ingest: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}

// Error kinds reported by Classify.
const (
	KindConnection          = "connection"
	KindDesync              = "desync"
	KindTruncated           = "truncated"
	KindUnknownDiscriminant = "unknown_discriminant"
	KindValueParse          = "value_parse"
	KindOther               = "other"
)

// Classify maps err onto one of the Kind constants. A nil error maps to "".
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnection):
		return KindConnection
	case errors.Is(err, protocol.ErrDesync):
		return KindDesync
	case errors.Is(err, protocol.ErrTruncatedFrame):
		return KindTruncated
	case errors.Is(err, protocol.ErrUnknownDiscriminant):
		return KindUnknownDiscriminant
	case errors.Is(err, registry.ErrValueParse):
		return KindValueParse
	default:
		return KindOther
	}
}
