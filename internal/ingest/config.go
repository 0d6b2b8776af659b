package ingest

import (
	"fmt"
	"strings"

	"github.com/danmuck/tramctl/internal/protocol/session"
)

// FramePolicy decides what happens after a desync, unknown message type or
// truncated frame.
type FramePolicy string

const (
	// FrameAbort stops the client and returns the error.
	FrameAbort FramePolicy = "abort"
	// FrameReconnect drops the connection, discards buffered bytes and redials.
	FrameReconnect FramePolicy = "reconnect"
)

// ValuePolicy decides what happens when a record carries an unparseable value.
type ValuePolicy string

const (
	// ValueSkip logs and drops the record.
	ValueSkip ValuePolicy = "skip"
	// ValueAbort stops the client and returns the error.
	ValueAbort ValuePolicy = "abort"
)

func ParseFramePolicy(raw string) (FramePolicy, error) {
	switch p := FramePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case FrameAbort, FrameReconnect:
		return p, nil
	case "":
		return FrameAbort, nil
	default:
		return "", fmt.Errorf("%w: on_frame_error %q", ErrInvalidPolicy, raw)
	}
}

func ParseValuePolicy(raw string) (ValuePolicy, error) {
	switch p := ValuePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case ValueSkip, ValueAbort:
		return p, nil
	case "":
		return ValueSkip, nil
	default:
		return "", fmt.Errorf("%w: on_value_error %q", ErrInvalidPolicy, raw)
	}
}

// Config configures a Client.
//
// Reconnect governs connection errors (refused dial, peer close, stalled
// read). Frame errors are governed by OnFrameError alone.
type Config struct {
	Address      string
	Session      session.Config
	Reconnect    bool
	OnFrameError FramePolicy
	OnValueError ValuePolicy
	// Dial overrides the TCP dialer, mainly for tests.
	Dial DialFunc
}

func DefaultConfig() Config {
	return Config{
		Address:      "127.0.0.1:8081",
		Session:      session.DefaultConfig(),
		OnFrameError: FrameAbort,
		OnValueError: ValueSkip,
	}
}

func (c Config) withDefaults() Config {
	c.Session = c.Session.WithDefaults()
	if c.OnFrameError == "" {
		c.OnFrameError = FrameAbort
	}
	if c.OnValueError == "" {
		c.OnValueError = ValueSkip
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" && c.Dial == nil {
		return ErrAddressRequired
	}
	if _, err := ParseFramePolicy(string(c.OnFrameError)); err != nil {
		return err
	}
	if _, err := ParseValuePolicy(string(c.OnValueError)); err != nil {
		return err
	}
	return c.Session.Validate()
}
