package session

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("session: invalid config")

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines feed connection reliability settings.
//
// MaxConnectAttempts bounds consecutive failed dials; 0 means unlimited.
// ReadBuffer is the size of each read from the byte source.
type Config struct {
	ConnectTimeout     time.Duration
	ReadTimeout        time.Duration
	MaxConnectAttempts int
	ReadBuffer         int
	Backoff            BackoffConfig
}

// DefaultConfig returns the feed client defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:     5 * time.Second,
		ReadTimeout:        30 * time.Second,
		MaxConnectAttempts: 1,
		ReadBuffer:         256,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.ReadBuffer <= 0 {
		c.ReadBuffer = d.ReadBuffer
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff.InitialDelay = d.Backoff.InitialDelay
	}
	if c.Backoff.Multiplier <= 0 {
		c.Backoff.Multiplier = d.Backoff.Multiplier
	}
	if c.Backoff.MaxDelay <= 0 {
		c.Backoff.MaxDelay = d.Backoff.MaxDelay
	}
	return c
}

func (c Config) Validate() error {
	if c.MaxConnectAttempts < 0 {
		return fmt.Errorf("%w: max_connect_attempts must be >= 0", ErrInvalidConfig)
	}
	if c.ReadBuffer < 0 {
		return fmt.Errorf("%w: read_buffer must be >= 0", ErrInvalidConfig)
	}
	if c.Backoff.MaxDelay > 0 && c.Backoff.InitialDelay > c.Backoff.MaxDelay {
		return fmt.Errorf("%w: backoff initial delay %s exceeds max %s", ErrInvalidConfig, c.Backoff.InitialDelay, c.Backoff.MaxDelay)
	}
	return nil
}

// ShouldRetry reports whether another dial may follow failed attempt N (1-based).
func (c Config) ShouldRetry(attempt int) bool {
	if c.MaxConnectAttempts <= 0 {
		return true
	}
	return attempt < c.MaxConnectAttempts
}

// ReadDeadline returns the deadline for the next read: now plus ReadTimeout,
// clipped to the context deadline when that is sooner.
func (c Config) ReadDeadline(now time.Time, ctxDeadline time.Time, hasCtxDeadline bool) time.Time {
	deadline := now.Add(c.ReadTimeout)
	if hasCtxDeadline && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return deadline
}
