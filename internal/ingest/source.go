package ingest

import (
	"context"
	"io"
	"net"
	"time"
)

// Source is a byte stream carrying the feed.
type Source interface {
	io.ReadCloser
}

// DeadlineSource is a Source whose blocking reads can be bounded.
type DeadlineSource interface {
	Source
	SetReadDeadline(t time.Time) error
}

// DialFunc opens a fresh Source. Each call must return a stream positioned at
// a message boundary.
type DialFunc func(ctx context.Context) (Source, error)

// TCPDialer dials addr over TCP, giving up after timeout.
func TCPDialer(addr string, timeout time.Duration) DialFunc {
	return func(ctx context.Context) (Source, error) {
		dialer := net.Dialer{Timeout: timeout}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}
