// Package session owns feed connection reliability settings.
//
// Ownership boundary:
// - connect and read timeouts
// - dial attempt bounds
// - retry/backoff primitives
//
// Decoding lives in the parent protocol package; the dial/read loop that
// consumes these settings lives in ingest.
package session
