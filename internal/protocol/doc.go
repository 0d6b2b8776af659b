// Package protocol owns the tram feed wire contract.
//
// Ownership boundary:
// - frame primitives (frame)
// - positional key schema and discriminants (schema)
// - message assembly over a byte stream with carry-over (Assembler)
// - record encoding (Encode, AppendRecord)
// - the decode error taxonomy shared by callers
package protocol
