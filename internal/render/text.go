// Package render draws registry snapshots for a terminal.
package render

import (
	"context"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/danmuck/tramctl/internal/ingest"
	"github.com/danmuck/tramctl/internal/registry"
)

// ClearScreen homes the cursor and clears the terminal.
const ClearScreen = "\033[H\033[J"

// Snapshotter provides the entities to draw.
type Snapshotter interface {
	Snapshot() []registry.EntityState
}

// Printable escapes control characters in s (for example ESC becomes \x1b) so
// feed-supplied text cannot move the cursor or restyle the terminal.
func Printable(s string) string {
	if strings.IndexFunc(s, unicode.IsControl) < 0 {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			q := strconv.QuoteRuneToASCII(r)
			b.WriteString(q[1 : len(q)-1])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Format renders snap as one block per tram, in snapshot order.
func Format(snap []registry.EntityState) string {
	var b strings.Builder
	for _, s := range snap {
		b.WriteString("Tram ")
		b.WriteString(Printable(s.ID))
		b.WriteString(":\n    Location: ")
		b.WriteString(Printable(s.Location))
		b.WriteString("\n    Passenger Count: ")
		b.WriteString(s.PassengerCount.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Text redraws the whole dashboard on every update.
type Text struct {
	Out   io.Writer
	Clear bool
}

func NewText(out io.Writer) *Text {
	return &Text{Out: out, Clear: true}
}

// Draw writes one frame for snap.
func (t *Text) Draw(snap []registry.EntityState) error {
	frame := Format(snap)
	if t.Clear {
		frame = ClearScreen + frame
	}
	_, err := io.WriteString(t.Out, frame)
	return err
}

// Run draws src after each update until ctx ends or updates closes.
func (t *Text) Run(ctx context.Context, src Snapshotter, updates <-chan ingest.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
			if err := t.Draw(src.Snapshot()); err != nil {
				return err
			}
		}
	}
}
