package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/danmuck/tramctl/internal/ingest"
	"github.com/danmuck/tramctl/internal/registry"
	"github.com/danmuck/tramctl/internal/testutil/testlog"
)

type stubStats struct {
	stats ingest.Stats
}

func (s stubStats) Stats() ingest.Stats { return s.stats }

func newTestModel(t *testing.T) (Model, *registry.Registry, chan ingest.Update) {
	t.Helper()
	reg := registry.New()
	t.Cleanup(func() { _ = reg.Close() })
	updates := make(chan ingest.Update, 1)
	return NewModel(reg, stubStats{stats: ingest.Stats{State: ingest.StateConnected}}, updates), reg, updates
}

func TestModelRefreshesOnUpdate(t *testing.T) {
	testlog.Start(t)
	m, reg, _ := newTestModel(t)
	_ = reg.MergeLocation("TRAMABC", "CITY")
	_ = reg.MergeLocation("TRAMXYZ", "DEPOT")
	_ = reg.MergePassengerCount("TRAMXYZ", "12")

	next, cmd := m.Update(updateMsg{})
	if cmd == nil {
		t.Fatalf("expected listen command after update")
	}
	view := next.(Model).View()
	for _, want := range []string{"2 trams", "connected", "TRAMABC", "CITY", "unknown", "TRAMXYZ", "DEPOT", "12", "q quit"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "TRAMABC") > strings.Index(view, "TRAMXYZ") {
		t.Fatalf("rows out of snapshot order:\n%s", view)
	}
}

func TestModelQuitKeys(t *testing.T) {
	testlog.Start(t)
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		m, _, _ := newTestModel(t)
		next, cmd := m.Update(key)
		if cmd == nil || !next.(Model).Quitting() {
			t.Fatalf("%s: expected quit", key)
		}
		if next.(Model).View() != "" {
			t.Fatalf("%s: expected empty view after quit", key)
		}
	}
}

func TestListenReportsClosedFeed(t *testing.T) {
	testlog.Start(t)
	m, _, updates := newTestModel(t)
	updates <- ingest.Update{Records: 1}
	if _, ok := listenForUpdate(updates)().(updateMsg); !ok {
		t.Fatalf("expected updateMsg")
	}
	close(updates)
	msg := listenForUpdate(updates)()
	if _, ok := msg.(feedClosedMsg); !ok {
		t.Fatalf("expected feedClosedMsg, got %T", msg)
	}
	next, _ := m.Update(msg)
	if !strings.Contains(next.(Model).View(), "feed closed") {
		t.Fatalf("view should report closed feed")
	}
}

func TestModelClipsRowsToHeight(t *testing.T) {
	testlog.Start(t)
	m, reg, _ := newTestModel(t)
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		_ = reg.MergeLocation(id, "X")
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	next, _ = next.(Model).Update(updateMsg{})
	view := next.(Model).View()
	if !strings.Contains(view, "3 more") {
		t.Fatalf("expected clipped rows:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	testlog.Start(t)
	if truncate("short", 10) != "short" {
		t.Fatalf("short string changed")
	}
	if got := truncate("abcdefgh", 4); got != "abc…" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestViewEscapesFeedText(t *testing.T) {
	testlog.Start(t)
	m, reg, _ := newTestModel(t)
	_ = reg.MergeLocation("T1\x1b]0;pwn\x07", "CITY\x1b[2J")

	next, _ := m.Update(updateMsg{})
	view := next.(Model).View()
	for _, raw := range []string{"\x1b]0;", "\x07", "\x1b[2J"} {
		if strings.Contains(view, raw) {
			t.Fatalf("view carries raw control sequence %q:\n%q", raw, view)
		}
	}
	if !strings.Contains(view, `\x1b[2J`) {
		t.Fatalf("expected escaped location in view:\n%s", view)
	}
}
