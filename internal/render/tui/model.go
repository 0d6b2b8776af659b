// Package tui is the interactive tram dashboard.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/danmuck/tramctl/internal/ingest"
	"github.com/danmuck/tramctl/internal/registry"
	"github.com/danmuck/tramctl/internal/render"
)

// StatsSource reports feed client health for the header line.
type StatsSource interface {
	Stats() ingest.Stats
}

type updateMsg struct{}

type feedClosedMsg struct{}

const (
	idWidth       = 16
	locationWidth = 28
	countWidth    = 16
)

// Model renders the registry as a live table.
type Model struct {
	src     render.Snapshotter
	stats   StatsSource
	updates <-chan ingest.Update
	theme   Theme

	entities   []registry.EntityState
	feedStats  ingest.Stats
	feedClosed bool
	quitting   bool
	width      int
	height     int
}

func NewModel(src render.Snapshotter, stats StatsSource, updates <-chan ingest.Update) Model {
	return Model{
		src:     src,
		stats:   stats,
		updates: updates,
		theme:   DefaultTheme(),
	}
}

func listenForUpdate(updates <-chan ingest.Update) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return feedClosedMsg{}
		}
		return updateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(func() tea.Msg { return updateMsg{} }, listenForUpdate(m.updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case updateMsg:
		m.refresh()
		return m, listenForUpdate(m.updates)
	case feedClosedMsg:
		m.feedClosed = true
		m.refresh()
	}
	return m, nil
}

func (m *Model) refresh() {
	m.entities = m.src.Snapshot()
	if m.stats != nil {
		m.feedStats = m.stats.Stats()
	}
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(m.theme.NormalText)

	var b strings.Builder
	b.WriteString(header.Render("tramctl"))
	b.WriteString("  ")
	b.WriteString(faint.Render(fmt.Sprintf("%d trams", len(m.entities))))
	b.WriteString("  ")
	b.WriteString(m.connectionBadge())
	b.WriteString("\n\n")

	cols := header.Underline(true)
	b.WriteString(cols.Width(idWidth).Render("TRAM"))
	b.WriteString(cols.Width(locationWidth).Render("LOCATION"))
	b.WriteString(cols.Width(countWidth).Render("PASSENGERS"))
	b.WriteString("\n")

	rows := m.entities
	if limit := m.height - 6; m.height > 0 && limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, s := range rows {
		b.WriteString(normal.Width(idWidth).Render(truncate(render.Printable(s.ID), idWidth-1)))
		loc := normal
		if s.Location == registry.Unknown {
			loc = faint
		}
		b.WriteString(loc.Width(locationWidth).Render(truncate(render.Printable(s.Location), locationWidth-1)))
		count := lipgloss.NewStyle().Foreground(m.theme.UnknownValue)
		if s.PassengerCount.Known {
			count = lipgloss.NewStyle().Foreground(m.theme.KnownValue)
		}
		b.WriteString(count.Width(countWidth).Render(s.PassengerCount.String()))
		b.WriteString("\n")
	}
	if hidden := len(m.entities) - len(rows); hidden > 0 {
		b.WriteString(faint.Render(fmt.Sprintf("… %d more", hidden)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(m.theme.HelpText).Render("q quit"))
	return b.String()
}

func (m Model) connectionBadge() string {
	state := m.feedStats.State.String()
	if m.stats == nil {
		state = "n/a"
	}
	color := m.theme.StatusDown
	if m.feedStats.State == ingest.StateConnected && !m.feedClosed {
		color = m.theme.StatusUp
	}
	if m.feedClosed {
		state = "feed closed"
	}
	badge := lipgloss.NewStyle().Foreground(color).Render(state)
	if m.feedStats.LastError != "" && m.feedStats.State != ingest.StateConnected {
		badge += lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("  " + truncate(m.feedStats.LastError, 60))
	}
	return badge
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
