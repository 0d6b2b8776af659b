package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrQuit is returned by Run when the user closed the dashboard.
var ErrQuit = errors.New("tui: quit by user")

// Run shows m in the alternate screen until ctx ends or the user quits.
func Run(ctx context.Context, m Model) error {
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	if fm, ok := final.(Model); ok && fm.Quitting() {
		return ErrQuit
	}
	return nil
}
