package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the dashboard palette, in lipgloss ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Passenger count and connection indicators.
	KnownValue   lipgloss.Color
	UnknownValue lipgloss.Color
	StatusUp     lipgloss.Color
	StatusDown   lipgloss.Color
}

func DefaultTheme() Theme {
	return Theme{
		NormalText:       lipgloss.Color("252"),
		FaintText:        lipgloss.Color("243"),
		HeaderForeground: lipgloss.Color("75"),
		BorderColor:      lipgloss.Color("240"),
		HelpText:         lipgloss.Color("245"),
		KnownValue:       lipgloss.Color("114"),
		UnknownValue:     lipgloss.Color("243"),
		StatusUp:         lipgloss.Color("114"),
		StatusDown:       lipgloss.Color("203"),
	}
}
