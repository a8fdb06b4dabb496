package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	primaryColor   = lipgloss.Color("#0EA5E9") // Sky
	secondaryColor = lipgloss.Color("#10B981") // Green
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	bgColor        = lipgloss.Color("#1F2937") // Dark gray
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Background(bgColor).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	OnStyle = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Bold(true)

	OffStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	HiddenStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)

// Symbols
const (
	SymbolUp     = "▲"
	SymbolDown   = "▼"
	SymbolUpDown = "⇅"
	SymbolOn     = "●"
	SymbolOff    = "○"
)
