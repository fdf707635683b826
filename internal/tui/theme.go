package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bit-cook/LiteMonitor/internal/metrics"
)

var (
	ColorNormal = lipgloss.Color("#22c55e")
	ColorWarn   = lipgloss.Color("#d97706")
	ColorCrit   = lipgloss.Color("#dc2626")

	ColorBorder = lipgloss.Color("#4b5563")
	ColorDimmed = lipgloss.Color("#6b7280")
	ColorBright = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBright)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDimmed)
	groupStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorDimmed).MarginTop(1)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// StatusColor maps an item status onto the palette.
func StatusColor(s metrics.Status) lipgloss.Color {
	switch s {
	case metrics.StatusWarn:
		return ColorWarn
	case metrics.StatusCrit:
		return ColorCrit
	default:
		return ColorNormal
	}
}
