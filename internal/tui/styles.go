package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/harrysoftwarecorp/route-nest/internal/mapview"
)

// Palette.
var (
	colorAccent  = lipgloss.Color("#58a6ff")
	colorMuted   = lipgloss.Color("#6e7681")
	colorText    = lipgloss.Color("#e6edf3")
	colorSuccess = lipgloss.Color("#3fb950")
	colorWarning = lipgloss.Color("#d29922")
	colorError   = lipgloss.Color("#f85149")
	colorBorder  = lipgloss.Color("#30363d")
)

type styles struct {
	title     lipgloss.Style
	subtitle  lipgloss.Style
	muted     lipgloss.Style
	selected  lipgloss.Style
	item      lipgloss.Style
	errorText lipgloss.Style
	status    lipgloss.Style
	help      lipgloss.Style
	panel     lipgloss.Style
	dialog    lipgloss.Style
	label     lipgloss.Style
	focused   lipgloss.Style

	mapFrame     lipgloss.Style
	mapLine      lipgloss.Style
	mapMarker    lipgloss.Style
	mapCompleted lipgloss.Style
	mapPending   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		subtitle:  lipgloss.NewStyle().Foreground(colorText),
		muted:     lipgloss.NewStyle().Foreground(colorMuted),
		selected:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		item:      lipgloss.NewStyle().Foreground(colorText),
		errorText: lipgloss.NewStyle().Foreground(colorError),
		status:    lipgloss.NewStyle().Foreground(colorSuccess),
		help:      lipgloss.NewStyle().Foreground(colorMuted),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1),
		label:   lipgloss.NewStyle().Foreground(colorMuted).Width(12),
		focused: lipgloss.NewStyle().Foreground(colorAccent).Width(12).Bold(true),

		mapFrame:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorBorder),
		mapLine:      lipgloss.NewStyle().Foreground(colorAccent),
		mapMarker:    lipgloss.NewStyle().Bold(true).Foreground(colorWarning),
		mapCompleted: lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),
		mapPending:   lipgloss.NewStyle().Bold(true).Foreground(colorError),
	}
}

// toneStyle maps a priority tone onto the palette.
func toneStyle(tone string) lipgloss.Style {
	switch tone {
	case "success":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case "warning":
		return lipgloss.NewStyle().Foreground(colorWarning)
	case "error":
		return lipgloss.NewStyle().Foreground(colorError)
	}
	return lipgloss.NewStyle().Foreground(colorText)
}

func (s styles) cell(kind mapview.CellKind) lipgloss.Style {
	switch kind {
	case mapview.CellLine:
		return s.mapLine
	case mapview.CellMarker:
		return s.mapMarker
	case mapview.CellCompleted:
		return s.mapCompleted
	case mapview.CellPending:
		return s.mapPending
	}
	return lipgloss.NewStyle()
}

// truncate clips s to width cells, keeping escape sequences intact.
func truncate(s string, width int) string {
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
