// Package theme provides the Lip Gloss color palette and reusable styles
// for the servercheck TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Connection state colors.
var (
	ColorUnknown      = lipgloss.Color("#6b7280")
	ColorChecking     = lipgloss.Color("#2563eb")
	ColorConnected    = lipgloss.Color("#16a34a")
	ColorDisconnected = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorAccent  = lipgloss.Color("#06b6d4")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// StateColor returns the color for a connection state name.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "checking":
		return ColorChecking
	case "connected":
		return ColorConnected
	case "disconnected":
		return ColorDisconnected
	default:
		return ColorUnknown
	}
}

// StateGlyph returns a Unicode glyph for a connection state name.
func StateGlyph(state string) string {
	switch state {
	case "checking":
		return "◌"
	case "connected":
		return "●"
	case "disconnected":
		return "✗"
	default:
		return "?"
	}
}

// OutcomeColor is green for successes and red for failures.
func OutcomeColor(ok bool) lipgloss.Color {
	if ok {
		return ColorHealthy
	}
	return ColorDanger
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleFocused = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)
)
