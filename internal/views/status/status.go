package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/seabattle/servercheck/internal/client"
	"github.com/seabattle/servercheck/internal/session"
	"github.com/seabattle/servercheck/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	State    session.State
	Endpoint client.Endpoint
	Last     *client.Outcome
	Spinner  string
	Width    int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// SetSnapshot copies the fields the bar shows.
func (m *Model) SetSnapshot(snap session.Snapshot) {
	m.State = snap.State
	m.Endpoint = snap.Endpoint
	m.Last = snap.LastOutcome
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	name := m.State.String()
	glyph := theme.StateGlyph(name)
	if m.State == session.Checking && m.Spinner != "" {
		glyph = m.Spinner
	}
	stateStr := lipgloss.NewStyle().
		Foreground(theme.StateColor(name)).
		Render(glyph + " " + stateLabel(m.State))

	endpoint := m.Endpoint.String()
	if m.Endpoint.Host == "" && m.Endpoint.Port == "" {
		endpoint = "no endpoint"
	}

	parts := []string{stateStr, theme.StyleDimmed.Render(endpoint)}
	if m.Last != nil {
		parts = append(parts, lastStr(*m.Last))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(strings.Join(parts, sep))
}

func stateLabel(s session.State) string {
	switch s {
	case session.Checking:
		return "Checking..."
	case session.Connected:
		return "Connected"
	case session.Disconnected:
		return "Disconnected"
	default:
		return "Not checked"
	}
}

func lastStr(out client.Outcome) string {
	text := fmt.Sprintf("last: %s", out.Op)
	if out.OK() {
		text += fmt.Sprintf(" ok %s", out.Latency.Round(time.Millisecond))
	} else {
		text += " " + out.Kind().String()
	}
	return lipgloss.NewStyle().Foreground(theme.OutcomeColor(out.OK())).Render(text)
}
