// Package response renders the panel showing the result of the last request.
package response

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/seabattle/servercheck/internal/session"
	"github.com/seabattle/servercheck/internal/theme"
)

const idleHint = "Test the connection with ctrl+t, then send a message or fetch data."

// View renders the report for snap inside a bordered panel of the given width.
func View(snap session.Snapshot, width int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	var content string
	switch {
	case snap.State == session.Checking:
		content = lipgloss.NewStyle().Foreground(theme.ColorChecking).
			Render("Checking connection to " + snap.Endpoint.String() + "...")
	case snap.Report.IsZero():
		content = theme.StyleDimmed.Render(idleHint)
	default:
		title := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.OutcomeColor(snap.Report.OK)).
			Render(snap.Report.Title)
		lines := []string{title}
		if snap.Report.Detail != "" {
			lines = append(lines, "", snap.Report.Detail)
		}
		content = strings.Join(lines, "\n")
	}

	header := theme.StyleHeader.Render("Response")
	return theme.StyleBorder.
		Width(innerW).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}
