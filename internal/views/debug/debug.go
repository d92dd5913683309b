// Package debug provides a scrollable controller event log overlay.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/seabattle/servercheck/internal/session"
	"github.com/seabattle/servercheck/internal/theme"
)

const maxEntries = 200

// Entry is a single event log line.
type Entry struct {
	Time    time.Time
	Kind    string // "chk", "req", "stal", "cfg", "err"
	Message string
}

// Model holds debug log state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset (from bottom)
}

// New creates an empty debug model.
func New() Model {
	return Model{}
}

// Add appends a log entry and caps the buffer.
func (m *Model) Add(kind, message string) {
	m.add(Entry{Time: time.Now(), Kind: kind, Message: message})
}

// AddEvent records a controller event.
func (m *Model) AddEvent(e session.Event) {
	t := e.Time
	if t.IsZero() {
		t = time.Now()
	}
	m.add(Entry{Time: t, Kind: eventKind(e), Message: eventMessage(e)})
}

func (m *Model) add(e Entry) {
	m.Entries = append(m.Entries, e)
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	// Reset scroll to bottom on new entry.
	m.Offset = 0
}

func eventKind(e session.Event) string {
	switch e.Type {
	case session.EventStale:
		return "stal"
	case session.EventCheckRejected, session.EventRequestRejected:
		return "err"
	case session.EventEndpointChanged, session.EventCheckStarted, session.EventCheckFinished:
		if e.Outcome != nil && !e.Outcome.OK() {
			return "err"
		}
		return "chk"
	default:
		if e.Outcome != nil && !e.Outcome.OK() {
			return "err"
		}
		return "req"
	}
}

func eventMessage(e session.Event) string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	if e.Op != "" {
		fmt.Fprintf(&b, " op=%s", e.Op)
	}
	if e.RequestID != 0 {
		fmt.Fprintf(&b, " id=%d", e.RequestID)
	}
	fmt.Fprintf(&b, " state=%s", e.State)
	if e.Outcome != nil {
		if e.Outcome.OK() {
			fmt.Fprintf(&b, " ok %s", e.Outcome.Latency.Round(time.Millisecond))
		} else {
			fmt.Fprintf(&b, " %s: %s", e.Outcome.Kind(), e.Outcome.Err.Message)
		}
	}
	return b.String()
}

// ScrollUp moves the viewport up.
func (m *Model) ScrollUp(n int) {
	m.Offset += n
	max := len(m.Entries) - 1
	if max < 0 {
		max = 0
	}
	if m.Offset > max {
		m.Offset = max
	}
}

// ScrollDown moves the viewport down.
func (m *Model) ScrollDown(n int) {
	m.Offset -= n
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the debug log as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	visibleLines := height - 6
	if visibleLines < 3 {
		visibleLines = 3
	}

	title := theme.StyleHeader.Render(" EVENT LOG ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("up/down:scroll  esc:close  %d entries", len(m.Entries)))

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  No events recorded yet.")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help)
		return panelStyle(innerW).Render(content)
	}

	end := len(m.Entries) - m.Offset
	start := end - visibleLines
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}

	var lines []string
	for i := start; i < end; i++ {
		e := m.Entries[i]
		tsStr := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kindStr := lipgloss.NewStyle().Foreground(kindToColor(e.Kind)).Width(4).Render(e.Kind)
		msgStr := e.Message
		if len(msgStr) > innerW-20 && innerW > 23 {
			msgStr = msgStr[:innerW-23] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", tsStr, kindStr, msgStr))
	}

	body := strings.Join(lines, "\n")
	scrollIndicator := ""
	if m.Offset > 0 {
		scrollIndicator = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, scrollIndicator, help)
	return panelStyle(innerW).Render(content)
}

func kindToColor(kind string) lipgloss.Color {
	switch kind {
	case "chk":
		return theme.ColorChecking
	case "req":
		return theme.ColorConnected
	case "err":
		return theme.ColorDanger
	case "stal", "cfg":
		return theme.ColorWarning
	default:
		return theme.ColorDimmed
	}
}
