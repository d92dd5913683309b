// Package app is the root Bubble Tea model of the servercheck TUI.
package app

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/seabattle/servercheck/internal/client"
	"github.com/seabattle/servercheck/internal/session"
	"github.com/seabattle/servercheck/internal/theme"
	"github.com/seabattle/servercheck/internal/views/debug"
	"github.com/seabattle/servercheck/internal/views/response"
	"github.com/seabattle/servercheck/internal/views/status"
)

// Controller is the part of session.Controller the TUI drives. Every call
// runs inside a tea.Cmd: the controller reports back through the Sink, which
// blocks until Update is free.
type Controller interface {
	Snapshot() session.Snapshot
	OnEndpointChanged(client.Endpoint)
	TestConnection(context.Context) client.Outcome
	SendMessage(context.Context, string) client.Outcome
	FetchSimpleString(context.Context) client.Outcome
	FetchCount(context.Context) client.Outcome
	FetchServerStatus(context.Context) client.Outcome
}

// Form fields, in tab order.
const (
	fieldHost = iota
	fieldPort
	fieldMessage
	fieldCount
)

// Model is the root Bubble Tea model.
type Model struct {
	ctrl   Controller
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	inputs   []textinput.Model
	focus    int
	spinner  spinner.Model
	spinning bool

	// Highest-version state seen so far.
	snap session.Snapshot

	statusBar status.Model
	debug     debug.Model
	showDebug bool

	// editSeq counts host/port edits. Commands carry the value current when
	// they were created so an older edit never overwrites a newer one.
	editSeq   uint64
	endpoints *endpointApplier
}

// New creates the root model, seeding the form from the controller.
func New(ctrl Controller) Model {
	ctx, cancel := context.WithCancel(context.Background())
	snap := ctrl.Snapshot()

	host := textinput.New()
	host.Prompt = "Host:    "
	host.Placeholder = "localhost"
	host.CharLimit = 253
	host.SetValue(snap.Endpoint.Host)
	host.Focus()

	port := textinput.New()
	port.Prompt = "Port:    "
	port.Placeholder = "8080"
	port.CharLimit = 5
	port.SetValue(snap.Endpoint.Port)

	message := textinput.New()
	message.Prompt = "Message: "
	message.Placeholder = "Type a message for the server"
	message.CharLimit = 500

	statusBar := status.New()
	statusBar.SetSnapshot(snap)

	return Model{
		ctrl:      ctrl,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		inputs:    []textinput.Model{host, port, message},
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		snap:      snap,
		statusBar: statusBar,
		debug:     debug.New(),
		endpoints: &endpointApplier{},
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case RenderMsg:
		m.applySnapshot(msg.Snapshot)
		return m, nil

	case EventMsg:
		m.debug.AddEvent(msg.Event)
		if msg.Event.Type == session.EventCheckStarted && msg.Event.Version > m.snap.Version {
			m.snap.Version = msg.Event.Version
			m.snap.State = session.Checking
			m.snap.Endpoint = msg.Event.Endpoint
			m.statusBar.SetSnapshot(m.snap)
			if !m.spinning {
				m.spinning = true
				return m, m.spinner.Tick
			}
		}
		return m, nil

	case spinner.TickMsg:
		if m.snap.State != session.Checking {
			m.spinning = false
			m.statusBar.Spinner = ""
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.statusBar.Spinner = m.spinner.View()
		return m, cmd

	case ConfigReloadedMsg:
		m.debug.Add("cfg", "config reloaded")
		ep := client.NewEndpoint(msg.Config.Client.Host, msg.Config.Client.Port)
		if ep == m.inputEndpoint() {
			return m, nil
		}
		m.inputs[fieldHost].SetValue(ep.Host)
		m.inputs[fieldPort].SetValue(ep.Port)
		m.editSeq++
		return m, m.applyEndpointCmd()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// applySnapshot keeps the newest snapshot; renders can arrive out of order.
func (m *Model) applySnapshot(snap session.Snapshot) {
	if snap.Version < m.snap.Version {
		return
	}
	m.snap = snap
	m.statusBar.SetSnapshot(snap)
	if snap.State != session.Checking {
		m.statusBar.Spinner = ""
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.showDebug {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.showDebug = false
		case key.Matches(msg, m.keys.ScrollUp):
			m.debug.ScrollUp(1)
		case key.Matches(msg, m.keys.ScrollDown):
			m.debug.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Debug):
		m.showDebug = true
		return m, nil

	case key.Matches(msg, m.keys.Test):
		return m, m.testCmd()

	case key.Matches(msg, m.keys.Send):
		return m, m.sendCmd()

	case key.Matches(msg, m.keys.Submit):
		if m.focus == fieldMessage {
			return m, m.sendCmd()
		}
		return m, m.testCmd()

	case key.Matches(msg, m.keys.SimpleString):
		return m, m.run(func(ctx context.Context, c Controller) { c.FetchSimpleString(ctx) })

	case key.Matches(msg, m.keys.Count):
		return m, m.run(func(ctx context.Context, c Controller) { c.FetchCount(ctx) })

	case key.Matches(msg, m.keys.ServerStatus):
		return m, m.run(func(ctx context.Context, c Controller) { c.FetchServerStatus(ctx) })

	case key.Matches(msg, m.keys.NextField):
		return m, m.setFocus((m.focus + 1) % fieldCount)

	case key.Matches(msg, m.keys.PrevField):
		return m, m.setFocus((m.focus - 1 + fieldCount) % fieldCount)
	}

	before := m.inputEndpoint()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputEndpoint() != before {
		m.editSeq++
		return m, tea.Batch(cmd, m.applyEndpointCmd())
	}
	return m, cmd
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = field
	return m.inputs[m.focus].Focus()
}

func (m Model) inputEndpoint() client.Endpoint {
	return client.NewEndpoint(m.inputs[fieldHost].Value(), m.inputs[fieldPort].Value())
}

func (m Model) testCmd() tea.Cmd {
	return m.run(func(ctx context.Context, c Controller) { c.TestConnection(ctx) })
}

func (m Model) sendCmd() tea.Cmd {
	text := m.inputs[fieldMessage].Value()
	return m.run(func(ctx context.Context, c Controller) { c.SendMessage(ctx, text) })
}

// run returns a command that first brings the controller's endpoint up to
// date with the form, then calls fn.
func (m Model) run(fn func(context.Context, Controller)) tea.Cmd {
	ctx, ctrl, applier := m.ctx, m.ctrl, m.endpoints
	seq, ep := m.editSeq, m.inputEndpoint()
	return func() tea.Msg {
		applier.apply(ctrl, seq, ep)
		fn(ctx, ctrl)
		return nil
	}
}

func (m Model) applyEndpointCmd() tea.Cmd {
	ctrl, applier := m.ctrl, m.endpoints
	seq, ep := m.editSeq, m.inputEndpoint()
	return func() tea.Msg {
		applier.apply(ctrl, seq, ep)
		return nil
	}
}

// endpointApplier serializes endpoint changes and skips edits older than
// the last one applied.
type endpointApplier struct {
	mu      sync.Mutex
	applied uint64
}

func (a *endpointApplier) apply(ctrl Controller, seq uint64, ep client.Endpoint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if seq <= a.applied {
		return
	}
	a.applied = seq
	ctrl.OnEndpointChanged(ep)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.showDebug {
		return m.debug.View(m.width, m.height)
	}

	sections := []string{
		theme.StyleHeader.Render(" Sea Battle server check"),
		m.renderForm(),
		m.statusBar.View(),
		response.View(m.snap, m.width),
		theme.StyleDimmed.Render("  " + m.helpLine()),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderForm() string {
	lines := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		prefix := "  "
		if i == m.focus {
			prefix = theme.StyleLabel.Render("> ")
		}
		lines[i] = prefix + in.View()
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	return theme.StyleBorder.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) helpLine() string {
	bindings := []key.Binding{
		m.keys.Test, m.keys.Send, m.keys.SimpleString, m.keys.Count,
		m.keys.ServerStatus, m.keys.NextField, m.keys.Debug, m.keys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return strings.Join(parts, "  ")
}
