package app

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seabattle/servercheck/internal/client"
	"github.com/seabattle/servercheck/internal/config"
	"github.com/seabattle/servercheck/internal/session"
)

type fakeController struct {
	mu    sync.Mutex
	snap  session.Snapshot
	calls []string
	eps   []client.Endpoint
	texts []string
}

func newFake() *fakeController {
	return &fakeController{snap: session.Snapshot{
		Version:  1,
		Endpoint: client.Endpoint{Host: "localhost", Port: "8080"},
	}}
}

func (f *fakeController) record(call string) client.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	return client.Outcome{}
}

func (f *fakeController) Snapshot() session.Snapshot { return f.snap }

func (f *fakeController) OnEndpointChanged(ep client.Endpoint) {
	f.mu.Lock()
	f.eps = append(f.eps, ep)
	f.mu.Unlock()
	f.record("endpoint")
}

func (f *fakeController) TestConnection(context.Context) client.Outcome {
	return f.record("test")
}

func (f *fakeController) SendMessage(_ context.Context, text string) client.Outcome {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return f.record("send")
}

func (f *fakeController) FetchSimpleString(context.Context) client.Outcome {
	return f.record("simple")
}

func (f *fakeController) FetchCount(context.Context) client.Outcome {
	return f.record("count")
}

func (f *fakeController) FetchServerStatus(context.Context) client.Outcome {
	return f.record("status")
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestNewSeedsFormFromController(t *testing.T) {
	m := New(newFake())
	if got := m.inputEndpoint(); got != (client.Endpoint{Host: "localhost", Port: "8080"}) {
		t.Errorf("inputEndpoint() = %+v", got)
	}
	if m.focus != fieldHost {
		t.Errorf("focus = %d, want host", m.focus)
	}
}

func TestViewInitializing(t *testing.T) {
	m := New(newFake())
	if v := m.View(); v != "Initializing..." {
		t.Errorf("View() = %q before first resize", v)
	}
}

func TestViewShowsStateAndHint(t *testing.T) {
	m := sized(New(newFake()))
	v := m.View()
	for _, want := range []string{"Not checked", "localhost:8080", "ctrl+t", "Host:"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestKeysDispatchCommands(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want string
	}{
		{"test", tea.KeyMsg{Type: tea.KeyCtrlT}, "test"},
		{"send", tea.KeyMsg{Type: tea.KeyCtrlS}, "send"},
		{"simple", tea.KeyMsg{Type: tea.KeyCtrlG}, "simple"},
		{"count", tea.KeyMsg{Type: tea.KeyCtrlN}, "count"},
		{"status", tea.KeyMsg{Type: tea.KeyCtrlR}, "status"},
		{"enter on host tests", tea.KeyMsg{Type: tea.KeyEnter}, "test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake()
			m := sized(New(fake))
			_, cmd := press(t, m, tt.key)
			if cmd == nil {
				t.Fatal("expected a command")
			}
			if msg := cmd(); msg != nil {
				t.Errorf("command returned %T, want nil", msg)
			}
			if len(fake.calls) != 1 || fake.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", fake.calls, tt.want)
			}
		})
	}
}

func TestControllerNotCalledInsideUpdate(t *testing.T) {
	fake := newFake()
	m := sized(New(fake))
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if len(fake.calls) != 0 {
		t.Errorf("controller called synchronously: %v", fake.calls)
	}
}

func TestEnterOnMessageSendsText(t *testing.T) {
	fake := newFake()
	m := sized(New(fake))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != fieldMessage {
		t.Fatalf("focus = %d, want message", m.focus)
	}
	m = typeText(t, m, "B4")

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	cmd()
	if len(fake.texts) != 1 || fake.texts[0] != "B4" {
		t.Errorf("sent texts = %v, want [B4]", fake.texts)
	}
}

func TestEditedEndpointAppliedBeforeTest(t *testing.T) {
	fake := newFake()
	m := sized(New(fake))
	m = typeText(t, m, "x")
	if m.editSeq != 1 {
		t.Fatalf("editSeq = %d, want 1", m.editSeq)
	}

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	cmd()

	if strings.Join(fake.calls, ",") != "endpoint,test" {
		t.Errorf("calls = %v, want endpoint then test", fake.calls)
	}
	if fake.eps[0].Host != "localhostx" {
		t.Errorf("endpoint host = %q, want localhostx", fake.eps[0].Host)
	}
}

func TestOlderEndpointEditSkipped(t *testing.T) {
	fake := newFake()
	m := sized(New(fake))

	m = typeText(t, m, "a")
	first := m.applyEndpointCmd()
	m = typeText(t, m, "b")
	second := m.applyEndpointCmd()

	second()
	first()

	if len(fake.eps) != 1 || fake.eps[0].Host != "localhostab" {
		t.Errorf("applied endpoints = %+v, want only localhostab", fake.eps)
	}
}

func TestRenderMsgKeepsNewest(t *testing.T) {
	m := sized(New(newFake()))

	next, _ := m.Update(RenderMsg{Snapshot: session.Snapshot{Version: 5, State: session.Connected}})
	m = next.(Model)
	next, _ = m.Update(RenderMsg{Snapshot: session.Snapshot{Version: 3, State: session.Disconnected}})
	m = next.(Model)

	if m.snap.Version != 5 || m.snap.State != session.Connected {
		t.Errorf("snap = v%d %s, want v5 connected", m.snap.Version, m.snap.State)
	}
	if !strings.Contains(m.View(), "Connected") {
		t.Error("view should show Connected")
	}
}

func TestCheckStartedShowsChecking(t *testing.T) {
	m := sized(New(newFake()))
	ep := client.Endpoint{Host: "localhost", Port: "8080"}

	next, cmd := m.Update(EventMsg{Event: session.Event{
		Type: session.EventCheckStarted, Version: 2, State: session.Checking, Endpoint: ep,
	}})
	m = next.(Model)

	if m.snap.State != session.Checking {
		t.Errorf("state = %s, want checking", m.snap.State)
	}
	if cmd == nil || !m.spinning {
		t.Error("check start should start the spinner")
	}
	if !strings.Contains(m.View(), "Checking connection") {
		t.Error("response panel should show the check in progress")
	}
	if len(m.debug.Entries) != 1 {
		t.Errorf("debug entries = %d, want 1", len(m.debug.Entries))
	}

	// The finished render stops the spinner on the next tick.
	next, _ = m.Update(RenderMsg{Snapshot: session.Snapshot{Version: 3, State: session.Connected, Endpoint: ep}})
	m = next.(Model)
	next, cmd = m.Update(m.spinner.Tick())
	m = next.(Model)
	if cmd != nil || m.spinning {
		t.Error("spinner should stop once the check finished")
	}
}

func TestStaleCheckStartedIgnored(t *testing.T) {
	m := sized(New(newFake()))
	next, _ := m.Update(RenderMsg{Snapshot: session.Snapshot{Version: 4, State: session.Disconnected}})
	m = next.(Model)

	next, _ = m.Update(EventMsg{Event: session.Event{Type: session.EventCheckStarted, Version: 2}})
	m = next.(Model)
	if m.snap.State != session.Disconnected {
		t.Errorf("state = %s, want disconnected", m.snap.State)
	}
}

func TestConfigReloadUpdatesEndpoint(t *testing.T) {
	fake := newFake()
	m := sized(New(fake))

	cfg := config.Default()
	cfg.Client.Host = "10.0.0.5"
	cfg.Client.Port = "9090"
	next, cmd := m.Update(ConfigReloadedMsg{Config: cfg})
	m = next.(Model)

	if got := m.inputEndpoint(); got.Host != "10.0.0.5" || got.Port != "9090" {
		t.Errorf("form endpoint = %+v", got)
	}
	if cmd == nil {
		t.Fatal("expected endpoint command")
	}
	cmd()
	if len(fake.eps) != 1 || fake.eps[0].Port != "9090" {
		t.Errorf("applied endpoints = %+v", fake.eps)
	}

	_, cmd = m.Update(ConfigReloadedMsg{Config: cfg})
	if cmd != nil {
		t.Error("unchanged endpoint should not produce a command")
	}
}

func TestDebugOverlay(t *testing.T) {
	m := sized(New(newFake()))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	if !m.showDebug || !strings.Contains(m.View(), "EVENT LOG") {
		t.Fatal("ctrl+d should open the event log")
	}

	fake := m.ctrl.(*fakeController)
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if cmd != nil || len(fake.calls) != 0 {
		t.Error("keys other than close should be swallowed by the overlay")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showDebug {
		t.Error("esc should close the event log")
	}
}

func TestQuit(t *testing.T) {
	m := sized(New(newFake()))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
	if m.ctx.Err() == nil {
		t.Error("quit should cancel in-flight requests")
	}
}

func TestSinkWithoutProgramDrops(t *testing.T) {
	s := NewSink()
	s.Render(session.Snapshot{})
	s.Emit(session.Event{})
	s.ConfigChanged(config.Default())
}
