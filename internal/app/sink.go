package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seabattle/servercheck/internal/config"
	"github.com/seabattle/servercheck/internal/session"
)

// RenderMsg carries a published session snapshot into the program.
type RenderMsg struct {
	Snapshot session.Snapshot
}

// EventMsg carries a controller event into the program.
type EventMsg struct {
	Event session.Event
}

// ConfigReloadedMsg is sent when the config file changes on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// Sink forwards controller callbacks to a running tea.Program. It implements
// session.Renderer and session.Emitter. Messages sent before SetProgram are
// dropped; the model reads the initial snapshot directly.
type Sink struct {
	mu sync.Mutex
	p  *tea.Program
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) SetProgram(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *Sink) send(msg tea.Msg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (s *Sink) Render(snap session.Snapshot) {
	s.send(RenderMsg{Snapshot: snap})
}

func (s *Sink) Emit(e session.Event) {
	s.send(EventMsg{Event: e})
}

// ConfigChanged is passed to config.Watch.
func (s *Sink) ConfigChanged(cfg *config.Config) {
	s.send(ConfigReloadedMsg{Config: cfg})
}
