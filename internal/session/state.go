package session

import (
	"encoding/json"
	"fmt"

	"github.com/seabattle/servercheck/internal/client"
)

// State is the connection state of the session.
type State int

const (
	Unknown State = iota
	Checking
	Connected
	Disconnected
)

var stateNames = map[State]string{
	Unknown:      "unknown",
	Checking:     "checking",
	Connected:    "connected",
	Disconnected: "disconnected",
}

var stateFromName = map[string]State{
	"unknown":      Unknown,
	"checking":     Checking,
	"connected":    Connected,
	"disconnected": Disconnected,
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "invalid"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, ok := stateFromName[n]
	if !ok {
		return fmt.Errorf("unknown connection state %q", n)
	}
	*s = v
	return nil
}

// Session is the client-side state that lives for the whole program run.
// Only the Controller mutates it.
type Session struct {
	Endpoint    client.Endpoint
	State       State
	LastOutcome *client.Outcome
	Report      Report
}

// Snapshot is a copy of the Session handed to collaborators (safe to retain).
// Version grows with every published change; a consumer that receives
// snapshots out of order keeps the highest version.
type Snapshot struct {
	Version     uint64
	Endpoint    client.Endpoint
	State       State
	LastOutcome *client.Outcome
	Report      Report
}

func (s *Session) snapshot(version uint64) Snapshot {
	snap := Snapshot{
		Version:  version,
		Endpoint: s.Endpoint,
		State:    s.State,
		Report:   s.Report,
	}
	if s.LastOutcome != nil {
		copy := *s.LastOutcome
		snap.LastOutcome = &copy
	}
	return snap
}
