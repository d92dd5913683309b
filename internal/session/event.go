package session

import (
	"time"

	"github.com/seabattle/servercheck/internal/client"
)

// EventType classifies controller events.
type EventType int

const (
	EventEndpointChanged EventType = iota // endpoint edited, state forced to Disconnected
	EventCheckStarted                     // state entered Checking
	EventCheckFinished                    // probe result applied
	EventCheckRejected                    // testConnection while Checking
	EventRequestStarted                   // data request sent
	EventRequestFinished                  // data request result published
	EventRequestRejected                  // data request while not Connected
	EventStale                            // superseded result dropped
)

var eventNames = map[EventType]string{
	EventEndpointChanged: "endpoint_changed",
	EventCheckStarted:    "check_started",
	EventCheckFinished:   "check_finished",
	EventCheckRejected:   "check_rejected",
	EventRequestStarted:  "request_started",
	EventRequestFinished: "request_finished",
	EventRequestRejected: "request_rejected",
	EventStale:           "stale_result",
}

func (t EventType) String() string {
	if n, ok := eventNames[t]; ok {
		return n
	}
	return "unknown"
}

// Event describes one controller transition for emitters. Version matches the
// snapshot version current when the event was produced.
type Event struct {
	Type      EventType
	Version   uint64
	State     State
	Endpoint  client.Endpoint
	Op        client.Op
	RequestID uint64
	Outcome   *client.Outcome
	Time      time.Time
}
