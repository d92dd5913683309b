package client

import "time"

// Op names a request operation.
type Op string

const (
	OpProbe        Op = "probe"
	OpEcho         Op = "echo"
	OpSimpleString Op = "simple_string"
	OpCount        Op = "count"
	OpServerStatus Op = "server_status"
)

// Outcome is the result of one request: a Payload on success, a classified
// RequestError on failure. Exactly one of the two is set.
type Outcome struct {
	Op        Op
	RequestID uint64
	Endpoint  Endpoint
	Payload   Payload
	Err       *RequestError
	Latency   time.Duration
}

// Success builds a successful outcome.
func Success(op Op, ep Endpoint, payload Payload) Outcome {
	return Outcome{Op: op, Endpoint: ep, Payload: payload}
}

// Failure builds a failed outcome.
func Failure(op Op, ep Endpoint, err *RequestError) Outcome {
	if err == nil {
		err = &RequestError{Kind: KindUnknown, Message: "unknown error"}
	}
	return Outcome{Op: op, Endpoint: ep, Err: err}
}

// OK reports whether the request succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Kind returns the failure classification. It is KindUnknown for successes;
// check OK first.
func (o Outcome) Kind() ErrorKind {
	if o.Err == nil {
		return KindUnknown
	}
	return o.Err.Kind
}
