// Package session owns the connection state machine. The Controller is the
// only writer of the Session: it gates which requests are permitted, runs the
// probe and the data requests, and publishes every change to a Renderer.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/seabattle/servercheck/internal/client"
	"go.uber.org/zap"
)

// Default timeouts.
const (
	DefaultProbeTimeout   = 5 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// Failure messages for rejected actions.
const (
	MsgNotConnected    = "not connected"
	MsgCheckInProgress = "connection check already in progress"
)

// Renderer receives a snapshot after every state-affecting operation.
type Renderer interface {
	Render(Snapshot)
}

// Emitter receives intermediate transitions and diagnostics.
type Emitter interface {
	Emit(Event)
}

// Prober runs the reachability check. *probe.Probe satisfies it.
type Prober interface {
	Probe(ctx context.Context, ep client.Endpoint, timeout time.Duration) client.Outcome
}

// API issues the data requests. *client.HTTPClient satisfies it.
type API interface {
	Echo(ctx context.Context, ep client.Endpoint, message string) (client.EchoReply, error)
	SimpleString(ctx context.Context, ep client.Endpoint) (client.Text, error)
	Count(ctx context.Context, ep client.Endpoint) (client.Counter, error)
	ServerStatus(ctx context.Context, ep client.Endpoint) (client.ServerStatus, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Snapshot)

func (f RendererFunc) Render(s Snapshot) { f(s) }

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

// Controller serializes user actions against the connection state.
//
// Operations may be called from several goroutines (the TUI runs each one in
// its own command). mu only protects the fields; it is never held across a
// network call or a collaborator callback. Probe exclusion is decided by the
// Checking state.
type Controller struct {
	prober   Prober
	api      API
	renderer Renderer
	emitter  Emitter
	logger   *zap.Logger
	now      func() time.Time

	probeTimeout   time.Duration
	requestTimeout time.Duration

	mu        sync.Mutex
	session   Session
	version   uint64
	nextID    uint64
	probeID   uint64 // request id of the probe that may still apply; 0 if none
	published uint64 // request id of the newest published transition
}

// Option configures a Controller.
type Option func(*Controller)

// WithEndpoint sets the initial endpoint.
func WithEndpoint(ep client.Endpoint) Option {
	return func(c *Controller) {
		c.session.Endpoint = client.NewEndpoint(ep.Host, ep.Port)
	}
}

// WithEmitter sets the event sink.
func WithEmitter(e Emitter) Option {
	return func(c *Controller) {
		if e != nil {
			c.emitter = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProbeTimeout sets the probe bound.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// WithRequestTimeout sets the bound for data requests.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// NewController creates a controller in state Unknown.
func NewController(prober Prober, api API, renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		prober:         prober,
		api:            api,
		renderer:       renderer,
		emitter:        EmitterFunc(func(Event) {}),
		logger:         zap.NewNop(),
		now:            time.Now,
		probeTimeout:   DefaultProbeTimeout,
		requestTimeout: DefaultRequestTimeout,
		session:        Session{State: Unknown},
	}
	if c.renderer == nil {
		c.renderer = RendererFunc(func(Snapshot) {})
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("session")
	return c
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.snapshot(c.version)
}

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.State
}

// OnEndpointChanged replaces the endpoint and forces Disconnected. Any probe
// or request still in flight for the old endpoint can no longer publish.
func (c *Controller) OnEndpointChanged(ep client.Endpoint) {
	ep = client.NewEndpoint(ep.Host, ep.Port)

	c.mu.Lock()
	old := c.session.Endpoint
	id := c.nextRequestID()
	c.session.Endpoint = ep
	c.session.State = Disconnected
	c.session.LastOutcome = nil
	c.session.Report = Report{}
	c.probeID = 0
	c.published = id
	snap := c.publishLocked()
	c.mu.Unlock()

	c.logger.Info("endpoint changed",
		zap.String("from", old.BaseURL()),
		zap.String("to", ep.BaseURL()),
	)
	c.renderer.Render(snap)
	c.emit(Event{Type: EventEndpointChanged, Version: snap.Version, State: snap.State, Endpoint: ep, RequestID: id})
}

// TestConnection probes the current endpoint: Checking, then Connected or
// Disconnected. A call while a check is in flight is rejected without a
// network call. Render is called exactly once when the call returns.
func (c *Controller) TestConnection(ctx context.Context) client.Outcome {
	c.mu.Lock()
	id := c.nextRequestID()
	ep := c.session.Endpoint

	if c.session.State == Checking {
		out := client.Failure(client.OpProbe, ep, &client.RequestError{Kind: client.KindUnknown, Message: MsgCheckInProgress})
		out.RequestID = id
		snap := c.session.snapshot(c.version)
		c.mu.Unlock()

		c.logger.Debug("connection check rejected", zap.Uint64("request_id", id))
		c.renderer.Render(snap)
		c.emit(Event{Type: EventCheckRejected, Version: snap.Version, State: snap.State, Endpoint: ep, Op: client.OpProbe, RequestID: id, Outcome: &out})
		return out
	}

	c.session.State = Checking
	c.probeID = id
	c.published = id
	c.version++
	version := c.version
	c.mu.Unlock()

	c.emit(Event{Type: EventCheckStarted, Version: version, State: Checking, Endpoint: ep, Op: client.OpProbe, RequestID: id})

	out := c.prober.Probe(ctx, ep, c.probeTimeout)
	out.RequestID = id

	c.mu.Lock()
	if c.probeID != id {
		version := c.version
		state := c.session.State
		c.mu.Unlock()

		c.logger.Debug("stale probe result dropped", zap.Uint64("request_id", id))
		c.emit(Event{Type: EventStale, Version: version, State: state, Endpoint: ep, Op: client.OpProbe, RequestID: id, Outcome: &out})
		return out
	}
	c.probeID = 0
	if out.OK() {
		c.session.State = Connected
	} else {
		c.session.State = Disconnected
	}
	c.recordLocked(out)
	snap := c.publishLocked()
	c.mu.Unlock()

	c.renderer.Render(snap)
	c.emit(Event{Type: EventCheckFinished, Version: snap.Version, State: snap.State, Endpoint: ep, Op: client.OpProbe, RequestID: id, Outcome: &out})
	return out
}

// SendMessage posts text to the echo endpoint. Absent text is sent empty.
func (c *Controller) SendMessage(ctx context.Context, text string) client.Outcome {
	return c.request(ctx, client.OpEcho, func(ctx context.Context, ep client.Endpoint) (client.Payload, error) {
		return c.api.Echo(ctx, ep, text)
	})
}

// FetchSimpleString fetches the plain string.
func (c *Controller) FetchSimpleString(ctx context.Context) client.Outcome {
	return c.request(ctx, client.OpSimpleString, func(ctx context.Context, ep client.Endpoint) (client.Payload, error) {
		return c.api.SimpleString(ctx, ep)
	})
}

// FetchCount fetches the click counter.
func (c *Controller) FetchCount(ctx context.Context) client.Outcome {
	return c.request(ctx, client.OpCount, func(ctx context.Context, ep client.Endpoint) (client.Payload, error) {
		return c.api.Count(ctx, ep)
	})
}

// FetchServerStatus fetches the server status summary.
func (c *Controller) FetchServerStatus(ctx context.Context) client.Outcome {
	return c.request(ctx, client.OpServerStatus, func(ctx context.Context, ep client.Endpoint) (client.Payload, error) {
		return c.api.ServerStatus(ctx, ep)
	})
}

type call func(ctx context.Context, ep client.Endpoint) (client.Payload, error)

// request runs a data request. It requires Connected and never changes the
// connection state: a failure here is reported, not treated as a disconnect.
// A result older than the newest published transition is dropped.
func (c *Controller) request(ctx context.Context, op client.Op, fn call) client.Outcome {
	c.mu.Lock()
	id := c.nextRequestID()
	ep := c.session.Endpoint

	if c.session.State != Connected {
		out := client.Failure(op, ep, &client.RequestError{Kind: client.KindUnknown, Message: MsgNotConnected})
		out.RequestID = id
		c.published = id
		c.recordLocked(out)
		snap := c.publishLocked()
		c.mu.Unlock()

		c.logger.Debug("request rejected", zap.String("op", string(op)), zap.String("state", snap.State.String()))
		c.renderer.Render(snap)
		c.emit(Event{Type: EventRequestRejected, Version: snap.Version, State: snap.State, Endpoint: ep, Op: op, RequestID: id, Outcome: &out})
		return out
	}
	version := c.version
	c.mu.Unlock()

	c.emit(Event{Type: EventRequestStarted, Version: version, State: Connected, Endpoint: ep, Op: op, RequestID: id})

	rctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()
	start := c.now()
	payload, err := fn(rctx, ep)

	var out client.Outcome
	if err != nil {
		out = client.Failure(op, ep, client.Classify(err, ep, c.requestTimeout))
	} else {
		out = client.Success(op, ep, payload)
	}
	out.RequestID = id
	out.Latency = c.now().Sub(start)
	c.logRequest(out)

	c.mu.Lock()
	if id < c.published {
		version := c.version
		state := c.session.State
		c.mu.Unlock()

		c.logger.Debug("stale result dropped", zap.String("op", string(op)), zap.Uint64("request_id", id))
		c.emit(Event{Type: EventStale, Version: version, State: state, Endpoint: ep, Op: op, RequestID: id, Outcome: &out})
		return out
	}
	c.published = id
	c.recordLocked(out)
	snap := c.publishLocked()
	c.mu.Unlock()

	c.renderer.Render(snap)
	c.emit(Event{Type: EventRequestFinished, Version: snap.Version, State: snap.State, Endpoint: ep, Op: op, RequestID: id, Outcome: &out})
	return out
}

func (c *Controller) nextRequestID() uint64 {
	c.nextID++
	return c.nextID
}

func (c *Controller) recordLocked(out client.Outcome) {
	copy := out
	c.session.LastOutcome = &copy
	c.session.Report = Describe(out)
}

func (c *Controller) publishLocked() Snapshot {
	c.version++
	return c.session.snapshot(c.version)
}

func (c *Controller) emit(e Event) {
	e.Time = c.now()
	c.emitter.Emit(e)
}

func (c *Controller) logRequest(out client.Outcome) {
	if out.OK() {
		c.logger.Info("request succeeded",
			zap.String("op", string(out.Op)),
			zap.Uint64("request_id", out.RequestID),
			zap.Duration("latency", out.Latency),
		)
		return
	}
	c.logger.Warn("request failed",
		zap.String("op", string(out.Op)),
		zap.Uint64("request_id", out.RequestID),
		zap.String("kind", out.Err.Kind.String()),
		zap.String("message", out.Err.Message),
	)
}
