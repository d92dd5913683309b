// Package probe implements the bounded-time reachability check against the
// server health path.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/seabattle/servercheck/internal/client"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a probe when the caller passes no timeout.
const DefaultTimeout = 5 * time.Second

// Pinger performs the health request. *client.HTTPClient satisfies it.
type Pinger interface {
	Ping(ctx context.Context, ep client.Endpoint) (client.Text, error)
}

// Probe checks whether an endpoint is reachable. It holds no session state.
type Probe struct {
	pinger Pinger
	logger *zap.Logger
}

// New creates a probe around pinger.
func New(pinger Pinger, logger *zap.Logger) *Probe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Probe{pinger: pinger, logger: logger.Named("probe")}
}

type pingResult struct {
	text client.Text
	err  error
}

// Probe races one GET /test against timeout. It never returns an error or
// panics: every path resolves to an Outcome. When the deadline wins, the
// request context is cancelled and the late result is discarded.
func (p *Probe) Probe(ctx context.Context, ep client.Endpoint, timeout time.Duration) (out client.Outcome) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = client.Failure(client.OpProbe, ep, &client.RequestError{
				Kind:    client.KindUnknown,
				Message: fmt.Sprintf("probe panicked: %v", r),
			})
		}
		out.Latency = time.Since(start)
		p.log(out)
	}()

	if err := ep.Validate(); err != nil {
		return client.Failure(client.OpProbe, ep, &client.RequestError{
			Kind:    client.KindUnknown,
			Message: "invalid endpoint: " + err.Error(),
			Err:     err,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so the pinger goroutine never blocks after losing the race.
	done := make(chan pingResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- pingResult{err: fmt.Errorf("ping panicked: %v", r)}
			}
		}()
		text, err := p.pinger.Ping(ctx, ep)
		done <- pingResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return client.Failure(client.OpProbe, ep, client.Classify(res.err, ep, timeout))
		}
		return client.Success(client.OpProbe, ep, res.text)
	case <-ctx.Done():
		return client.Failure(client.OpProbe, ep, client.Classify(ctx.Err(), ep, timeout))
	}
}

func (p *Probe) log(out client.Outcome) {
	if out.OK() {
		p.logger.Info("probe succeeded",
			zap.String("endpoint", out.Endpoint.BaseURL()),
			zap.Duration("latency", out.Latency),
		)
		return
	}
	p.logger.Warn("probe failed",
		zap.String("endpoint", out.Endpoint.BaseURL()),
		zap.String("kind", out.Err.Kind.String()),
		zap.String("message", out.Err.Message),
		zap.Duration("latency", out.Latency),
	)
}
