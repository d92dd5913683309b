package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

// ErrorKind classifies a failed request for user messaging.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindNetwork
	KindHTTP
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network_unreachable"
	case KindHTTP:
		return "http_error"
	default:
		return "unknown"
	}
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// RequestError is a classified failure. Message is user-facing.
type RequestError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Classify maps a request error onto the error taxonomy. timeout is the bound
// that applied to the request and is named in timeout messages.
func Classify(err error, ep Endpoint, timeout time.Duration) *RequestError {
	if err == nil {
		return nil
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	if isTimeout(err) {
		return &RequestError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("connection timed out: server did not respond within %s at %s", timeout, ep.BaseURL()),
			Err:     err,
		}
	}

	if errors.Is(err, context.Canceled) {
		return &RequestError{Kind: KindUnknown, Message: "request cancelled", Err: err}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &RequestError{
			Kind:       KindHTTP,
			StatusCode: statusErr.StatusCode,
			Message:    fmt.Sprintf("HTTP error: %d %s", statusErr.StatusCode, http.StatusText(statusErr.StatusCode)),
			Err:        err,
		}
	}

	if isNetwork(err) {
		return &RequestError{
			Kind:    KindNetwork,
			Message: fmt.Sprintf("network error: could not reach %s", ep.BaseURL()),
			Err:     err,
		}
	}

	return &RequestError{Kind: KindUnknown, Message: err.Error(), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isNetwork reports a transport failure that happened before any response.
// Every error returned by http.Client.Do is a *url.Error, so that covers
// refused connections, DNS failures and connections closed mid-handshake.
func isNetwork(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}
