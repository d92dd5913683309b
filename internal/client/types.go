// Package client provides the HTTP client for the sea battle game server and
// the outcome model shared by the connection probe and the session controller.
// Types mirror the server wire protocol without importing server packages.
package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Server paths. The API is fixed by the server.
const (
	PathTest         = "/test"
	PathEcho         = "/get-string"
	PathSimpleString = "/get-simple-string"
	PathCount        = "/get-count"
	PathServerStatus = "/server-status"
)

// Endpoint is the host/port pair the session talks to.
type Endpoint struct {
	Host string `json:"host" yaml:"host"`
	Port string `json:"port" yaml:"port"`
}

// NewEndpoint trims user input into an Endpoint.
func NewEndpoint(host, port string) Endpoint {
	return Endpoint{
		Host: strings.TrimSpace(host),
		Port: strings.TrimSpace(port),
	}
}

// BaseURL is recomputed from Host and Port on every call.
func (e Endpoint) BaseURL() string {
	return "http://" + net.JoinHostPort(e.Host, e.Port)
}

// String returns the base URL.
func (e Endpoint) String() string {
	return e.BaseURL()
}

// Validate reports whether the endpoint can be dialed at all.
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return errors.New("host is empty")
	}
	if strings.ContainsAny(e.Host, "/?# \t") {
		return fmt.Errorf("host %q contains invalid characters", e.Host)
	}
	n, err := strconv.Atoi(e.Port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port %q is not a valid TCP port", e.Port)
	}
	return nil
}

// Payload is the decoded body of a successful request.
type Payload interface {
	isPayload()
}

// Text is a plain-text response body (/test, /get-simple-string).
type Text struct {
	Body string
}

// EchoReply mirrors the JSON answer of POST /get-string.
type EchoReply struct {
	Message    string `json:"message,omitempty"`
	Timestamp  string `json:"timestamp"`
	ClickCount int    `json:"clickCount"`
	Status     string `json:"status"`
}

// Counter mirrors the JSON answer of GET /get-count.
type Counter struct {
	Count int `json:"count"`
}

// ServerStatus mirrors the JSON answer of GET /server-status.
type ServerStatus struct {
	Status        string        `json:"status"`
	ServerTime    string        `json:"serverTime"`
	TotalRequests int           `json:"totalRequests"`
	Version       string        `json:"version"`
	Message       string        `json:"message"`
	Process       *ProcessStats `json:"process,omitempty"`
}

// ProcessStats is the server process resource snapshot.
type ProcessStats struct {
	PID           int32   `json:"pid"`
	RSSBytes      uint64  `json:"rssBytes"`
	CPUPercent    float64 `json:"cpuPercent"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
}

func (Text) isPayload()         {}
func (EchoReply) isPayload()    {}
func (Counter) isPayload()      {}
func (ServerStatus) isPayload() {}
