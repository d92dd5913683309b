package session

import (
	"fmt"
	"strings"

	"github.com/seabattle/servercheck/internal/client"
)

// Report is the user-facing message for the last outcome.
type Report struct {
	OK     bool
	Title  string
	Detail string
}

// IsZero reports whether there is nothing to show.
func (r Report) IsZero() bool {
	return r.Title == "" && r.Detail == ""
}

var failureTitles = map[client.Op]string{
	client.OpProbe:        "Could not connect to the server",
	client.OpEcho:         "Failed to send the message",
	client.OpSimpleString: "Failed to fetch the simple string",
	client.OpCount:        "Failed to fetch the counter",
	client.OpServerStatus: "Failed to fetch the server status",
}

// Describe turns an outcome into a Report. Failure details carry the
// classification-specific message.
func Describe(o client.Outcome) Report {
	if !o.OK() {
		if o.Err.Message == MsgNotConnected {
			return Report{Title: "Error", Detail: "Not connected: test the connection to the server first"}
		}
		title, ok := failureTitles[o.Op]
		if !ok {
			title = "Error"
		}
		return Report{Title: title, Detail: o.Err.Message}
	}

	switch p := o.Payload.(type) {
	case client.Text:
		if o.Op == client.OpProbe {
			return Report{
				OK:     true,
				Title:  "Server is reachable!",
				Detail: fmt.Sprintf("Response: %s\nAddress: %s", p.Body, o.Endpoint.BaseURL()),
			}
		}
		return Report{
			OK:     true,
			Title:  "Simple response received!",
			Detail: "Response: " + p.Body,
		}
	case client.EchoReply:
		return Report{
			OK:    true,
			Title: "Message sent!",
			Detail: fmt.Sprintf("Time: %s\nCount: %d\nStatus: %s",
				p.Timestamp, p.ClickCount, p.Status),
		}
	case client.Counter:
		return Report{
			OK:     true,
			Title:  "Counter received!",
			Detail: fmt.Sprintf("Current value: %d", p.Count),
		}
	case client.ServerStatus:
		lines := []string{
			"Status: " + p.Status,
			"Server time: " + p.ServerTime,
			fmt.Sprintf("Total requests: %d", p.TotalRequests),
			"Version: " + p.Version,
		}
		if p.Message != "" {
			lines = append(lines, p.Message)
		}
		if p.Process != nil {
			lines = append(lines, fmt.Sprintf("Process: pid %d, %.1f MiB RSS, %.1f%% CPU, up %ds",
				p.Process.PID, float64(p.Process.RSSBytes)/(1<<20), p.Process.CPUPercent, p.Process.UptimeSeconds))
		}
		return Report{OK: true, Title: "Server status received!", Detail: strings.Join(lines, "\n")}
	}
	return Report{OK: true, Title: "Request succeeded"}
}
