package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func endpointFor(t *testing.T, srv *httptest.Server) Endpoint {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	return Endpoint{Host: host, Port: port}
}

func TestEndpointBaseURL(t *testing.T) {
	tests := []struct {
		name string
		ep   Endpoint
		want string
	}{
		{"hostname", Endpoint{Host: "localhost", Port: "8080"}, "http://localhost:8080"},
		{"ipv4", Endpoint{Host: "127.0.0.1", Port: "9000"}, "http://127.0.0.1:9000"},
		{"ipv6", Endpoint{Host: "::1", Port: "8080"}, "http://[::1]:8080"},
		{"empty host", Endpoint{Host: "", Port: "8080"}, "http://:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ep.BaseURL(); got != tt.want {
				t.Errorf("BaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEndpointBaseURLFollowsMutation(t *testing.T) {
	ep := Endpoint{Host: "a", Port: "1"}
	_ = ep.BaseURL()
	ep.Host = "b"
	ep.Port = "2"
	if got := ep.BaseURL(); got != "http://b:2" {
		t.Errorf("BaseURL() after edit = %q, want http://b:2", got)
	}
}

func TestNewEndpointTrims(t *testing.T) {
	ep := NewEndpoint("  example.com ", " 80\n")
	if ep.Host != "example.com" || ep.Port != "80" {
		t.Errorf("NewEndpoint = %+v", ep)
	}
}

func TestEndpointValidate(t *testing.T) {
	tests := []struct {
		name    string
		ep      Endpoint
		wantErr bool
	}{
		{"valid", Endpoint{Host: "localhost", Port: "8080"}, false},
		{"empty host", Endpoint{Host: "", Port: "8080"}, true},
		{"host with path", Endpoint{Host: "localhost/x", Port: "8080"}, true},
		{"empty port", Endpoint{Host: "localhost", Port: ""}, true},
		{"port zero", Endpoint{Host: "localhost", Port: "0"}, true},
		{"port too large", Endpoint{Host: "localhost", Port: "70000"}, true},
		{"port not numeric", Endpoint{Host: "localhost", Port: "http"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ep.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPClientPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		if r.URL.Path != PathTest {
			t.Errorf("path = %q, want %q", r.URL.Path, PathTest)
		}
		if r.Header.Get("Accept") != "text/plain, */*" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("X-Request-ID should be set")
		}
		if r.Header.Get("User-Agent") != "servercheck/test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("pong"))
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, "test", nil)
	got, err := c.Ping(context.Background(), endpointFor(t, srv))
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if got.Body != "pong" {
		t.Errorf("Body = %q, want pong", got.Body)
	}
}

func TestHTTPClientEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "text/plain" {
			t.Errorf("Content-Type = %q, want text/plain", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "hi" {
			t.Errorf("body = %q, want hi", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"timestamp":"T","clickCount":3,"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, "test", nil)
	got, err := c.Echo(context.Background(), endpointFor(t, srv), "hi")
	if err != nil {
		t.Fatalf("Echo failed: %v", err)
	}
	if got.Timestamp != "T" || got.ClickCount != 3 || got.Status != "ok" {
		t.Errorf("Echo = %+v", got)
	}
}

func TestHTTPClientEchoEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) != 0 {
			t.Errorf("body = %q, want empty", body)
		}
		w.Write([]byte(`{"timestamp":"T","clickCount":1,"status":"success"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, "test", nil)
	if _, err := c.Echo(context.Background(), endpointFor(t, srv), ""); err != nil {
		t.Fatalf("Echo failed: %v", err)
	}
}

func TestHTTPClientCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathCount {
			t.Errorf("path = %q, want %q", r.URL.Path, PathCount)
		}
		w.Write([]byte(`{"count":42}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, "test", nil)
	got, err := c.Count(context.Background(), endpointFor(t, srv))
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if got.Count != 42 {
		t.Errorf("Count = %d, want 42", got.Count)
	}
}

func TestHTTPClientServerStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"online","serverTime":"12:00:00","totalRequests":7,"version":"1.0.0","message":"ok","process":{"pid":12,"rssBytes":1024}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, "test", nil)
	got, err := c.ServerStatus(context.Background(), endpointFor(t, srv))
	if err != nil {
		t.Fatalf("ServerStatus failed: %v", err)
	}
	if got.Status != "online" || got.TotalRequests != 7 {
		t.Errorf("ServerStatus = %+v", got)
	}
	if got.Process == nil || got.Process.PID != 12 || got.Process.RSSBytes != 1024 {
		t.Errorf("Process = %+v", got.Process)
	}
}

func TestHTTPClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, "test", nil)
	_, err := c.SimpleString(context.Background(), endpointFor(t, srv))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", statusErr.StatusCode)
	}
	if statusErr.Body != "down for maintenance" {
		t.Errorf("Body = %q", statusErr.Body)
	}
}

func TestHTTPClientDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, "test", nil)
	_, err := c.Count(context.Background(), endpointFor(t, srv))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if got := Classify(err, endpointFor(t, srv), time.Second); got.Kind != KindUnknown {
		t.Errorf("Kind = %v, want unknown", got.Kind)
	}
}
