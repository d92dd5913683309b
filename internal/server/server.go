// Package server implements the HTTP API the client talks to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/seabattle/servercheck/internal/client"
	"github.com/seabattle/servercheck/internal/config"
	"go.uber.org/zap"
)

const (
	clockLayout     = "15:04:05"
	maxMessageBytes = 64 << 10
	shutdownTimeout = 5 * time.Second
	statusMessage   = "Sea battle server is running correctly"
)

type Server struct {
	version        string
	allowedOrigins map[string]bool
	logger         *zap.Logger
	now            func() time.Time
	process        func() (*client.ProcessStats, error)

	clicks   atomic.Int64
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

type Option func(*Server)

// WithClock replaces time.Now for the timestamps in responses.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithProcessStats replaces the gopsutil-backed process sampler.
func WithProcessStats(fn func() (*client.ProcessStats, error)) Option {
	return func(s *Server) { s.process = fn }
}

func New(cfg config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		version:        cfg.Version,
		allowedOrigins: make(map[string]bool),
		logger:         logger.Named("server"),
		now:            time.Now,
		process:        newProcessSampler(time.Now()).sample,
		registry:       prometheus.NewRegistry(),
	}
	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerMetrics()
	return s
}

func (s *Server) registerMetrics() {
	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servercheck",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests handled, by path, method and status code",
	}, []string{"path", "method", "code"})

	clicks := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "servercheck",
		Name:      "click_count",
		Help:      "Messages received on /get-string since start",
	}, func() float64 { return float64(s.clicks.Load()) })

	s.registry.MustRegister(s.requests, clicks)
}

// Clicks returns how many messages have been posted to /get-string.
func (s *Server) Clicks() int64 {
	return s.clicks.Load()
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	s.handle(mux, client.PathTest, http.MethodGet, s.handleTest)
	s.handle(mux, client.PathSimpleString, http.MethodGet, s.handleSimpleString)
	s.handle(mux, client.PathEcho, http.MethodPost, s.handleEcho)
	s.handle(mux, client.PathCount, http.MethodGet, s.handleCount)
	s.handle(mux, client.PathServerStatus, http.MethodGet, s.handleServerStatus)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// Handler returns the full middleware-wrapped API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return securityHeaders(s.cors(s.logRequests(mux)))
}

func (s *Server) handle(mux *http.ServeMux, path, method string, h http.HandlerFunc) {
	counter := s.requests.MustCurryWith(prometheus.Labels{"path": path})
	mux.Handle(path, promhttp.InstrumentHandlerCounter(counter, allowMethod(method, h)))
}

func allowMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (s *Server) clock() string {
	return s.now().Format(clockLayout)
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeText(w, "Server is running! Time: "+s.clock())
}

func (s *Server) handleSimpleString(w http.ResponseWriter, _ *http.Request) {
	writeText(w, "Simple string from the server! Time: "+s.clock())
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "could not read message", http.StatusBadRequest)
		return
	}
	userMessage := string(body)
	count := s.clicks.Add(1)
	now := s.clock()

	message := fmt.Sprintf("Server is responding! Current time: %s. The button has been pressed %d time(s).", now, count)
	if strings.TrimSpace(userMessage) != "" {
		message += fmt.Sprintf(" Your message: '%s'", userMessage)
	}

	s.logger.Info("message received",
		zap.Int64("click_count", count),
		zap.String("message", userMessage),
		zap.String("request_id", r.Header.Get("X-Request-ID")),
	)

	writeJSON(w, client.EchoReply{
		Message:    message,
		ClickCount: int(count),
		Timestamp:  now,
		Status:     "success",
	})
}

func (s *Server) handleCount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, client.Counter{Count: int(s.clicks.Load())})
}

func (s *Server) handleServerStatus(w http.ResponseWriter, _ *http.Request) {
	status := client.ServerStatus{
		Status:        "online",
		ServerTime:    s.clock(),
		TotalRequests: int(s.clicks.Load()),
		Version:       s.version,
		Message:       statusMessage,
	}
	if stats, err := s.process(); err != nil {
		s.logger.Warn("process stats unavailable", zap.Error(err))
	} else {
		status.Process = stats
	}
	writeJSON(w, status)
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// cors answers preflight requests and marks responses for allowed origins.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowedOrigins[origin] {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			w.Header().Set("X-Request-ID", id)
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Serve runs the API on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	s.logger.Info("server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
