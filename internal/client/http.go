package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// HTTPClient makes REST calls to the game server. It holds no endpoint: every
// call takes the current Endpoint so the base URL is never stale.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewHTTPClient creates a client. timeout bounds every request as a backstop;
// callers pass tighter deadlines through the context.
func NewHTTPClient(timeout time.Duration, version string, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: "servercheck/" + version,
		logger:    logger.Named("http"),
	}
}

// Ping fetches /test.
func (c *HTTPClient) Ping(ctx context.Context, ep Endpoint) (Text, error) {
	body, err := c.getText(ctx, ep, PathTest)
	if err != nil {
		return Text{}, err
	}
	return Text{Body: body}, nil
}

// Echo sends message as a raw text body to POST /get-string.
func (c *HTTPClient) Echo(ctx context.Context, ep Endpoint, message string) (EchoReply, error) {
	var out EchoReply
	resp, err := c.do(ctx, ep, http.MethodPost, PathEcho, strings.NewReader(message), "application/json")
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s response: %w", PathEcho, err)
	}
	return out, nil
}

// SimpleString fetches /get-simple-string.
func (c *HTTPClient) SimpleString(ctx context.Context, ep Endpoint) (Text, error) {
	body, err := c.getText(ctx, ep, PathSimpleString)
	if err != nil {
		return Text{}, err
	}
	return Text{Body: body}, nil
}

// Count fetches /get-count.
func (c *HTTPClient) Count(ctx context.Context, ep Endpoint) (Counter, error) {
	var out Counter
	if err := c.getJSON(ctx, ep, PathCount, &out); err != nil {
		return out, err
	}
	return out, nil
}

// ServerStatus fetches /server-status.
func (c *HTTPClient) ServerStatus(ctx context.Context, ep Endpoint) (ServerStatus, error) {
	var out ServerStatus
	if err := c.getJSON(ctx, ep, PathServerStatus, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *HTTPClient) getText(ctx context.Context, ep Endpoint, path string) (string, error) {
	resp, err := c.do(ctx, ep, http.MethodGet, path, nil, "text/plain, */*")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", path, err)
	}
	return string(data), nil
}

func (c *HTTPClient) getJSON(ctx context.Context, ep Endpoint, path string, out interface{}) error {
	resp, err := c.do(ctx, ep, http.MethodGet, path, nil, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// do issues the request and turns non-2xx answers into *StatusError. On
// success the caller owns resp.Body.
func (c *HTTPClient) do(ctx context.Context, ep Endpoint, method, path string, body io.Reader, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, ep.BaseURL()+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := ulid.Make().String()
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "text/plain")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("url", req.URL.String()),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("response",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return resp, nil
}
