// Package telemetry reads DevDash's DevTools HTTP API.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/1broseidon/devdash-mcp/internal/config"
	"github.com/1broseidon/devdash-mcp/internal/fault"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBody caps a response read into memory; screenshots are the largest.
const maxBody = 64 << 20

// Client issues single GET requests with a fixed timeout and no retries.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the DevTools API described by cfg.
func New(cfg config.DevToolsConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL(),
		timeout: cfg.Timeout(),
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:             nil,
				DisableKeepAlives: true,
			},
		},
		logger: logger,
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// GetBytes fetches path and returns the raw body of a 2xx response.
func (c *Client) GetBytes(ctx context.Context, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var connected atomic.Bool
	trace := &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) { connected.Store(true) },
	}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, target, nil)
	if err != nil {
		return nil, fault.Wrap(fault.InvalidInput, err, "failed to build request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(err, target, connected.Load())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, c.classify(err, target, true)
	}
	c.logger.Debug("devtools request",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fault.New(fault.ProtocolError, "HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// GetJSON fetches path and decodes the body. The result may be any JSON
// value.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values) (any, error) {
	body, err := c.GetBytes(ctx, path, query)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fault.Wrap(fault.ProtocolError, err, fmt.Sprintf("invalid JSON from %s", path))
	}
	return v, nil
}

// classify maps a transport error onto a fault kind. Anything that failed
// before a connection was established means DevDash is not reachable.
func (c *Client) classify(err error, target string, connected bool) error {
	var netErr net.Error
	switch {
	case !connected:
		return fault.Wrap(fault.PeerUnreachable, err,
			fmt.Sprintf("cannot connect to DevDash at %s; is it running with DevTools enabled?", c.baseURL))
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fault.Wrap(fault.Timeout, err, fmt.Sprintf("timeout waiting for %s", target))
	default:
		return fault.Wrap(fault.ProtocolError, err, fmt.Sprintf("request to %s failed", target))
	}
}

// State returns current telemetry values.
func (c *Client) State(ctx context.Context) (any, error) {
	return c.GetJSON(ctx, "/api/state", nil)
}

// Warnings returns active warnings and critical alerts.
func (c *Client) Warnings(ctx context.Context) (any, error) {
	return c.GetJSON(ctx, "/api/warnings", nil)
}

// Windows returns DevDash's own view of its windows.
func (c *Client) Windows(ctx context.Context) (any, error) {
	return c.GetJSON(ctx, "/api/windows", nil)
}

// Screenshot returns PNG bytes rendered by DevDash for window.
func (c *Client) Screenshot(ctx context.Context, window string) ([]byte, error) {
	return c.GetBytes(ctx, "/api/screenshot", url.Values{"window": {window}})
}
