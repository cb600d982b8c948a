// Package explorer talks to the gauge explorer's WebSocket control channel.
// Every request opens its own connection, sends one JSON frame and waits
// for one reply.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/1broseidon/devdash-mcp/internal/config"
	"github.com/1broseidon/devdash-mcp/internal/fault"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Conn is the part of a WebSocket connection the client uses.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens a connection to url.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials with gorilla/websocket.
type WebSocketDialer struct {
	Dialer *websocket.Dialer
}

func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Client sends requests to the explorer.
type Client struct {
	url         string
	timeout     time.Duration
	dialer      Dialer
	processName string
	processes   ProcessFinder
	logger      *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithProcessFinder replaces the process table scan used by Status.
func WithProcessFinder(f ProcessFinder) Option {
	return func(c *Client) { c.processes = f }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the explorer described by cfg.
func New(cfg config.ExplorerConfig, opts ...Option) *Client {
	c := &Client{
		url:         cfg.URL(),
		timeout:     cfg.Timeout(),
		dialer:      WebSocketDialer{},
		processName: cfg.ProcessName,
		processes:   ScanProcesses,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the explorer endpoint.
func (c *Client) URL() string { return c.url }

// Send issues {"action": action, ...fields} and returns the decoded reply
// verbatim. The explorer answers with an object, but any JSON value is
// accepted.
func (c *Client) Send(ctx context.Context, action string, fields map[string]any) (any, error) {
	return c.send(ctx, c.timeout, action, fields)
}

func (c *Client) send(ctx context.Context, timeout time.Duration, action string, fields map[string]any) (any, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	frame := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		frame[k] = v
	}
	frame["action"] = action
	payload, err := json.Marshal(frame)
	if err != nil {
		return nil, fault.Wrap(fault.InvalidInput, err, "failed to encode request")
	}

	start := time.Now()
	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		return nil, c.classify(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return nil, c.classify(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, c.classify(err)
	}

	var reply any
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fault.Wrap(fault.ProtocolError, err, fmt.Sprintf("explorer reply is not valid JSON: %.200s", data))
	}

	c.logger.Debug("explorer round trip",
		zap.String("action", action),
		zap.Duration("elapsed", time.Since(start)))
	return reply, nil
}

// classify maps a transport error onto a fault kind.
func (c *Client) classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fault.Wrap(fault.PeerUnreachable, err,
			fmt.Sprintf("cannot connect to gauge explorer at %s; is qml-gauges-explorer running?", c.url))
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fault.Wrap(fault.Timeout, err, fmt.Sprintf("timeout talking to explorer at %s", c.url))
	default:
		return fault.Wrap(fault.ProtocolError, err, fmt.Sprintf("explorer request to %s failed", c.url))
	}
}

// GetState returns the current page, its properties and their values.
func (c *Client) GetState(ctx context.Context) (any, error) {
	return c.Send(ctx, "getState", nil)
}

// Navigate switches the explorer to page. Pages outside the allow-list are
// rejected without contacting the explorer.
func (c *Client) Navigate(ctx context.Context, page string) (any, error) {
	if err := ValidatePage(page); err != nil {
		return nil, err
	}
	return c.Send(ctx, "navigate", map[string]any{"page": page})
}

// GetProperty reads one property of the current component.
func (c *Client) GetProperty(ctx context.Context, name string) (any, error) {
	return c.Send(ctx, "getProperty", map[string]any{"name": name})
}

// SetProperty writes one property of the current component. value is
// forwarded as-is.
func (c *Client) SetProperty(ctx context.Context, name string, value any) (any, error) {
	return c.Send(ctx, "setProperty", map[string]any{"name": name, "value": value})
}

// ListProperties returns the property documentation for the current page.
func (c *Client) ListProperties(ctx context.Context) (any, error) {
	return c.Send(ctx, "listProperties", nil)
}
