package telemetry

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/1broseidon/devdash-mcp/internal/fault"
)

// Log query bounds.
const (
	DefaultLogCount = 100
	MaxLogCount     = 1000
	DefaultLogLevel = "info"
)

// LogLevels are the minimum levels the DevTools log buffer accepts.
var LogLevels = []string{"debug", "info", "warning", "critical"}

// LogQuery selects entries from DevDash's log buffer.
type LogQuery struct {
	Count    int
	Level    string
	Category string
}

// Normalize applies defaults and bounds: Count 0 becomes 100 and is then
// clamped to 1..1000, an empty Level becomes info. An unknown level is an
// InvalidInput error.
func (q LogQuery) Normalize() (LogQuery, error) {
	if q.Count == 0 {
		q.Count = DefaultLogCount
	}
	if q.Count < 1 {
		q.Count = 1
	}
	if q.Count > MaxLogCount {
		q.Count = MaxLogCount
	}
	q.Level = strings.ToLower(strings.TrimSpace(q.Level))
	if q.Level == "" {
		q.Level = DefaultLogLevel
	}
	known := false
	for _, l := range LogLevels {
		if l == q.Level {
			known = true
			break
		}
	}
	if !known {
		return q, fault.New(fault.InvalidInput, "invalid level %q; want one of: %s", q.Level, strings.Join(LogLevels, ", "))
	}
	q.Category = strings.TrimSpace(q.Category)
	return q, nil
}

func (q LogQuery) values() url.Values {
	v := url.Values{
		"count": {strconv.Itoa(q.Count)},
		"level": {q.Level},
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	return v
}

// Logs fetches recent log entries matching q.
func (c *Client) Logs(ctx context.Context, q LogQuery) (any, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	return c.GetJSON(ctx, "/api/logs", q.values())
}
