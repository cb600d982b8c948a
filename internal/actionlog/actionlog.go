// Package actionlog keeps a rotating plain-text record of tool calls.
package actionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/devdash-mcp/internal/config"
)

// Level is the minimum severity written to the file.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Action names the kind of tool call recorded.
type Action string

const (
	ActionListWindows Action = "LIST-WINDOWS"
	ActionCapture     Action = "CAPTURE"
	ActionExplorer    Action = "EXPLORER"
	ActionNavigate    Action = "NAVIGATE"
	ActionSetProperty Action = "SET-PROPERTY"
	ActionTelemetry   Action = "TELEMETRY"
	ActionLogs        Action = "LOGS"
	ActionFailure     Action = "FAILURE"
)

func (a Action) level() Level {
	switch a {
	case ActionListWindows, ActionExplorer, ActionTelemetry, ActionLogs:
		return LevelDebug
	case ActionFailure:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// Options configures a Logger.
type Options struct {
	Enabled   bool
	Level     Level
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

// OptionsFromConfig derives logger options from the effective config.
func OptionsFromConfig(cfg *config.Config) Options {
	al := cfg.GetActionLogConfig()
	return Options{
		Enabled:   al.Enabled,
		Level:     ParseLevel(cfg.Logging.Level),
		FilePath:  al.File,
		MaxSizeMB: al.MaxSizeMB,
		MaxFiles:  al.MaxFiles,
	}
}

// Logger appends one line per action and rotates by size. A nil or
// disabled Logger discards everything.
type Logger struct {
	mu   sync.Mutex
	opts Options
	file *os.File
	size int64
	now  func() time.Time
}

// New opens (or creates) the log file when opts.Enabled is set.
func New(opts Options) (*Logger, error) {
	l := &Logger{opts: opts, now: time.Now}
	if !opts.Enabled {
		return l, nil
	}

	dir := filepath.Dir(opts.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", opts.FilePath, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}
	l.file = f
	l.size = stat.Size()
	return l, nil
}

// Record writes "<time> [ACTION] tool=<tool> k=v ..." with details sorted by
// key.
func (l *Logger) Record(action Action, tool string, details map[string]any) {
	if l == nil || !l.opts.Enabled || action.level() < l.opts.Level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}

	if limit := int64(l.opts.MaxSizeMB) * 1024 * 1024; limit > 0 && l.size >= limit {
		if err := l.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "action log rotation failed: %v\n", err)
		}
		if l.file == nil {
			return
		}
	}

	n, err := l.file.WriteString(l.format(action, tool, details))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write action log entry: %v\n", err)
		return
	}
	l.size += int64(n)
}

func (l *Logger) format(action Action, tool string, details map[string]any) string {
	var sb strings.Builder
	sb.WriteString(l.now().Format("2006-01-02 15:04:05"))
	sb.WriteString(" [")
	sb.WriteString(string(action))
	sb.WriteString("]")
	if tool != "" {
		sb.WriteString(" tool=")
		sb.WriteString(tool)
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := details[k].(type) {
		case string:
			fmt.Fprintf(&sb, " %s=%q", k, Truncate(v, 200))
		case nil:
			fmt.Fprintf(&sb, " %s=null", k)
		default:
			fmt.Fprintf(&sb, " %s=%v", k, v)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// Close releases the file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// rotate shifts actions.log -> .1 -> .2 ... keeping MaxFiles rotated files.
func (l *Logger) rotate() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	base := l.opts.FilePath
	for i := l.opts.MaxFiles; i >= 1; i-- {
		older := fmt.Sprintf("%s.%d", base, i)
		if i == l.opts.MaxFiles {
			os.Remove(older)
			continue
		}
		os.Rename(older, fmt.Sprintf("%s.%d", base, i+1))
	}
	if l.opts.MaxFiles > 0 {
		if err := os.Rename(base, base+".1"); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	} else if err := os.Remove(base); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}

	f, err := os.OpenFile(base, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}
	l.file = f
	l.size = 0
	return nil
}

// ParseLevel converts a config level name. Unknown names mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Truncate shortens s to maxLen bytes plus an ellipsis.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
