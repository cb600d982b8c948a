package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Directory source names.
const (
	SourceWmctrl   = "wmctrl"
	SourceXwininfo = "xwininfo"
	SourceEWMH     = "ewmh"
)

// Capture strategy names.
const (
	StrategyImport = "import"
	StrategyScrot  = "scrot"
	StrategyX11    = "x11"
)

// Transformer names.
const (
	TransformerImageMagick = "imagemagick"
	TransformerBuiltin     = "builtin"
)

// ExplorerConfig points at the gauge explorer's WebSocket control channel.
type ExplorerConfig struct {
	Host           string  `yaml:"host,omitempty"`
	Port           int     `yaml:"port,omitempty"`
	TimeoutSeconds float64 `yaml:"timeout_seconds,omitempty"`
	// ProcessName is matched against process command lines for status checks.
	ProcessName string `yaml:"process_name,omitempty"`
}

// URL returns the explorer's WebSocket URL.
func (e ExplorerConfig) URL() string {
	return "ws://" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Timeout returns the per-request timeout.
func (e ExplorerConfig) Timeout() time.Duration {
	return secondsToDuration(e.TimeoutSeconds)
}

// DevToolsConfig points at the dashboard's DevTools HTTP API.
type DevToolsConfig struct {
	Host           string  `yaml:"host,omitempty"`
	Port           int     `yaml:"port,omitempty"`
	TimeoutSeconds float64 `yaml:"timeout_seconds,omitempty"`
}

// BaseURL returns the DevTools API base URL without a trailing slash.
func (d DevToolsConfig) BaseURL() string {
	return "http://" + net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Timeout returns the per-request timeout.
func (d DevToolsConfig) Timeout() time.Duration {
	return secondsToDuration(d.TimeoutSeconds)
}

// WindowsConfig controls window discovery.
type WindowsConfig struct {
	// Sources are tried in order until one succeeds.
	Sources []string `yaml:"sources,omitempty"`
	// Keywords filter screenshot_list_windows and not-found hints.
	Keywords []string `yaml:"keywords,omitempty"`
	// MinFallbackSize drops xwininfo windows whose width or height is not
	// larger than this.
	MinFallbackSize int `yaml:"min_fallback_size,omitempty"`
}

// CaptureConfig controls the screenshot pipeline.
type CaptureConfig struct {
	Strategies            []string `yaml:"strategies,omitempty"`
	Transformer           string   `yaml:"transformer,omitempty"`
	ConvertCommand        string   `yaml:"convert_command,omitempty"`
	CommandTimeoutSeconds float64  `yaml:"command_timeout_seconds,omitempty"`
	// TempDir holds scrot output while it is read back (default: $XDG_RUNTIME_DIR/devdash-mcp/captures).
	TempDir string `yaml:"temp_dir,omitempty"`
}

// CommandTimeout returns the deadline for a single external command.
func (c CaptureConfig) CommandTimeout() time.Duration {
	return secondsToDuration(c.CommandTimeoutSeconds)
}

// ActionLogConfig configures the tool-call action log.
type ActionLogConfig struct {
	// Enabled turns the action log on/off
	Enabled bool `yaml:"enabled,omitempty"`
	// File is the log file path (default: ~/.local/share/devdash-mcp/actions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

// LoggingConfig configures diagnostics on stderr and the action log.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// Format is json or console; empty picks console on a terminal.
	Format    string          `yaml:"format,omitempty"`
	ActionLog ActionLogConfig `yaml:"action_log,omitempty"`
}

// Config is the effective server configuration. It is built once at startup
// and handed to every component constructor.
type Config struct {
	Explorer ExplorerConfig `yaml:"explorer,omitempty"`
	DevTools DevToolsConfig `yaml:"devtools,omitempty"`
	Windows  WindowsConfig  `yaml:"windows,omitempty"`
	Capture  CaptureConfig  `yaml:"capture,omitempty"`
	// Display and XAuthority are injected into external commands when the
	// server itself runs without an X session environment.
	Display    string        `yaml:"display,omitempty"`
	XAuthority string        `yaml:"xauthority,omitempty"`
	Logging    LoggingConfig `yaml:"logging,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Explorer: ExplorerConfig{
			Host:           "localhost",
			Port:           9876,
			TimeoutSeconds: 5,
			ProcessName:    "qml-gauges-explorer",
		},
		DevTools: DevToolsConfig{
			Host:           "127.0.0.1",
			Port:           18080,
			TimeoutSeconds: 5,
		},
		Windows: WindowsConfig{
			Sources:         []string{SourceWmctrl, SourceXwininfo},
			Keywords:        []string{"gauge", "explorer", "devdash", "qml", "cluster", "headunit"},
			MinFallbackSize: 100,
		},
		Capture: CaptureConfig{
			Strategies:            []string{StrategyImport, StrategyScrot},
			Transformer:           TransformerImageMagick,
			ConvertCommand:        "convert",
			CommandTimeoutSeconds: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetActionLogConfig returns the action log configuration with defaults applied.
func (c *Config) GetActionLogConfig() ActionLogConfig {
	if c == nil {
		return ActionLogConfig{}
	}
	cfg := c.Logging.ActionLog
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home == "" {
			home = "."
		}
		cfg.File = filepath.Join(home, ".local/share/devdash-mcp/actions.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	return cfg
}

// ValidationError reports an invalid setting at a YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Explorer.Host) == "" {
		return &ValidationError{Path: "explorer.host", Err: fmt.Errorf("host is required")}
	}
	if err := validatePort(c.Explorer.Port); err != nil {
		return &ValidationError{Path: "explorer.port", Err: err}
	}
	if c.Explorer.TimeoutSeconds <= 0 {
		return &ValidationError{Path: "explorer.timeout_seconds", Err: fmt.Errorf("timeout_seconds must be > 0")}
	}
	if strings.TrimSpace(c.DevTools.Host) == "" {
		return &ValidationError{Path: "devtools.host", Err: fmt.Errorf("host is required")}
	}
	if err := validatePort(c.DevTools.Port); err != nil {
		return &ValidationError{Path: "devtools.port", Err: err}
	}
	if c.DevTools.TimeoutSeconds <= 0 {
		return &ValidationError{Path: "devtools.timeout_seconds", Err: fmt.Errorf("timeout_seconds must be > 0")}
	}

	if len(c.Windows.Sources) == 0 {
		return &ValidationError{Path: "windows.sources", Err: fmt.Errorf("sources must not be empty")}
	}
	for i, name := range c.Windows.Sources {
		switch name {
		case SourceWmctrl, SourceXwininfo, SourceEWMH:
		default:
			return &ValidationError{
				Path: fmt.Sprintf("windows.sources[%d]", i),
				Err:  fmt.Errorf("unknown source %q (want one of: %s, %s, %s)", name, SourceWmctrl, SourceXwininfo, SourceEWMH),
			}
		}
	}
	if c.Windows.MinFallbackSize < 0 {
		return &ValidationError{Path: "windows.min_fallback_size", Err: fmt.Errorf("min_fallback_size must be >= 0")}
	}

	if len(c.Capture.Strategies) == 0 {
		return &ValidationError{Path: "capture.strategies", Err: fmt.Errorf("strategies must not be empty")}
	}
	for i, name := range c.Capture.Strategies {
		switch name {
		case StrategyImport, StrategyScrot, StrategyX11:
		default:
			return &ValidationError{
				Path: fmt.Sprintf("capture.strategies[%d]", i),
				Err:  fmt.Errorf("unknown strategy %q (want one of: %s, %s, %s)", name, StrategyImport, StrategyScrot, StrategyX11),
			}
		}
	}
	switch c.Capture.Transformer {
	case TransformerImageMagick, TransformerBuiltin:
	default:
		return &ValidationError{Path: "capture.transformer", Err: fmt.Errorf("transformer must be one of: %s, %s", TransformerImageMagick, TransformerBuiltin)}
	}
	if c.Capture.Transformer == TransformerImageMagick && strings.TrimSpace(c.Capture.ConvertCommand) == "" {
		return &ValidationError{Path: "capture.convert_command", Err: fmt.Errorf("convert_command is required for the imagemagick transformer")}
	}
	if c.Capture.CommandTimeoutSeconds <= 0 {
		return &ValidationError{Path: "capture.command_timeout_seconds", Err: fmt.Errorf("command_timeout_seconds must be > 0")}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return &ValidationError{Path: "logging.format", Err: fmt.Errorf("format must be json or console")}
	}
	if c.Logging.ActionLog.MaxSizeMB < 0 || c.Logging.ActionLog.MaxFiles < 0 {
		return &ValidationError{Path: "logging.action_log", Err: fmt.Errorf("max_size_mb and max_files must be >= 0")}
	}
	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", port)
	}
	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
