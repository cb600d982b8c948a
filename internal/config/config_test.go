package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearDevDashEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvExplorerHost, EnvExplorerPort, EnvDevToolsHost, EnvDevToolsPort, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if got, want := cfg.Explorer.URL(), "ws://localhost:9876"; got != want {
		t.Errorf("Explorer.URL() = %q, want %q", got, want)
	}
	if got, want := cfg.DevTools.BaseURL(), "http://127.0.0.1:18080"; got != want {
		t.Errorf("DevTools.BaseURL() = %q, want %q", got, want)
	}
	if got := cfg.Explorer.Timeout(); got != 5*time.Second {
		t.Errorf("Explorer.Timeout() = %v, want 5s", got)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	clearDevDashEnv(t)
	dir := t.TempDir()

	res, err := LoadFromPath(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Explorer.Port != 9876 {
		t.Fatalf("expected default explorer port, got %d", res.Config.Explorer.Port)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_FileOverridesDefaults(t *testing.T) {
	clearDevDashEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"explorer:",
		"  port: 9999",
		"windows:",
		"  sources: [ewmh, wmctrl]",
		"capture:",
		"  transformer: builtin",
		"display: \":1\"",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Explorer.Port != 9999 {
		t.Errorf("explorer.port = %d, want 9999", cfg.Explorer.Port)
	}
	if cfg.Explorer.Host != "localhost" {
		t.Errorf("explorer.host = %q, want default localhost", cfg.Explorer.Host)
	}
	if strings.Join(cfg.Windows.Sources, ",") != "ewmh,wmctrl" {
		t.Errorf("windows.sources = %v", cfg.Windows.Sources)
	}
	if cfg.Capture.Transformer != TransformerBuiltin {
		t.Errorf("capture.transformer = %q", cfg.Capture.Transformer)
	}
	if cfg.Display != ":1" {
		t.Errorf("display = %q", cfg.Display)
	}
	if len(res.Files) != 1 || res.Files[0] != path {
		t.Errorf("files = %v, want [%s]", res.Files, path)
	}
}

func TestLoadFromPath_UnknownFieldRejected(t *testing.T) {
	clearDevDashEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("explorer:\n  prot: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestLoadFromPath_EnvOverridesFile(t *testing.T) {
	clearDevDashEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("devtools:\n  port: 1000\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvDevToolsPort, "2000")
	t.Setenv(EnvExplorerHost, "gauges.local")

	cfg := mustLoad(t, path)
	if cfg.DevTools.Port != 2000 {
		t.Errorf("devtools.port = %d, want 2000", cfg.DevTools.Port)
	}
	if cfg.Explorer.Host != "gauges.local" {
		t.Errorf("explorer.host = %q, want gauges.local", cfg.Explorer.Host)
	}
}

func TestLoadFromPath_DotEnvNextToConfig(t *testing.T) {
	clearDevDashEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DEVDASH_EXPLORER_WS_PORT=7777\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// godotenv does not override variables that are already set, and
	// clearDevDashEnv set them to "". Unset the one under test.
	os.Unsetenv(EnvExplorerPort)
	t.Cleanup(func() { os.Unsetenv(EnvExplorerPort) })

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Explorer.Port != 7777 {
		t.Errorf("explorer.port = %d, want 7777 from .env", res.Config.Explorer.Port)
	}
	if len(res.Files) != 1 || filepath.Base(res.Files[0]) != ".env" {
		t.Errorf("files = %v, want the .env file", res.Files)
	}
}

func TestLoadWithSources_DotEnvSetsConfigPath(t *testing.T) {
	clearDevDashEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "alt.yaml")
	if err := os.WriteFile(cfgPath, []byte("devtools:\n  port: 19090\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvConfigPath+"="+cfgPath+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvConfigPath, "")
	os.Unsetenv(EnvConfigPath)
	t.Chdir(dir)

	res, err := LoadWithSources()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.DevTools.Port != 19090 {
		t.Errorf("devtools.port = %d, want 19090 from %s", res.Config.DevTools.Port, cfgPath)
	}
	want := []string{filepath.Join(dir, ".env"), cfgPath}
	if strings.Join(res.Files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", res.Files, want)
	}
}

func TestLoadFromPath_BadEnvPort(t *testing.T) {
	clearDevDashEnv(t)
	t.Setenv(EnvExplorerPort, "ninety")
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "config.yaml"))
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Path != EnvExplorerPort {
		t.Fatalf("expected ValidationError for %s, got %v", EnvExplorerPort, err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad explorer port", func(c *Config) { c.Explorer.Port = 0 }, "explorer.port"},
		{"zero devtools timeout", func(c *Config) { c.DevTools.TimeoutSeconds = 0 }, "devtools.timeout_seconds"},
		{"empty sources", func(c *Config) { c.Windows.Sources = nil }, "windows.sources"},
		{"unknown source", func(c *Config) { c.Windows.Sources = []string{"xdotool"} }, "windows.sources[0]"},
		{"unknown strategy", func(c *Config) { c.Capture.Strategies = []string{"import", "gnome"} }, "capture.strategies[1]"},
		{"unknown transformer", func(c *Config) { c.Capture.Transformer = "vips" }, "capture.transformer"},
		{"missing convert", func(c *Config) { c.Capture.ConvertCommand = " " }, "capture.convert_command"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Path != tt.path {
				t.Errorf("path = %q, want %q", vErr.Path, tt.path)
			}
		})
	}
}

func TestGetActionLogConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := DefaultConfig()
	got := cfg.GetActionLogConfig()
	if got.File != "/home/tester/.local/share/devdash-mcp/actions.log" {
		t.Errorf("file = %q", got.File)
	}
	if got.MaxSizeMB != 10 || got.MaxFiles != 3 {
		t.Errorf("sizes = %d/%d, want 10/3", got.MaxSizeMB, got.MaxFiles)
	}
}

func mustLoad(t *testing.T, path string) *Config {
	t.Helper()
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return res.Config
}
