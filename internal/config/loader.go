package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvConfigPath   = "DEVDASH_CONFIG"
	EnvExplorerHost = "DEVDASH_EXPLORER_WS_HOST"
	EnvExplorerPort = "DEVDASH_EXPLORER_WS_PORT"
	EnvDevToolsHost = "DEVDASH_DEVTOOLS_HOST"
	EnvDevToolsPort = "DEVDASH_DEVTOOLS_PORT"
	EnvLogLevel     = "DEVDASH_LOG_LEVEL"
)

// LoadResult carries the effective config and where it came from.
type LoadResult struct {
	Config *Config
	Files  []string // config and .env files actually read, in load order
}

// DefaultConfigPath returns $DEVDASH_CONFIG or ~/.config/devdash-mcp/config.yaml.
func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "devdash-mcp", "config.yaml"), nil
}

// Load reads the configuration from the standard location, applying .env
// files and environment overrides.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load that also reports which files were read. The
// working directory's .env is loaded before the config path is resolved, so
// it may set DEVDASH_CONFIG.
func LoadWithSources() (*LoadResult, error) {
	early, err := loadDotEnv(nil, ".env")
	if err != nil {
		return nil, err
	}
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return load(path, early)
}

// LoadFromPath loads path (missing is fine), then .env files from the working
// directory and from next to path, then environment overrides.
func LoadFromPath(path string) (*LoadResult, error) {
	return load(path, nil)
}

// load is LoadFromPath with .env files that were already loaded.
func load(path string, loadedEnv []string) (*LoadResult, error) {
	cfg := DefaultConfig()
	files := append([]string(nil), loadedEnv...)

	if exists, err := pathExists(path); err != nil {
		return nil, err
	} else if exists {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read: %w", path, err)
		}
		if err := decodeStrictYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		files = append(files, path)
	}

	envFiles, err := loadDotEnv(loadedEnv, ".env", filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	files = append(files, envFiles...)

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Files: files}, nil
}

// loadDotEnv loads each existing candidate not in skip into the process
// environment. Variables already set are left untouched.
func loadDotEnv(skip []string, candidates ...string) ([]string, error) {
	var loaded []string
	seen := make(map[string]struct{}, len(candidates)+len(skip))
	for _, p := range skip {
		seen[p] = struct{}{}
	}
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}

		exists, err := pathExists(abs)
		if err != nil {
			return loaded, err
		}
		if !exists {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return loaded, fmt.Errorf("%s: failed to load: %w", abs, err)
		}
		loaded = append(loaded, abs)
	}
	return loaded, nil
}

// applyEnv overlays DEVDASH_* variables on cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookupNonEmpty(lookup, EnvExplorerHost); ok {
		cfg.Explorer.Host = v
	}
	if v, ok := lookupNonEmpty(lookup, EnvExplorerPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Path: EnvExplorerPort, Err: fmt.Errorf("not an integer: %q", v)}
		}
		cfg.Explorer.Port = port
	}
	if v, ok := lookupNonEmpty(lookup, EnvDevToolsHost); ok {
		cfg.DevTools.Host = v
	}
	if v, ok := lookupNonEmpty(lookup, EnvDevToolsPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Path: EnvDevToolsPort, Err: fmt.Errorf("not an integer: %q", v)}
		}
		cfg.DevTools.Port = port
	}
	if v, ok := lookupNonEmpty(lookup, EnvLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	return nil
}

func lookupNonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
