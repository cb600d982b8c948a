package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir returns the per-user runtime directory. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/devdash-mcp-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/devdash-mcp-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// CaptureDir returns (and creates) the private scratch directory for
// screenshot files written by external tools.
func CaptureDir() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(runtimeDir, "devdash-mcp", "captures")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create capture dir: %w", err)
	}
	return dir, nil
}
