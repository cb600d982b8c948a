package capture

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/1broseidon/devdash-mcp/internal/command"
	"github.com/1broseidon/devdash-mcp/internal/x11"
)

// connectX11 opens in-process X11 connections; tests replace it.
var connectX11 = x11.NewConnection

// Strategy captures one window as PNG bytes.
type Strategy interface {
	Name() string
	Capture(ctx context.Context, windowID string) ([]byte, error)
}

var errEmptyCapture = errors.New("capture produced no data")

// ImportStrategy streams the window from ImageMagick's `import`.
type ImportStrategy struct {
	Runner command.Runner
}

func (s *ImportStrategy) Name() string { return "import" }

func (s *ImportStrategy) Capture(ctx context.Context, windowID string) ([]byte, error) {
	out, err := s.Runner.Run(ctx, nil, "import", "-window", windowID, "png:-")
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errEmptyCapture
	}
	return out, nil
}

// ScrotStrategy captures the focused window with scrot. scrot cannot write
// to stdout, so it goes through a temporary file that is always removed.
type ScrotStrategy struct {
	Runner command.Runner
	// TempDir holds the intermediate file; empty means os.TempDir().
	TempDir string
}

func (s *ScrotStrategy) Name() string { return "scrot" }

func (s *ScrotStrategy) Capture(ctx context.Context, _ string) ([]byte, error) {
	tmp, err := os.CreateTemp(s.TempDir, "devdash-capture-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	if _, err := s.Runner.Run(ctx, nil, "scrot", "-u", "-o", path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scrot output: %w", err)
	}
	if len(data) == 0 {
		return nil, errEmptyCapture
	}
	return data, nil
}

// X11Strategy reads the window's drawable over a direct X connection.
type X11Strategy struct {
	Session command.X11Session
}

func (s *X11Strategy) Name() string { return "x11" }

func (s *X11Strategy) Capture(ctx context.Context, windowID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := x11.ParseWindowID(windowID)
	if err != nil {
		return nil, err
	}
	conn, err := connectX11(s.Session.Resolve())
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.CapturePNG(id)
}
