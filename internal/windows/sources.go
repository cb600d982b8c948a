package windows

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/1broseidon/devdash-mcp/internal/command"
	"github.com/1broseidon/devdash-mcp/internal/x11"
)

// connectX11 opens in-process X11 connections; tests replace it.
var connectX11 = x11.NewConnection

// WmctrlSource lists windows with `wmctrl -l -G`.
type WmctrlSource struct {
	Runner command.Runner
}

func (s *WmctrlSource) Name() string { return "wmctrl" }

func (s *WmctrlSource) List(ctx context.Context) ([]Info, error) {
	out, err := s.Runner.Run(ctx, nil, "wmctrl", "-l", "-G")
	if err != nil {
		return nil, err
	}
	return parseWmctrl(string(out)), nil
}

// parseWmctrl parses lines of the form
//
//	0x01c0000a  0 10 20 800 600 host Window Title
//
// Lines with fewer than eight fields or non-numeric geometry are skipped.
func parseWmctrl(out string) []Info {
	windows := []Info{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := splitFields(line, 8)
		if len(parts) < 8 {
			continue
		}
		x, errX := strconv.Atoi(parts[2])
		y, errY := strconv.Atoi(parts[3])
		w, errW := strconv.Atoi(parts[4])
		h, errH := strconv.Atoi(parts[5])
		if errX != nil || errY != nil || errW != nil || errH != nil {
			continue
		}
		windows = append(windows, Info{
			ID:     parts[0],
			Title:  parts[7],
			Width:  w,
			Height: h,
			X:      &x,
			Y:      &y,
		})
	}
	return windows
}

// splitFields splits s on runs of whitespace into at most n fields; the
// last field keeps the remainder with its inner spacing intact.
func splitFields(s string, n int) []string {
	var fields []string
	rest := strings.TrimLeft(s, " \t")
	for rest != "" && len(fields) < n-1 {
		i := strings.IndexAny(rest, " \t")
		if i < 0 {
			break
		}
		fields = append(fields, rest[:i])
		rest = strings.TrimLeft(rest[i:], " \t")
	}
	if rest = strings.TrimRight(rest, " \t\r"); rest != "" {
		fields = append(fields, rest)
	}
	return fields
}

var xwininfoLine = regexp.MustCompile(`^\s+(0x[0-9a-f]+)\s+"([^"]+)".*?(\d+)x(\d+)`)

// XwininfoSource lists windows with `xwininfo -root -tree`, keeping only
// windows larger than MinSize in both dimensions.
type XwininfoSource struct {
	Runner  command.Runner
	MinSize int
}

func (s *XwininfoSource) Name() string { return "xwininfo" }

func (s *XwininfoSource) List(ctx context.Context) ([]Info, error) {
	out, err := s.Runner.Run(ctx, nil, "xwininfo", "-root", "-tree")
	if err != nil {
		return nil, err
	}
	return parseXwininfo(string(out), s.MinSize), nil
}

func parseXwininfo(out string, minSize int) []Info {
	windows := []Info{}
	for _, line := range strings.Split(out, "\n") {
		m := xwininfoLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		w, errW := strconv.Atoi(m[3])
		h, errH := strconv.Atoi(m[4])
		if errW != nil || errH != nil {
			continue
		}
		// Trivial and utility windows.
		if w <= minSize || h <= minSize {
			continue
		}
		windows = append(windows, Info{ID: m[1], Title: m[2], Width: w, Height: h})
	}
	return windows
}

// EWMHSource lists the window manager's client windows over a fresh X11
// connection per call.
type EWMHSource struct {
	Session command.X11Session
}

func (s *EWMHSource) Name() string { return "ewmh" }

func (s *EWMHSource) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := connectX11(s.Session.Resolve())
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, err
	}
	windows := make([]Info, 0, len(clients))
	for _, c := range clients {
		x, y := c.X, c.Y
		windows = append(windows, Info{
			ID:     x11.FormatWindowID(c.ID),
			Title:  c.Title,
			Width:  c.Width,
			Height: c.Height,
			X:      &x,
			Y:      &y,
		})
	}
	return windows, nil
}
