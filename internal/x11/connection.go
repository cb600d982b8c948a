package x11

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection connects to display, or to $DISPLAY when display is empty.
// xgb reads the auth cookie from $XAUTHORITY, so a non-empty xauthority is
// exported to the process environment first.
func NewConnection(display, xauthority string) (*Connection, error) {
	if err := applyXAuthority(xauthority); err != nil {
		return nil, err
	}
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11 display %q: %w", display, err)
	}
	// EWMH atoms are interned lazily by xgbutil
	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

func applyXAuthority(path string) error {
	if path == "" || os.Getenv("XAUTHORITY") == path {
		return nil
	}
	if err := os.Setenv("XAUTHORITY", path); err != nil {
		return fmt.Errorf("failed to set XAUTHORITY: %w", err)
	}
	return nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

// ParseWindowID parses a window handle as printed by wmctrl and xwininfo
// ("0x01c0000a") or as a decimal number.
func ParseWindowID(s string) (xproto.Window, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", s, err)
	}
	return xproto.Window(v), nil
}

// FormatWindowID renders a window handle the way wmctrl does.
func FormatWindowID(w xproto.Window) string {
	return fmt.Sprintf("0x%08x", uint32(w))
}
