package x11

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xgraphics"
)

// ClientWindow is a managed top-level window with root-relative geometry.
type ClientWindow struct {
	ID     xproto.Window
	Title  string
	X      int
	Y      int
	Width  int
	Height int
}

// ClientWindows returns the window manager's client list (_NET_CLIENT_LIST)
// in the order the window manager reports it. Windows whose geometry cannot
// be read (typically closed mid-query) are skipped.
func (c *Connection) ClientWindows() ([]ClientWindow, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to read _NET_CLIENT_LIST: %w", err)
	}

	windows := make([]ClientWindow, 0, len(clients))
	for _, id := range clients {
		x, y, w, h, ok := c.windowRect(id)
		if !ok {
			continue
		}
		windows = append(windows, ClientWindow{
			ID:     id,
			Title:  c.windowTitle(id),
			X:      x,
			Y:      y,
			Width:  w,
			Height: h,
		})
	}
	return windows, nil
}

// CapturePNG grabs the contents of a window drawable and encodes it as PNG.
// The window must be mapped and unobscured for the pixels to be meaningful.
func (c *Connection) CapturePNG(id xproto.Window) ([]byte, error) {
	img, err := xgraphics.NewDrawable(c.XUtil, xproto.Drawable(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read drawable %s: %w", FormatWindowID(id), err)
	}
	defer img.Destroy()

	var buf bytes.Buffer
	if err := img.WritePng(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode %s as png: %w", FormatWindowID(id), err)
	}
	return buf.Bytes(), nil
}

func (c *Connection) windowRect(id xproto.Window) (x, y, width, height int, ok bool) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(id)).Reply()
	if err != nil {
		return 0, 0, 0, 0, false
	}

	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), id, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, 0, 0, false
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), true
}

func (c *Connection) windowTitle(id xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, id); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, id); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}
