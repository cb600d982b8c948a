package windows

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/1broseidon/devdash-mcp/internal/command"
	"github.com/1broseidon/devdash-mcp/internal/fault"
	"github.com/1broseidon/devdash-mcp/internal/x11"
)

type fakeResult struct {
	out []byte
	err error
}

// fakeRunner answers commands by name and records invocations.
type fakeRunner struct {
	results map[string]fakeResult
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, _ []byte, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	r, ok := f.results[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, exec.ErrNotFound)
	}
	return r.out, r.err
}

const wmctrlOutput = `0x01c0000a  0 0    0    1920 1080 host Desktop
0x03a00007  0 100  50   1280 800  host DevDash Gauges Explorer
0x03c00003  0 10   10   640  480  host   cluster  -  left   screen
0x04000001 -1 0 0 10 10 host
garbage line
`

const xwininfoOutput = `
xwininfo: Window id: 0x1a9 (the root window) (has no name)

  Root window id: 0x1a9 (the root window) (has no name)
  Parent window id: 0x0 (none)
     12 children:
     0x3a00007 "DevDash Gauges Explorer": ("qml-gauges-explorer" "Explorer")  1280x800+100+50  +100+50
     0x3a00010 "tooltip": ("qml-gauges-explorer" "Explorer")  80x20+0+0  +0+0
     0x3c00003 "cluster": ("devdash" "DevDash")  640x480+10+10  +10+10
     0x3c00009 (has no name): ()  1x1+-1+-1  +-1+-1
     0x3e00001 "thin bar": ()  1920x100+0+0  +0+0
`

func TestParseWmctrl(t *testing.T) {
	got := parseWmctrl(wmctrlOutput)
	if len(got) != 3 {
		t.Fatalf("parseWmctrl returned %d windows, want 3: %+v", len(got), got)
	}
	w := got[1]
	if w.ID != "0x03a00007" || w.Title != "DevDash Gauges Explorer" {
		t.Errorf("window[1] = %+v", w)
	}
	if w.Width != 1280 || w.Height != 800 || w.X == nil || *w.X != 100 || w.Y == nil || *w.Y != 50 {
		t.Errorf("window[1] geometry = %dx%d at %v,%v", w.Width, w.Height, w.X, w.Y)
	}
	if got[2].Title != "cluster  -  left   screen" {
		t.Errorf("title remainder not preserved: %q", got[2].Title)
	}
}

func TestParseWmctrl_NonNumericGeometrySkipped(t *testing.T) {
	got := parseWmctrl("0x1 0 a b c d host Title\n")
	if len(got) != 0 {
		t.Fatalf("expected malformed line to be skipped, got %+v", got)
	}
}

func TestParseXwininfo_MinSizeFilter(t *testing.T) {
	got := parseXwininfo(xwininfoOutput, 100)
	titles := Titles(got)
	if strings.Join(titles, "|") != "DevDash Gauges Explorer|cluster" {
		t.Fatalf("titles = %v", titles)
	}
	if got[0].ID != "0x3a00007" || got[0].Width != 1280 || got[0].Height != 800 {
		t.Errorf("window[0] = %+v", got[0])
	}
	if got[0].X != nil || got[0].Y != nil {
		t.Errorf("xwininfo windows should carry no position")
	}
}

func TestDirectory_PrimarySucceeds(t *testing.T) {
	r := &fakeRunner{results: map[string]fakeResult{
		"wmctrl":   {out: []byte(wmctrlOutput)},
		"xwininfo": {out: []byte(xwininfoOutput)},
	}}
	dir := NewDirectory(nil, &WmctrlSource{Runner: r}, &XwininfoSource{Runner: r, MinSize: 100})

	got := dir.List(context.Background())
	if len(got) != 3 {
		t.Fatalf("got %d windows, want 3 from wmctrl", len(got))
	}
	if len(r.calls) != 1 || r.calls[0] != "wmctrl -l -G" {
		t.Fatalf("calls = %v, want only wmctrl", r.calls)
	}
}

func TestDirectory_FallsBackWhenPrimaryMissing(t *testing.T) {
	r := &fakeRunner{results: map[string]fakeResult{
		"xwininfo": {out: []byte(xwininfoOutput)},
	}}
	dir := NewDirectory(nil, &WmctrlSource{Runner: r}, &XwininfoSource{Runner: r, MinSize: 100})

	got := dir.List(context.Background())
	if len(got) != 2 {
		t.Fatalf("got %d windows, want 2 from xwininfo", len(got))
	}
	if strings.Join(r.calls, ",") != "wmctrl -l -G,xwininfo -root -tree" {
		t.Fatalf("calls = %v", r.calls)
	}
}

func TestDirectory_FallsBackWhenPrimaryExitsNonZero(t *testing.T) {
	r := &fakeRunner{results: map[string]fakeResult{
		"wmctrl":   {err: errors.New("exit status 1")},
		"xwininfo": {out: []byte(xwininfoOutput)},
	}}
	dir := NewDirectory(nil, &WmctrlSource{Runner: r}, &XwininfoSource{Runner: r, MinSize: 100})
	if got := dir.List(context.Background()); len(got) != 2 {
		t.Fatalf("got %d windows, want 2", len(got))
	}
}

func TestDirectory_AllSourcesFailIsEmptyNotError(t *testing.T) {
	r := &fakeRunner{}
	dir := NewDirectory(nil, &WmctrlSource{Runner: r}, &XwininfoSource{Runner: r, MinSize: 100})
	got := dir.List(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("List = %#v, want empty non-nil slice", got)
	}
}

func TestDirectory_EmptyPrimaryDoesNotFallBack(t *testing.T) {
	r := &fakeRunner{results: map[string]fakeResult{
		"wmctrl":   {out: []byte("")},
		"xwininfo": {out: []byte(xwininfoOutput)},
	}}
	dir := NewDirectory(nil, &WmctrlSource{Runner: r}, &XwininfoSource{Runner: r, MinSize: 100})
	if got := dir.List(context.Background()); len(got) != 0 {
		t.Fatalf("got %d windows, want 0", len(got))
	}
	if len(r.calls) != 1 {
		t.Fatalf("calls = %v, want wmctrl only", r.calls)
	}
}

type staticLister []Info

func (s staticLister) List(context.Context) []Info { return s }

func win(id, title string) Info { return Info{ID: id, Title: title, Width: 800, Height: 600} }

func TestMatch(t *testing.T) {
	dir := []Info{
		win("0x1", "DevDash Gauges Explorer - Settings"),
		win("0x2", "Explorer"),
		win("0x3", "DevDash Cluster"),
		win("0x4", "devdash cluster"),
	}
	tests := []struct {
		pattern string
		wantID  string
		wantOK  bool
	}{
		// Exact match beats an earlier substring match.
		{"explorer", "0x2", true},
		{"EXPLORER", "0x2", true},
		// Exact ties: first in directory order.
		{"devdash cluster", "0x3", true},
		// Substring: first in directory order.
		{"gauges", "0x1", true},
		{"cluster", "0x3", true},
		{"headunit", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, ok := Match(dir, tt.pattern)
			if ok != tt.wantOK || got.ID != tt.wantID {
				t.Errorf("Match(%q) = %q, %v; want %q, %v", tt.pattern, got.ID, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestMatch_ExactTitleAlwaysResolves(t *testing.T) {
	titles := []string{"cluster", "Headunit", "qml gauges", "A", "DevDash Gauges Explorer"}
	for _, title := range titles {
		// Surround the target with windows whose titles contain it.
		dir := []Info{
			win("0xa", "prefix "+title),
			win("0xb", title+" suffix"),
			win("0xtarget", title),
			win("0xc", strings.ToUpper(title)+"!"),
		}
		got, ok := Match(dir, strings.ToUpper(title))
		if !ok || got.ID != "0xtarget" {
			t.Errorf("Match(%q) = %q, %v; want 0xtarget", title, got.ID, ok)
		}
	}
}

func TestResolver_NotFound(t *testing.T) {
	r := NewResolver(staticLister{win("0x1", "Terminal"), win("0x2", "Browser")})
	_, err := r.Resolve(context.Background(), "cluster")
	if !fault.Is(err, fault.NotFound) {
		t.Fatalf("Resolve error = %v, want NotFound", err)
	}

	_, err = NewResolver(staticLister{}).Resolve(context.Background(), "anything")
	if !fault.Is(err, fault.NotFound) {
		t.Fatalf("Resolve on empty directory = %v, want NotFound", err)
	}
}

func TestResolver_Found(t *testing.T) {
	r := NewResolver(staticLister{win("0x1", "Terminal"), win("0x2", "DevDash Cluster")})
	got, err := r.Resolve(context.Background(), "cluster")
	if err != nil || got.ID != "0x2" {
		t.Fatalf("Resolve = %+v, %v", got, err)
	}
}

func TestFilterByKeywords(t *testing.T) {
	dir := []Info{win("0x1", "Terminal"), win("0x2", "QML Gauges"), win("0x3", "HeadUnit")}
	got := FilterByKeywords(dir, []string{"gauge", "headunit"})
	if strings.Join(Titles(got), ",") != "QML Gauges,HeadUnit" {
		t.Fatalf("FilterByKeywords = %v", Titles(got))
	}
	if len(FilterByKeywords(dir, nil)) != 3 {
		t.Fatalf("no keywords should keep everything")
	}
}

func TestEWMHSource_PassesResolvedSession(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("XAUTHORITY", "")
	var gotDisplay, gotXAuth string
	orig := connectX11
	connectX11 = func(display, xauthority string) (*x11.Connection, error) {
		gotDisplay, gotXAuth = display, xauthority
		return nil, errors.New("no X server")
	}
	t.Cleanup(func() { connectX11 = orig })

	src := &EWMHSource{Session: command.X11Session{Display: ":3", XAuthority: "/home/dev/.Xauthority"}}
	if _, err := src.List(context.Background()); err == nil {
		t.Fatalf("expected connection error")
	}
	if gotDisplay != ":3" || gotXAuth != "/home/dev/.Xauthority" {
		t.Fatalf("connect(%q, %q), want the session display and xauthority", gotDisplay, gotXAuth)
	}
}
