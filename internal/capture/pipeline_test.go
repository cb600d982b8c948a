package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/devdash-mcp/internal/command"
	"github.com/1broseidon/devdash-mcp/internal/config"
	"github.com/1broseidon/devdash-mcp/internal/fault"
	"github.com/1broseidon/devdash-mcp/internal/windows"
	"github.com/1broseidon/devdash-mcp/internal/x11"
)

type fakeStrategy struct {
	name  string
	data  []byte
	err   error
	calls int
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Capture(context.Context, string) ([]byte, error) {
	s.calls++
	return s.data, s.err
}

// recordingTransformer tags the image with each step it runs.
type recordingTransformer struct {
	steps []string
	fail  map[string]bool
}

func (r *recordingTransformer) step(name string, img []byte, pct int) ([]byte, error) {
	r.steps = append(r.steps, name)
	if r.fail[name] {
		return nil, errors.New(name + " failed")
	}
	return append(append([]byte{}, img...), []byte("|"+name)...), nil
}

func (r *recordingTransformer) CropLeft(_ context.Context, img []byte, pct int) ([]byte, error) {
	return r.step("left", img, pct)
}

func (r *recordingTransformer) CropCenter(_ context.Context, img []byte, pct int) ([]byte, error) {
	return r.step("center", img, pct)
}

func (r *recordingTransformer) Scale(_ context.Context, img []byte, pct int) ([]byte, error) {
	return r.step("scale", img, pct)
}

func TestCapture_IdentityPassesBytesThrough(t *testing.T) {
	raw := []byte("\x89PNG raw capture")
	tr := &recordingTransformer{}
	p := NewPipeline(nil, tr, nil, &fakeStrategy{name: "import", data: raw})

	for _, opts := range []Options{
		Identity(),
		{Scale: 1.0, CropLeft: Float(1.0), CropCenter: Float(1.0)},
		{Scale: 1.5, CropLeft: Float(2.0)},
	} {
		res, err := p.Capture(context.Background(), "0x1", opts)
		if err != nil {
			t.Fatalf("Capture: %v", err)
		}
		if !bytes.Equal(res.PNG, raw) {
			t.Fatalf("PNG = %q, want raw bytes", res.PNG)
		}
	}
	if len(tr.steps) != 0 {
		t.Fatalf("transformer invoked for identity options: %v", tr.steps)
	}
}

func TestCapture_StepOrder(t *testing.T) {
	tr := &recordingTransformer{}
	p := NewPipeline(nil, tr, nil, &fakeStrategy{name: "import", data: []byte("img")})

	res, err := p.Capture(context.Background(), "0x1", PreviewOptions())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if string(res.PNG) != "img|left|center|scale" {
		t.Fatalf("PNG = %q", res.PNG)
	}
	if res.Strategy != "import" || res.WindowID != "0x1" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCapture_TransformFailureIsSilent(t *testing.T) {
	tr := &recordingTransformer{fail: map[string]bool{"center": true}}
	p := NewPipeline(nil, tr, nil, &fakeStrategy{name: "import", data: []byte("img")})

	res, err := p.Capture(context.Background(), "0x1", PreviewOptions())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if string(res.PNG) != "img|left|scale" {
		t.Fatalf("PNG = %q, want failed step skipped and later steps applied", res.PNG)
	}
}

func TestCapture_FallsBackToNextStrategy(t *testing.T) {
	first := &fakeStrategy{name: "import", err: errors.New("import: not found")}
	second := &fakeStrategy{name: "scrot", data: []byte("scrot-img")}
	p := NewPipeline(nil, nil, nil, first, second)

	res, err := p.Capture(context.Background(), "0x1", Identity())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Strategy != "scrot" || string(res.PNG) != "scrot-img" {
		t.Fatalf("result = %+v", res)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("calls = %d/%d", first.calls, second.calls)
	}
}

func TestCapture_AllStrategiesFail(t *testing.T) {
	p := NewPipeline(nil, nil, nil,
		&fakeStrategy{name: "import", err: errors.New("exit status 1")},
		&fakeStrategy{name: "scrot", err: errors.New("exit status 2")},
	)
	res, err := p.Capture(context.Background(), "0x1", PreviewOptions())
	if res != nil {
		t.Fatalf("expected no partial result, got %+v", res)
	}
	if !fault.Is(err, fault.CaptureFailed) {
		t.Fatalf("err = %v, want CaptureFailed", err)
	}
	if !strings.Contains(err.Error(), "import") || !strings.Contains(err.Error(), "scrot") {
		t.Fatalf("err %q should mention both strategies", err)
	}
}

func TestCapture_NoStrategiesIsCaptureFailed(t *testing.T) {
	p := NewPipeline(fixedResolver{win: windows.Info{ID: "0x2a", Title: "Gauge Explorer"}}, nil, nil)

	res, err := p.Capture(context.Background(), "0x2a", Identity())
	if res != nil || !fault.Is(err, fault.CaptureFailed) {
		t.Fatalf("Capture = (%+v, %v), want CaptureFailed", res, err)
	}
	res, err = p.CaptureWindow(context.Background(), Request{Window: "explorer", Options: Identity()})
	if res != nil || !fault.Is(err, fault.CaptureFailed) {
		t.Fatalf("CaptureWindow = (%+v, %v), want CaptureFailed", res, err)
	}
}

func TestCapture_EmptyDataFallsThrough(t *testing.T) {
	empty := &fakeStrategy{name: "x11"}
	p := NewPipeline(fixedResolver{win: windows.Info{ID: "0x2a"}}, nil, nil, empty)

	res, err := p.CaptureWindow(context.Background(), Request{Window: "explorer", Options: Identity()})
	if res != nil || !fault.Is(err, fault.CaptureFailed) {
		t.Fatalf("CaptureWindow = (%+v, %v), want CaptureFailed", res, err)
	}
	if !errors.Is(err, errEmptyCapture) {
		t.Fatalf("err = %v, want it to wrap errEmptyCapture", err)
	}

	next := &fakeStrategy{name: "import", data: []byte("img")}
	p = NewPipeline(nil, nil, nil, &fakeStrategy{name: "x11"}, next)
	res, err = p.Capture(context.Background(), "0x2a", Identity())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Strategy != "import" {
		t.Fatalf("strategy = %q, want import", res.Strategy)
	}
}

type fixedResolver struct {
	win windows.Info
	err error
}

func (r fixedResolver) Resolve(context.Context, string) (windows.Info, error) { return r.win, r.err }

func TestCaptureWindow(t *testing.T) {
	strat := &fakeStrategy{name: "import", data: []byte("img")}
	p := NewPipeline(fixedResolver{win: windows.Info{ID: "0x2a", Title: "Gauge Explorer"}}, nil, nil, strat)

	res, err := p.CaptureWindow(context.Background(), Request{Window: "explorer", Options: Identity()})
	if err != nil {
		t.Fatalf("CaptureWindow: %v", err)
	}
	if res.WindowID != "0x2a" || res.Title != "Gauge Explorer" {
		t.Fatalf("result = %+v", res)
	}

	p = NewPipeline(fixedResolver{err: fault.New(fault.NotFound, "window %q not found", "x")}, nil, nil, strat)
	if _, err := p.CaptureWindow(context.Background(), Request{Window: "x"}); !fault.Is(err, fault.NotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func pngSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestBuiltin_Geometry(t *testing.T) {
	ctx := context.Background()
	src := solidPNG(t, 1000, 800)

	left, err := Builtin{}.CropLeft(ctx, src, 60)
	if err != nil {
		t.Fatalf("CropLeft: %v", err)
	}
	if w, h := pngSize(t, left); w != 600 || h != 800 {
		t.Fatalf("after crop_left: %dx%d, want 600x800", w, h)
	}

	center, err := Builtin{}.CropCenter(ctx, left, 80)
	if err != nil {
		t.Fatalf("CropCenter: %v", err)
	}
	if w, h := pngSize(t, center); w != 480 || h != 640 {
		t.Fatalf("after crop_center: %dx%d, want 480x640", w, h)
	}

	scaled, err := Builtin{}.Scale(ctx, center, 50)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if w, h := pngSize(t, scaled); w != 240 || h != 320 {
		t.Fatalf("after scale: %dx%d, want 240x320", w, h)
	}
}

func TestBuiltin_CropCenterKeepsMiddle(t *testing.T) {
	out, err := Builtin{}.CropCenter(context.Background(), solidPNG(t, 100, 100), 50)
	if err != nil {
		t.Fatalf("CropCenter: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, _, _ := img.At(0, 0).RGBA()
	if r>>8 != 25 || g>>8 != 25 {
		t.Fatalf("top-left pixel came from (%d,%d), want (25,25)", r>>8, g>>8)
	}
}

func TestPipeline_BuiltinPreviewGeometry(t *testing.T) {
	p := NewPipeline(nil, Builtin{}, nil, &fakeStrategy{name: "x11", data: solidPNG(t, 1000, 800)})
	res, err := p.Capture(context.Background(), "0x1", Options{Scale: 1.0, CropLeft: Float(0.6), CropCenter: Float(0.8)})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if w, h := pngSize(t, res.PNG); w != 480 || h != 640 {
		t.Fatalf("result %dx%d, want 480x640", w, h)
	}
}

func TestBuiltin_RejectsNonPNG(t *testing.T) {
	if _, err := (Builtin{}).Scale(context.Background(), []byte("not a png"), 50); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestPreviewOptions(t *testing.T) {
	o := PreviewOptions()
	if o.Scale != 0.5 || o.CropLeft == nil || *o.CropLeft != 0.6 || o.CropCenter == nil || *o.CropCenter != 0.8 {
		t.Fatalf("PreviewOptions = %+v", o)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ v, lo, hi, want float64 }{
		{0.1, 0.3, 1, 0.3},
		{0.5, 0.3, 1, 0.5},
		{4, 0.3, 1, 1},
		{0, 0.1, 1, 0.1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestNew_FromConfig(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	cfg := config.DefaultConfig()
	cfg.Capture.Strategies = []string{config.StrategyX11, config.StrategyImport, config.StrategyScrot}
	p, err := New(cfg, nil, command.X11Session{}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var names []string
	for _, s := range p.strategies {
		names = append(names, s.Name())
	}
	if strings.Join(names, ",") != "x11,import,scrot" {
		t.Fatalf("strategies = %v", names)
	}
	if _, ok := p.transformer.(*ImageMagick); !ok {
		t.Fatalf("transformer = %T, want *ImageMagick", p.transformer)
	}

	cfg.Capture.Transformer = config.TransformerBuiltin
	p, err = New(cfg, nil, command.X11Session{}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := p.transformer.(Builtin); !ok {
		t.Fatalf("transformer = %T, want Builtin", p.transformer)
	}

	cfg.Capture.Strategies = []string{"gnome"}
	if _, err := New(cfg, nil, command.X11Session{}, nil, nil); err == nil {
		t.Fatalf("expected unknown strategy error")
	}
}

func TestScratchDir(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	if got := scratchDir("/var/tmp/shots", nil); got != "/var/tmp/shots" {
		t.Errorf("configured dir = %q, want /var/tmp/shots", got)
	}
	want := filepath.Join(runtimeDir, "devdash-mcp", "captures")
	if got := scratchDir("", nil); got != want {
		t.Errorf("default dir = %q, want %q", got, want)
	}
}

func TestX11Strategy_PassesResolvedSession(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("XAUTHORITY", "")
	var gotDisplay, gotXAuth string
	orig := connectX11
	connectX11 = func(display, xauthority string) (*x11.Connection, error) {
		gotDisplay, gotXAuth = display, xauthority
		return nil, errors.New("no X server")
	}
	t.Cleanup(func() { connectX11 = orig })

	s := &X11Strategy{Session: command.X11Session{Display: ":7", XAuthority: "/run/user/1000/gdm/Xauthority"}}
	if _, err := s.Capture(context.Background(), "0x2a"); err == nil {
		t.Fatalf("expected connection error")
	}
	if gotDisplay != ":7" || gotXAuth != "/run/user/1000/gdm/Xauthority" {
		t.Fatalf("connect(%q, %q), want the session display and xauthority", gotDisplay, gotXAuth)
	}
}
