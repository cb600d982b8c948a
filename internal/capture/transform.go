package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/1broseidon/devdash-mcp/internal/command"
)

// Transformer applies the geometric steps to PNG bytes. Percentages are in
// 1..99; callers skip the step entirely at 100.
type Transformer interface {
	CropLeft(ctx context.Context, img []byte, pct int) ([]byte, error)
	CropCenter(ctx context.Context, img []byte, pct int) ([]byte, error)
	Scale(ctx context.Context, img []byte, pct int) ([]byte, error)
}

// ImageMagick pipes images through `convert png:- ... png:-`.
type ImageMagick struct {
	Runner  command.Runner
	Command string
}

var _ Transformer = (*ImageMagick)(nil)

func (m *ImageMagick) command() string {
	if m.Command == "" {
		return "convert"
	}
	return m.Command
}

func (m *ImageMagick) convert(ctx context.Context, img []byte, ops ...string) ([]byte, error) {
	args := append([]string{"png:-"}, ops...)
	args = append(args, "png:-")
	out, err := m.Runner.Run(ctx, img, m.command(), args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s produced no output", m.command())
	}
	return out, nil
}

func (m *ImageMagick) CropLeft(ctx context.Context, img []byte, pct int) ([]byte, error) {
	return m.convert(ctx, img, "-gravity", "West", "-crop", fmt.Sprintf("%d%%x100%%+0+0", pct), "+repage")
}

func (m *ImageMagick) CropCenter(ctx context.Context, img []byte, pct int) ([]byte, error) {
	return m.convert(ctx, img, "-gravity", "center", "-crop", fmt.Sprintf("%d%%x%d%%+0+0", pct, pct), "+repage")
}

func (m *ImageMagick) Scale(ctx context.Context, img []byte, pct int) ([]byte, error) {
	return m.convert(ctx, img, "-resize", fmt.Sprintf("%d%%", pct))
}

// Builtin performs the same geometry in process.
type Builtin struct{}

var _ Transformer = Builtin{}

func (Builtin) CropLeft(_ context.Context, img []byte, pct int) ([]byte, error) {
	src, err := decodePNG(img)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w := scaled(b.Dx(), pct)
	return encodePNG(crop(src, image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Max.Y)))
}

func (Builtin) CropCenter(_ context.Context, img []byte, pct int) ([]byte, error) {
	src, err := decodePNG(img)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := scaled(b.Dx(), pct), scaled(b.Dy(), pct)
	x0 := b.Min.X + (b.Dx()-w)/2
	y0 := b.Min.Y + (b.Dy()-h)/2
	return encodePNG(crop(src, image.Rect(x0, y0, x0+w, y0+h)))
}

func (Builtin) Scale(_ context.Context, img []byte, pct int) ([]byte, error) {
	src, err := decodePNG(img)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, scaled(b.Dx(), pct), scaled(b.Dy(), pct)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return encodePNG(dst)
}

// scaled returns pct percent of n, at least 1.
func scaled(n, pct int) int {
	v := n * pct / 100
	if v < 1 {
		return 1
	}
	return v
}

func crop(src image.Image, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, src, r, draw.Src, nil)
	return dst
}

func decodePNG(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode png: %w", err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
