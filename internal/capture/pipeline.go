package capture

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/1broseidon/devdash-mcp/internal/command"
	"github.com/1broseidon/devdash-mcp/internal/config"
	"github.com/1broseidon/devdash-mcp/internal/fault"
	"github.com/1broseidon/devdash-mcp/internal/runtimepath"
	"github.com/1broseidon/devdash-mcp/internal/windows"
)

// WindowResolver turns a fuzzy window name into a window.
type WindowResolver interface {
	Resolve(ctx context.Context, pattern string) (windows.Info, error)
}

// Pipeline captures with the first working strategy, then transforms.
type Pipeline struct {
	resolver    WindowResolver
	strategies  []Strategy
	transformer Transformer
	logger      *zap.Logger
}

// NewPipeline assembles a pipeline. resolver may be nil when only Capture
// is used; a nil transformer means Builtin.
func NewPipeline(resolver WindowResolver, transformer Transformer, logger *zap.Logger, strategies ...Strategy) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if transformer == nil {
		transformer = Builtin{}
	}
	return &Pipeline{
		resolver:    resolver,
		strategies:  strategies,
		transformer: transformer,
		logger:      logger,
	}
}

// New builds a pipeline from the capture section of cfg.
func New(cfg *config.Config, runner command.Runner, session command.X11Session, resolver WindowResolver, logger *zap.Logger) (*Pipeline, error) {
	strategies := make([]Strategy, 0, len(cfg.Capture.Strategies))
	for _, name := range cfg.Capture.Strategies {
		switch name {
		case config.StrategyImport:
			strategies = append(strategies, &ImportStrategy{Runner: runner})
		case config.StrategyScrot:
			strategies = append(strategies, &ScrotStrategy{Runner: runner, TempDir: scratchDir(cfg.Capture.TempDir, logger)})
		case config.StrategyX11:
			strategies = append(strategies, &X11Strategy{Session: session})
		default:
			return nil, fmt.Errorf("unknown capture strategy %q", name)
		}
	}

	var transformer Transformer
	switch cfg.Capture.Transformer {
	case config.TransformerImageMagick:
		transformer = &ImageMagick{Runner: runner, Command: cfg.Capture.ConvertCommand}
	case config.TransformerBuiltin:
		transformer = Builtin{}
	default:
		return nil, fmt.Errorf("unknown transformer %q", cfg.Capture.Transformer)
	}
	return NewPipeline(resolver, transformer, logger, strategies...), nil
}

// scratchDir picks where scrot writes before the file is read back. An empty
// result means os.TempDir().
func scratchDir(configured string, logger *zap.Logger) string {
	if configured != "" {
		return configured
	}
	dir, err := runtimepath.CaptureDir()
	if err != nil {
		if logger != nil {
			logger.Debug("runtime capture dir unavailable, using system temp dir", zap.Error(err))
		}
		return ""
	}
	return dir
}

// CaptureWindow resolves req.Window and captures it. An unmatched name is a
// fault.NotFound error.
func (p *Pipeline) CaptureWindow(ctx context.Context, req Request) (*Result, error) {
	if p.resolver == nil {
		return nil, errors.New("capture pipeline has no window resolver")
	}
	win, err := p.resolver.Resolve(ctx, req.Window)
	if err != nil {
		return nil, err
	}
	res, err := p.Capture(ctx, win.ID, req.Options)
	if err != nil {
		return nil, err
	}
	res.Title = win.Title
	return res, nil
}

// Capture grabs windowID and applies opts. Every strategy failing is a
// fault.CaptureFailed error. A failing transform leaves the image as it was
// and the remaining steps still run.
func (p *Pipeline) Capture(ctx context.Context, windowID string, opts Options) (*Result, error) {
	var (
		img      []byte
		strategy string
		errs     []error
	)
	for _, s := range p.strategies {
		data, err := s.Capture(ctx, windowID)
		if err == nil && len(data) == 0 {
			err = errEmptyCapture
		}
		if err != nil {
			p.logger.Debug("capture strategy failed",
				zap.String("strategy", s.Name()),
				zap.String("window_id", windowID),
				zap.Bool("tool_missing", command.IsNotFound(err)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		img, strategy = data, s.Name()
		break
	}
	if img == nil {
		msg := fmt.Sprintf("failed to capture window %s; make sure 'import' (ImageMagick) or 'scrot' is installed", windowID)
		if len(errs) == 0 {
			return nil, fault.New(fault.CaptureFailed, "%s: no capture strategy configured", msg)
		}
		return nil, fault.Wrap(fault.CaptureFailed, errors.Join(errs...), msg)
	}

	if opts.CropLeft != nil && *opts.CropLeft < 1.0 {
		img = p.apply(ctx, "crop_left", img, percent(*opts.CropLeft), p.transformer.CropLeft)
	}
	if opts.CropCenter != nil && *opts.CropCenter < 1.0 {
		img = p.apply(ctx, "crop_center", img, percent(*opts.CropCenter), p.transformer.CropCenter)
	}
	if opts.Scale < 1.0 {
		img = p.apply(ctx, "scale", img, percent(opts.Scale), p.transformer.Scale)
	}
	return &Result{PNG: img, WindowID: windowID, Strategy: strategy}, nil
}

type transformFunc func(ctx context.Context, img []byte, pct int) ([]byte, error)

func (p *Pipeline) apply(ctx context.Context, step string, img []byte, pct int, fn transformFunc) []byte {
	if pct <= 0 {
		return img
	}
	out, err := fn(ctx, img, pct)
	if err != nil {
		p.logger.Debug("transform failed, keeping image",
			zap.String("step", step),
			zap.Int("percent", pct),
			zap.Error(err))
		return img
	}
	return out
}
