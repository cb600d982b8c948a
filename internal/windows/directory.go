// Package windows discovers on-screen windows and resolves fuzzy window
// names to concrete handles.
package windows

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/1broseidon/devdash-mcp/internal/command"
)

// Info describes one on-screen window. It is produced fresh on every query;
// the ID may be reused by the X server once the window closes, so callers
// must not hold it across calls.
type Info struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
}

// Source lists windows through one mechanism. An error means the mechanism
// is unavailable and the next source should be tried; an empty list with a
// nil error is a valid answer.
type Source interface {
	Name() string
	List(ctx context.Context) ([]Info, error)
}

// Lister is what the resolver and tools need from a directory.
type Lister interface {
	List(ctx context.Context) []Info
}

// Directory enumerates windows through an ordered list of sources.
type Directory struct {
	sources []Source
	logger  *zap.Logger
}

var _ Lister = (*Directory)(nil)

// NewDirectory creates a directory trying sources in order.
func NewDirectory(logger *zap.Logger, sources ...Source) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{sources: sources, logger: logger}
}

// List returns the windows reported by the first source that succeeds.
// When every source fails the result is empty, not an error: callers must
// tolerate zero windows. Nothing is cached.
func (d *Directory) List(ctx context.Context) []Info {
	for _, src := range d.sources {
		windows, err := src.List(ctx)
		if err != nil {
			d.logger.Debug("window source failed",
				zap.String("source", src.Name()),
				zap.Bool("tool_missing", command.IsNotFound(err)),
				zap.Error(err))
			continue
		}
		d.logger.Debug("listed windows",
			zap.String("source", src.Name()),
			zap.Int("count", len(windows)))
		return windows
	}
	d.logger.Warn("no window source available", zap.Int("sources", len(d.sources)))
	return []Info{}
}

// FilterByKeywords keeps windows whose title contains any keyword,
// case-insensitively. No keywords keeps everything.
func FilterByKeywords(windows []Info, keywords []string) []Info {
	if len(keywords) == 0 {
		return windows
	}
	out := make([]Info, 0, len(windows))
	for _, w := range windows {
		title := strings.ToLower(w.Title)
		for _, kw := range keywords {
			if strings.Contains(title, strings.ToLower(kw)) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// Titles returns the window titles in order.
func Titles(windows []Info) []string {
	titles := make([]string, 0, len(windows))
	for _, w := range windows {
		titles = append(titles, w.Title)
	}
	return titles
}
