package windows

import (
	"context"
	"strings"

	"github.com/1broseidon/devdash-mcp/internal/fault"
)

// Resolver maps a fuzzy window name to a window from the directory.
type Resolver struct {
	dir Lister
}

// NewResolver creates a resolver over dir.
func NewResolver(dir Lister) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve fetches the directory and returns the window matching pattern.
// A miss is a fault.NotFound error.
func (r *Resolver) Resolve(ctx context.Context, pattern string) (Info, error) {
	if w, ok := Match(r.dir.List(ctx), pattern); ok {
		return w, nil
	}
	return Info{}, fault.New(fault.NotFound, "window %q not found", pattern)
}

// Match applies the two-pass policy: a case-insensitive exact title match,
// then (only if that found nothing) a case-insensitive substring match. In
// both passes the first window in directory order wins.
func Match(windows []Info, pattern string) (Info, bool) {
	needle := strings.ToLower(pattern)
	for _, w := range windows {
		if strings.ToLower(w.Title) == needle {
			return w, true
		}
	}
	for _, w := range windows {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			return w, true
		}
	}
	return Info{}, false
}
