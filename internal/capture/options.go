// Package capture grabs a window as PNG and applies the optional left-crop,
// center-crop and scale transforms.
package capture

// Options selects the transforms applied after a capture. A nil crop or a
// fraction of 1.0 or more disables that step; Scale below 1.0 resizes.
type Options struct {
	Scale      float64
	CropLeft   *float64
	CropCenter *float64
}

// Identity returns options that leave the captured image untouched.
func Identity() Options {
	return Options{Scale: 1.0}
}

// PreviewOptions returns the gauge preview preset: keep the left 60% (the
// explorer's preview pane), then its central 80%, then halve.
func PreviewOptions() Options {
	cropLeft, cropCenter := 0.6, 0.8
	return Options{Scale: 0.5, CropLeft: &cropLeft, CropCenter: &cropCenter}
}

// Float returns a pointer to v, for building Options literals.
func Float(v float64) *float64 { return &v }

// Request names a window by fuzzy title.
type Request struct {
	Window  string
	Options Options
}

// Result is a captured, transformed PNG. The caller owns PNG.
type Result struct {
	PNG      []byte
	WindowID string
	Title    string
	Strategy string
}

// percent converts a fraction to the whole percentage the transforms use.
// It truncates.
func percent(frac float64) int {
	return int(frac * 100)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
