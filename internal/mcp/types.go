package mcp

import (
	"github.com/1broseidon/devdash-mcp/internal/explorer"
	"github.com/1broseidon/devdash-mcp/internal/windows"
)

// NoInput is the input for tools that take no arguments.
type NoInput struct{}

// Failure is the structured body of every failed tool call.
type Failure struct {
	Error            string   `json:"error"`
	Kind             string   `json:"kind"`
	AvailableWindows []string `json:"available_windows,omitempty"`
}

// ListWindowsInput is the input for the screenshot_list_windows tool.
type ListWindowsInput struct {
	All bool `json:"all,omitempty" jsonschema:"When true, list every window instead of only DevDash-related ones (default: false)"`
}

// ListWindowsOutput is the output for the screenshot_list_windows tool.
type ListWindowsOutput struct {
	Windows []windows.Info `json:"windows"`
	Count   int            `json:"count"`
}

// CaptureInput is the input for the screenshot_capture tool.
type CaptureInput struct {
	Window     string   `json:"window,omitempty" jsonschema:"Window name to capture (required). Case-insensitive; an exact title wins over a substring match. Examples: explorer, cluster, DevDash Gauges Explorer"`
	Scale      *float64 `json:"scale,omitempty" jsonschema:"Scale factor 0.3-1.0 (default: 0.5). Lower values reduce image size and context usage"`
	CropCenter *float64 `json:"crop_center,omitempty" jsonschema:"Keep only the central fraction 0.1-1.0 of the image before scaling, e.g. 0.4 keeps the center 40%"`
	CropLeft   *float64 `json:"crop_left,omitempty" jsonschema:"Keep only the leftmost fraction 0.1-1.0 of the width, applied before crop_center"`
}

// GaugePreviewInput is the input for the screenshot_gauge_preview tool.
type GaugePreviewInput struct {
	Window string `json:"window,omitempty" jsonschema:"Window name to capture (default: explorer)"`
}

// CaptureOutput describes a captured image. The PNG itself travels as image
// content. Error and Kind are set only on failure.
type CaptureOutput struct {
	WindowID         string   `json:"window_id,omitempty"`
	Title            string   `json:"title,omitempty"`
	MimeType         string   `json:"mime_type,omitempty"`
	Bytes            int      `json:"bytes,omitempty"`
	Strategy         string   `json:"strategy,omitempty"`
	Source           string   `json:"source,omitempty"`
	Error            string   `json:"error,omitempty"`
	Kind             string   `json:"kind,omitempty"`
	AvailableWindows []string `json:"available_windows,omitempty"`
}

// ExplorerStatusOutput is the output for the qml_explorer_status tool.
type ExplorerStatusOutput = explorer.Status

// NavigateInput is the input for the qml_explorer_navigate tool.
type NavigateInput struct {
	Page string `json:"page,omitempty" jsonschema:"Component page name (required): Welcome, GaugeArc, GaugeBezel, GaugeCenterCap, GaugeFace, GaugeTick, GaugeTickLabel, Bezel3D, CenterCap3D, DigitalReadout, GaugeNeedle, GaugeTickRing, GaugeValueArc, GaugeZoneArc, RollingDigitReadout, RadialGauge, RadialGauge3D"`
}

// GetPropertyInput is the input for the qml_explorer_get_property tool.
type GetPropertyInput struct {
	Name string `json:"name,omitempty" jsonschema:"Property name (required), e.g. tickShape, color, hasGlow"`
}

// SetPropertyInput is the input for the qml_explorer_set_property tool.
type SetPropertyInput struct {
	Name  string `json:"name,omitempty" jsonschema:"Property name (required), e.g. tickShape, color, hasGlow"`
	Value any    `json:"value,omitempty" jsonschema:"Value to set (required); string, number, boolean or color hex depending on the property"`
}

// TelemetryScreenshotInput is the input for the devdash_telemetry_screenshot tool.
type TelemetryScreenshotInput struct {
	Window string `json:"window,omitempty" jsonschema:"DevDash window name (required), e.g. cluster, headunit"`
}

// LogsInput is the input for the devdash_logs_get tool.
type LogsInput struct {
	Count    int    `json:"count,omitempty" jsonschema:"Number of log entries to retrieve, 1-1000 (default: 100)"`
	Level    string `json:"level,omitempty" jsonschema:"Minimum level: debug, info, warning or critical (default: info)"`
	Category string `json:"category,omitempty" jsonschema:"Filter by category, e.g. devdash.broker, devdash.adapter"`
}
