package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/devdash-mcp/internal/actionlog"
	"github.com/1broseidon/devdash-mcp/internal/capture"
	"github.com/1broseidon/devdash-mcp/internal/fault"
	"github.com/1broseidon/devdash-mcp/internal/telemetry"
	"github.com/1broseidon/devdash-mcp/internal/windows"
)

const (
	defaultScale         = 0.5
	minScale             = 0.3
	minCrop              = 0.1
	defaultPreviewWindow = "explorer"
	pngMIME              = "image/png"
)

func (s *Server) handleListWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	all := s.deps.Windows.List(ctx)
	list := all
	if !args.All {
		list = windows.FilterByKeywords(all, s.config.Windows.Keywords)
	}
	s.actions.Record(actionlog.ActionListWindows, "screenshot_list_windows", map[string]any{
		"all":   args.All,
		"total": len(all),
		"count": len(list),
	})
	return nil, ListWindowsOutput{Windows: list, Count: len(list)}, nil
}

// captureOptions applies the tool defaults and clamps.
func captureOptions(args CaptureInput) capture.Options {
	opts := capture.Options{Scale: defaultScale}
	if args.Scale != nil {
		opts.Scale = *args.Scale
	}
	opts.Scale = capture.Clamp(opts.Scale, minScale, 1.0)
	if args.CropCenter != nil {
		opts.CropCenter = capture.Float(capture.Clamp(*args.CropCenter, minCrop, 1.0))
	}
	if args.CropLeft != nil {
		opts.CropLeft = capture.Float(capture.Clamp(*args.CropLeft, minCrop, 1.0))
	}
	return opts
}

func (s *Server) handleCapture(ctx context.Context, _ *mcpsdk.CallToolRequest, args CaptureInput) (*mcpsdk.CallToolResult, CaptureOutput, error) {
	window := strings.TrimSpace(args.Window)
	if window == "" {
		return s.captureFailure(ctx, "screenshot_capture", fault.New(fault.InvalidInput, "window is required"))
	}
	return s.captureWindow(ctx, "screenshot_capture", capture.Request{Window: window, Options: captureOptions(args)})
}

func (s *Server) handleGaugePreview(ctx context.Context, _ *mcpsdk.CallToolRequest, args GaugePreviewInput) (*mcpsdk.CallToolResult, CaptureOutput, error) {
	window := strings.TrimSpace(args.Window)
	if window == "" {
		window = defaultPreviewWindow
	}
	return s.captureWindow(ctx, "screenshot_gauge_preview", capture.Request{Window: window, Options: capture.PreviewOptions()})
}

func (s *Server) captureWindow(ctx context.Context, tool string, req capture.Request) (*mcpsdk.CallToolResult, CaptureOutput, error) {
	res, err := s.deps.Capture.CaptureWindow(ctx, req)
	if err != nil {
		return s.captureFailure(ctx, tool, err)
	}

	out := CaptureOutput{
		WindowID: res.WindowID,
		Title:    res.Title,
		MimeType: pngMIME,
		Bytes:    len(res.PNG),
		Strategy: res.Strategy,
	}
	details := map[string]any{
		"window":    req.Window,
		"window_id": res.WindowID,
		"strategy":  res.Strategy,
		"bytes":     len(res.PNG),
		"scale":     req.Options.Scale,
	}
	if req.Options.CropLeft != nil {
		details["crop_left"] = *req.Options.CropLeft
	}
	if req.Options.CropCenter != nil {
		details["crop_center"] = *req.Options.CropCenter
	}
	s.actions.Record(actionlog.ActionCapture, tool, details)
	return imageResult(res.PNG, fmt.Sprintf("Captured %q (%s) via %s, %d bytes", res.Title, res.WindowID, res.Strategy, len(res.PNG))), out, nil
}

func (s *Server) captureFailure(ctx context.Context, tool string, err error) (*mcpsdk.CallToolResult, CaptureOutput, error) {
	f := s.failure(tool, err)
	out := CaptureOutput{Error: f.Error, Kind: f.Kind}
	if fault.Is(err, fault.NotFound) {
		out.AvailableWindows = s.availableWindows(ctx)
	}
	return errorResult(), out, nil
}

func imageResult(png []byte, summary string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.ImageContent{Data: png, MIMEType: pngMIME},
			&mcpsdk.TextContent{Text: summary},
		},
	}
}

func (s *Server) handleExplorerStatus(ctx context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ExplorerStatusOutput, error) {
	st := s.deps.Explorer.Status(ctx)
	s.actions.Record(actionlog.ActionExplorer, "qml_explorer_status", map[string]any{
		"running":             st.Running,
		"websocket_connected": st.WebSocketConnected,
	})
	return nil, st, nil
}

// explorerCall runs one explorer request and shapes its outcome.
func (s *Server) explorerCall(tool string, action actionlog.Action, details map[string]any, reply any, err error) (*mcpsdk.CallToolResult, any, error) {
	if err != nil {
		return s.fail(tool, err)
	}
	s.actions.Record(action, tool, details)
	return passThrough(reply)
}

func (s *Server) handleExplorerGetState(ctx context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	reply, err := s.deps.Explorer.GetState(ctx)
	return s.explorerCall("qml_explorer_get_state", actionlog.ActionExplorer, nil, reply, err)
}

func (s *Server) handleExplorerNavigate(ctx context.Context, _ *mcpsdk.CallToolRequest, args NavigateInput) (*mcpsdk.CallToolResult, any, error) {
	reply, err := s.deps.Explorer.Navigate(ctx, args.Page)
	return s.explorerCall("qml_explorer_navigate", actionlog.ActionNavigate, map[string]any{"page": args.Page}, reply, err)
}

func (s *Server) handleExplorerGetProperty(ctx context.Context, _ *mcpsdk.CallToolRequest, args GetPropertyInput) (*mcpsdk.CallToolResult, any, error) {
	if strings.TrimSpace(args.Name) == "" {
		return s.fail("qml_explorer_get_property", fault.New(fault.InvalidInput, "name is required"))
	}
	reply, err := s.deps.Explorer.GetProperty(ctx, args.Name)
	return s.explorerCall("qml_explorer_get_property", actionlog.ActionExplorer, map[string]any{"name": args.Name}, reply, err)
}

func (s *Server) handleExplorerSetProperty(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetPropertyInput) (*mcpsdk.CallToolResult, any, error) {
	const tool = "qml_explorer_set_property"
	if strings.TrimSpace(args.Name) == "" {
		return s.fail(tool, fault.New(fault.InvalidInput, "name is required"))
	}
	if args.Value == nil {
		return s.fail(tool, fault.New(fault.InvalidInput, "value is required"))
	}
	reply, err := s.deps.Explorer.SetProperty(ctx, args.Name, args.Value)
	return s.explorerCall(tool, actionlog.ActionSetProperty, map[string]any{"name": args.Name, "value": args.Value}, reply, err)
}

func (s *Server) handleExplorerListProperties(ctx context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	reply, err := s.deps.Explorer.ListProperties(ctx)
	return s.explorerCall("qml_explorer_list_properties", actionlog.ActionExplorer, nil, reply, err)
}

// telemetryCall shapes a DevTools response.
func (s *Server) telemetryCall(tool string, action actionlog.Action, details map[string]any, body any, err error) (*mcpsdk.CallToolResult, any, error) {
	if err != nil {
		return s.fail(tool, err)
	}
	s.actions.Record(action, tool, details)
	return passThrough(body)
}

func (s *Server) handleTelemetryState(ctx context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	body, err := s.deps.Telemetry.State(ctx)
	return s.telemetryCall("devdash_telemetry_get_state", actionlog.ActionTelemetry, nil, body, err)
}

func (s *Server) handleTelemetryWarnings(ctx context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	body, err := s.deps.Telemetry.Warnings(ctx)
	return s.telemetryCall("devdash_telemetry_get_warnings", actionlog.ActionTelemetry, nil, body, err)
}

func (s *Server) handleTelemetryWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	body, err := s.deps.Telemetry.Windows(ctx)
	return s.telemetryCall("devdash_telemetry_list_windows", actionlog.ActionTelemetry, nil, body, err)
}

func (s *Server) handleTelemetryScreenshot(ctx context.Context, _ *mcpsdk.CallToolRequest, args TelemetryScreenshotInput) (*mcpsdk.CallToolResult, CaptureOutput, error) {
	const tool = "devdash_telemetry_screenshot"
	window := strings.TrimSpace(args.Window)
	if window == "" {
		return s.captureFailure(ctx, tool, fault.New(fault.InvalidInput, "window is required"))
	}
	png, err := s.deps.Telemetry.Screenshot(ctx, window)
	if err != nil {
		f := s.failure(tool, err)
		return errorResult(), CaptureOutput{Error: f.Error, Kind: f.Kind}, nil
	}
	s.actions.Record(actionlog.ActionCapture, tool, map[string]any{"window": window, "bytes": len(png)})
	out := CaptureOutput{MimeType: pngMIME, Bytes: len(png), Source: "devtools"}
	return imageResult(png, fmt.Sprintf("DevTools screenshot of %q, %d bytes", window, len(png))), out, nil
}

func (s *Server) handleLogsGet(ctx context.Context, _ *mcpsdk.CallToolRequest, args LogsInput) (*mcpsdk.CallToolResult, any, error) {
	const tool = "devdash_logs_get"
	q, err := telemetry.LogQuery{Count: args.Count, Level: args.Level, Category: args.Category}.Normalize()
	if err != nil {
		return s.fail(tool, err)
	}
	body, err := s.deps.Telemetry.Logs(ctx, q)
	if err != nil {
		return s.fail(tool, err)
	}
	s.logger.Debug("fetched logs", zap.Int("count", q.Count), zap.String("level", q.Level))
	s.actions.Record(actionlog.ActionLogs, tool, map[string]any{
		"count":    q.Count,
		"level":    q.Level,
		"category": q.Category,
	})
	return passThrough(body)
}
