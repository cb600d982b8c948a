package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/devdash-mcp/internal/config"
)

const infoURI = "devdash://info"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcpsdk.Resource{
		URI:         infoURI,
		Name:        "devdash-info",
		Description: "DevDash MCP server endpoints, tool categories and environment variables",
		MIMEType:    "text/plain",
	}, s.handleInfo)
}

func (s *Server) handleInfo(_ context.Context, _ *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{{
			URI:      infoURI,
			MIMEType: "text/plain",
			Text:     s.infoText(),
		}},
	}, nil
}

func (s *Server) infoText() string {
	var b strings.Builder
	b.WriteString("DevDash MCP Server\n\n")
	b.WriteString("Configuration:\n")
	fmt.Fprintf(&b, "  Explorer WebSocket: %s\n", s.config.Explorer.URL())
	fmt.Fprintf(&b, "  DevTools HTTP API: %s\n", s.config.DevTools.BaseURL())
	fmt.Fprintf(&b, "  Window sources: %s\n", strings.Join(s.config.Windows.Sources, ", "))
	fmt.Fprintf(&b, "  Capture strategies: %s (transformer: %s)\n\n",
		strings.Join(s.config.Capture.Strategies, ", "), s.config.Capture.Transformer)

	b.WriteString(`Available tool categories:

qml-gauges repo (QML Gauges Explorer via WebSocket):
  - qml_explorer_status: Check process and WebSocket liveness
  - qml_explorer_get_state: Get current page and property values
  - qml_explorer_navigate: Navigate to a component page
  - qml_explorer_get_property: Get a property value
  - qml_explorer_set_property: Set a property value
  - qml_explorer_list_properties: List available properties with metadata

devdash repo (DevDash runtime via HTTP API):
  - devdash_telemetry_get_state: Get current vehicle telemetry
  - devdash_telemetry_get_warnings: Get active warnings
  - devdash_telemetry_list_windows: List DevDash windows
  - devdash_telemetry_screenshot: Capture via DevTools API
  - devdash_logs_get: Retrieve logs with filtering

System (X11 window capture, works with any window):
  - screenshot_list_windows: List available windows
  - screenshot_capture: Capture window as PNG
  - screenshot_gauge_preview: Compact capture of the explorer's gauge preview

Environment Variables:
`)
	for _, env := range []struct{ name, desc string }{
		{config.EnvExplorerPort, "Explorer WebSocket port (default: 9876)"},
		{config.EnvExplorerHost, "Explorer WebSocket host (default: localhost)"},
		{config.EnvDevToolsPort, "DevTools HTTP port (default: 18080)"},
		{config.EnvDevToolsHost, "DevTools HTTP host (default: 127.0.0.1)"},
		{config.EnvLogLevel, "Diagnostics level: debug, info, warn, error (default: info)"},
		{config.EnvConfigPath, "Config file path (default: ~/.config/devdash-mcp/config.yaml)"},
	} {
		fmt.Fprintf(&b, "  %s: %s\n", env.name, env.desc)
	}
	return b.String()
}
