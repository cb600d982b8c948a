package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/devdash-mcp/internal/actionlog"
	"github.com/1broseidon/devdash-mcp/internal/capture"
	"github.com/1broseidon/devdash-mcp/internal/command"
	"github.com/1broseidon/devdash-mcp/internal/config"
	"github.com/1broseidon/devdash-mcp/internal/explorer"
	"github.com/1broseidon/devdash-mcp/internal/telemetry"
	"github.com/1broseidon/devdash-mcp/internal/windows"
)

const (
	ServerName    = "devdash"
	ServerVersion = "0.1.0"
)

// WindowLister enumerates on-screen windows.
type WindowLister interface {
	List(ctx context.Context) []windows.Info
}

// Capturer captures a window by fuzzy name.
type Capturer interface {
	CaptureWindow(ctx context.Context, req capture.Request) (*capture.Result, error)
}

// Explorer is the gauge explorer bridge.
type Explorer interface {
	URL() string
	Status(ctx context.Context) explorer.Status
	GetState(ctx context.Context) (any, error)
	Navigate(ctx context.Context, page string) (any, error)
	GetProperty(ctx context.Context, name string) (any, error)
	SetProperty(ctx context.Context, name string, value any) (any, error)
	ListProperties(ctx context.Context) (any, error)
}

// Telemetry is the DevTools API bridge.
type Telemetry interface {
	BaseURL() string
	State(ctx context.Context) (any, error)
	Warnings(ctx context.Context) (any, error)
	Windows(ctx context.Context) (any, error)
	Screenshot(ctx context.Context, window string) ([]byte, error)
	Logs(ctx context.Context, q telemetry.LogQuery) (any, error)
}

// Deps are the components the tools delegate to.
type Deps struct {
	Windows   WindowLister
	Capture   Capturer
	Explorer  Explorer
	Telemetry Telemetry
	Actions   *actionlog.Logger
	Logger    *zap.Logger
}

// BuildDeps constructs the real components described by cfg.
func BuildDeps(cfg *config.Config, logger *zap.Logger) (Deps, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	session := command.X11Session{Display: cfg.Display, XAuthority: cfg.XAuthority}
	runner := command.NewExec(session, cfg.Capture.CommandTimeout())

	sources := make([]windows.Source, 0, len(cfg.Windows.Sources))
	for _, name := range cfg.Windows.Sources {
		switch name {
		case config.SourceWmctrl:
			sources = append(sources, &windows.WmctrlSource{Runner: runner})
		case config.SourceXwininfo:
			sources = append(sources, &windows.XwininfoSource{Runner: runner, MinSize: cfg.Windows.MinFallbackSize})
		case config.SourceEWMH:
			sources = append(sources, &windows.EWMHSource{Session: session})
		default:
			return Deps{}, fmt.Errorf("unknown window source %q", name)
		}
	}
	dir := windows.NewDirectory(logger.Named("windows"), sources...)

	pipeline, err := capture.New(cfg, runner, session, windows.NewResolver(dir), logger.Named("capture"))
	if err != nil {
		return Deps{}, err
	}

	return Deps{
		Windows:   dir,
		Capture:   pipeline,
		Explorer:  explorer.New(cfg.Explorer, explorer.WithLogger(logger.Named("explorer"))),
		Telemetry: telemetry.New(cfg.DevTools, logger.Named("telemetry")),
		Logger:    logger,
	}, nil
}

// Server is the MCP server bridging DevDash tooling.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	deps      Deps
	logger    *zap.Logger
	actions   *actionlog.Logger
}

// NewServer creates a server with real components and the action log
// configured in cfg.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	deps, err := BuildDeps(cfg, logger)
	if err != nil {
		return nil, err
	}
	if opts := actionlog.OptionsFromConfig(cfg); opts.Enabled {
		actions, err := actionlog.New(opts)
		if err != nil {
			deps.Logger.Warn("failed to initialize action log", zap.Error(err))
		} else {
			deps.Actions = actions
		}
	}
	return NewServerWithDeps(cfg, deps), nil
}

// NewServerWithDeps creates a server over the given components.
func NewServerWithDeps(cfg *config.Config, deps Deps) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Server{
		config:  cfg,
		deps:    deps,
		logger:  deps.Logger,
		actions: deps.Actions,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		&mcpsdk.ServerOptions{
			Instructions: "Tools for DevDash development: drive the QML gauge explorer, read DevDash telemetry and logs, and capture window screenshots. Read devdash://info for endpoints.",
		},
	)
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP on stdio, blocking until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("devdash MCP server starting",
		zap.String("explorer", s.deps.Explorer.URL()),
		zap.String("devtools", s.deps.Telemetry.BaseURL()))
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer exposes the underlying SDK server, e.g. to connect other
// transports.
func (s *Server) MCPServer() *mcpsdk.Server { return s.mcpServer }

// Close releases server resources.
func (s *Server) Close() error {
	if s == nil || s.actions == nil {
		return nil
	}
	return s.actions.Close()
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "screenshot_list_windows",
		Description: "List on-screen windows available for screenshot capture. By default only DevDash-related windows (titles containing gauge, explorer, devdash, qml, cluster or headunit) are returned; set all to list everything.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "screenshot_capture",
		Description: "Capture a PNG screenshot of a window found by name (exact title first, then substring, case-insensitive). Optional crop_left, crop_center and scale reduce the image; scale defaults to 0.5.",
	}, s.handleCapture)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "screenshot_gauge_preview",
		Description: "Capture a compact screenshot of the explorer's gauge preview: keeps the left 60% (preview pane), then its central 80%, then scales to 50%. This is the primary tool for verifying gauge visuals.",
	}, s.handleGaugePreview)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "qml_explorer_status",
		Description: "Check whether the QML Gauges Explorer is running: process IDs and whether its WebSocket server answers.",
	}, s.handleExplorerStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "qml_explorer_get_state",
		Description: "Get the current state of the QML Gauges Explorer: current page, available properties and their values.",
	}, s.handleExplorerGetState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "qml_explorer_navigate",
		Description: "Navigate the QML Gauges Explorer to a component page.",
	}, s.handleExplorerNavigate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "qml_explorer_get_property",
		Description: "Get the current value of a property on the explorer's current component.",
	}, s.handleExplorerGetProperty)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "qml_explorer_set_property",
		Description: "Set a property value on the explorer's current component.",
	}, s.handleExplorerSetProperty)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "qml_explorer_list_properties",
		Description: "List all properties of the explorer's current component page with type, range, default value and description.",
	}, s.handleExplorerListProperties)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "devdash_telemetry_get_state",
		Description: "Get current telemetry from DevDash (RPM, speed, temperatures, pressures and other sensor values). Requires DevDash running with DevTools enabled.",
	}, s.handleTelemetryState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "devdash_telemetry_get_warnings",
		Description: "Get active warnings and critical alerts from DevDash.",
	}, s.handleTelemetryWarnings)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "devdash_telemetry_list_windows",
		Description: "List DevDash windows as reported by the DevTools API, which may differ from X11 window detection.",
	}, s.handleTelemetryWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "devdash_telemetry_screenshot",
		Description: "Capture a screenshot rendered by DevDash itself through the DevTools API.",
	}, s.handleTelemetryScreenshot)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "devdash_logs_get",
		Description: "Retrieve recent entries from DevDash's internal log buffer, filtered by minimum level and optional category.",
	}, s.handleLogsGet)
}
