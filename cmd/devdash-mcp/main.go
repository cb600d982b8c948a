package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/1broseidon/devdash-mcp/internal/config"
	"github.com/1broseidon/devdash-mcp/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:], os.Stdout))
	case "capture":
		os.Exit(runCapture(os.Args[2:], os.Stdout))
	case "explorer-status":
		os.Exit(runExplorerStatus(os.Args[2:], os.Stdout))
	case "config":
		os.Exit(runConfig(os.Args[2:], os.Stdout))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: devdash-mcp <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve               Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "  windows             List on-screen windows")
	fmt.Fprintln(w, "  capture             Capture a window to a PNG file")
	fmt.Fprintln(w, "  explorer-status     Show QML Gauges Explorer status")
	fmt.Fprintln(w, "  config              Print the effective configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'devdash-mcp <command> --help' for command-specific options.")
}

// loadRuntime loads the configuration and builds the diagnostics logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
