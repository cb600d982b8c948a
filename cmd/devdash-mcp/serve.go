package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/1broseidon/devdash-mcp/internal/mcp"
)

func runServe(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stdout, "Usage: devdash-mcp serve")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Start the MCP server on stdio. Designed to be invoked by MCP clients.")
		fmt.Fprintln(os.Stdout, "Diagnostics are written to stderr.")
		return 0
	}
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "serve takes no arguments")
		return 2
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		logger.Error("failed to create MCP server", zap.Error(err))
		return 1
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server error", zap.Error(err))
		return 1
	}
	return 0
}
