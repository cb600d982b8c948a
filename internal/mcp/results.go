package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/devdash-mcp/internal/actionlog"
	"github.com/1broseidon/devdash-mcp/internal/fault"
	"github.com/1broseidon/devdash-mcp/internal/windows"
)

// errorResult marks a call as failed; the SDK fills the text content from
// the structured output.
func errorResult() *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{IsError: true}
}

// fail shapes err into a Failure, records it and logs it.
func (s *Server) fail(tool string, err error) (*mcpsdk.CallToolResult, any, error) {
	f := s.failure(tool, err)
	return errorResult(), f, nil
}

func (s *Server) failure(tool string, err error) Failure {
	kind := fault.KindOf(err)
	f := Failure{Error: err.Error(), Kind: string(kind)}

	s.logger.Debug("tool call failed",
		zap.String("tool", tool),
		zap.String("kind", string(kind)),
		zap.Error(err))
	s.actions.Record(actionlog.ActionFailure, tool, map[string]any{
		"kind":  string(kind),
		"error": err.Error(),
	})
	return f
}

// availableWindows lists keyword-matching titles for not-found hints.
func (s *Server) availableWindows(ctx context.Context) []string {
	if s.deps.Windows == nil {
		return []string{}
	}
	return windows.Titles(windows.FilterByKeywords(s.deps.Windows.List(ctx), s.config.Windows.Keywords))
}

// passThrough returns a peer reply as structured output. Objects go out
// verbatim; any other JSON value is wrapped as {"result": value}.
func passThrough(body any) (*mcpsdk.CallToolResult, any, error) {
	if obj, ok := body.(map[string]any); ok {
		return nil, obj, nil
	}
	return nil, map[string]any{"result": body}, nil
}
