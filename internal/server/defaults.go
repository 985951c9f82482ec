package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/notexe/xcode-mcp/internal/report"
)

// defaultableKeys are the parameter names that may be remembered as
// session defaults. Anything else in a set_session_defaults call is
// rejected so a typo never silently pollutes later resolutions.
var defaultableKeys = map[string]struct{}{
	"projectPath":   {},
	"workspacePath": {},
	"scheme":        {},
	"configuration": {},
	"platform":      {},
	"simulatorName": {},
	"simulatorId":   {},
	"deviceId":      {},
}

func (s *Server) handleSetDefaults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	values := make(map[string]any, len(args))
	for k, v := range args {
		if _, ok := defaultableKeys[k]; !ok {
			return report.ErrorResponse("unknown session default: " + k).Render(), nil
		}
		if str, isStr := v.(string); isStr && str == "" {
			continue
		}
		values[k] = v
	}
	if len(values) == 0 {
		return report.ErrorResponse("no session defaults supplied").Render(), nil
	}

	s.store.Set(values)
	resp := report.NewResponse().Add("", "Session defaults updated")
	return resp.Render(), nil
}

func (s *Server) handleShowDefaults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defaults := s.store.Snapshot()
	if len(defaults) == 0 {
		return report.NewResponse().Add("", "No session defaults set").Render(), nil
	}
	return jsonResult(defaults), nil
}

func (s *Server) handleClearDefaults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.store.Clear()
	return report.NewResponse().Add("", "Session defaults cleared").Render(), nil
}
