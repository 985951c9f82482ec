package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/notexe/xcode-mcp/internal/params"
	"github.com/notexe/xcode-mcp/internal/report"
)

func (s *Server) handleStartSimulatorCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rp, errRes := s.resolveBundleTool(req)
	if errRes != nil {
		return errRes, nil
	}

	udid, err := s.simulatorUDID(ctx, rp)
	if err != nil {
		return errResult(err), nil
	}

	sess, err := s.capture.StartSimulator(ctx, udid, rp.GetString("bundleId", ""))
	if err != nil {
		return errResult(err), nil
	}

	resp := report.NewResponse().
		Add("", fmt.Sprintf("Log capture started (session %s)", sess.ID)).
		Add("Log file", sess.FilePath)
	resp.Suggest("stop_log_capture", 1, map[string]any{"sessionId": sess.ID})
	return resp.Render(), nil
}

func (s *Server) handleStartDeviceCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema := params.NewSchema(
		params.Field{Name: "deviceId", Kind: params.String},
		params.Field{Name: "bundleId", Kind: params.String},
	)
	rules := params.RuleSet{params.Require("deviceId", "bundleId")}
	rp, errRes := s.resolve(req, schema, rules)
	if errRes != nil {
		return errRes, nil
	}

	sess, err := s.capture.StartDevice(ctx, rp.GetString("deviceId", ""), rp.GetString("bundleId", ""))
	if err != nil {
		return errResult(err), nil
	}

	resp := report.NewResponse().
		Add("", fmt.Sprintf("Device log capture started (session %s)", sess.ID)).
		Add("Log file", sess.FilePath)
	resp.Suggest("stop_log_capture", 1, map[string]any{"sessionId": sess.ID})
	return resp.Render(), nil
}

func (s *Server) handleStopCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema := params.NewSchema(params.Field{Name: "sessionId", Kind: params.String})
	rp, errRes := s.resolve(req, schema, params.RuleSet{params.Require("sessionId")})
	if errRes != nil {
		return errRes, nil
	}

	content, err := s.capture.Stop(rp.GetString("sessionId", ""))
	if err != nil {
		return errResult(err), nil
	}
	if content == "" {
		content = "(no output captured)"
	}
	return report.NewResponse().Add("Captured log", content).Render(), nil
}

func (s *Server) handleListCaptureSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type sessionInfo struct {
		ID       string `json:"id"`
		Kind     string `json:"kind"`
		TargetID string `json:"targetId"`
		BundleID string `json:"bundleId"`
		State    string `json:"state"`
		FilePath string `json:"filePath"`
	}
	sessions := s.capture.Active()
	infos := make([]sessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sessionInfo{
			ID:       sess.ID,
			Kind:     sess.Kind.String(),
			TargetID: sess.TargetID,
			BundleID: sess.BundleID,
			State:    sess.CurrentState().String(),
			FilePath: sess.FilePath,
		})
	}
	return jsonResult(infos), nil
}
