package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/notexe/xcode-mcp/internal/params"
	"github.com/notexe/xcode-mcp/internal/report"
)

func (s *Server) handleListSimulators(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sims, err := s.dest.ListSimulators(ctx)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(sims), nil
}

func (s *Server) handleBootSimulator(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rp, errRes := s.resolve(req, params.NewSchema(simTargetFields...), simTargetRules)
	if errRes != nil {
		return errRes, nil
	}

	udid, err := s.simulatorUDID(ctx, rp)
	if err != nil {
		return errResult(err), nil
	}

	step, err := s.driver.Boot(ctx, udid)
	if err != nil {
		return errResult(err), nil
	}
	if !step.Success {
		return report.FailureResponse(step).Render(), nil
	}

	resp := report.NewResponse().Add("", fmt.Sprintf("Simulator %s booted", udid))
	resp.Suggest("open_simulator", 1, nil)
	resp.Suggest("install_app", 2, map[string]any{"simulatorId": udid})
	return resp.Render(), nil
}

func (s *Server) handleOpenSimulator(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	step, err := s.driver.OpenSimulatorApp(ctx)
	if err != nil {
		return errResult(err), nil
	}
	if !step.Success {
		return report.FailureResponse(step).Render(), nil
	}
	return report.NewResponse().Add("", "Simulator app opened").Render(), nil
}

func (s *Server) handleScreenshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema := params.NewSchema(append(append([]params.Field{}, simTargetFields...),
		params.Field{Name: "outputPath", Kind: params.String})...)
	rp, errRes := s.resolve(req, schema, simTargetRules)
	if errRes != nil {
		return errRes, nil
	}

	udid, err := s.simulatorUDID(ctx, rp)
	if err != nil {
		return errResult(err), nil
	}

	path := rp.GetString("outputPath", "")
	if path == "" {
		path = filepath.Join(os.TempDir(), fmt.Sprintf("simulator_screenshot_%s.png", time.Now().Format("20060102_150405")))
	}

	step, err := s.driver.Screenshot(ctx, udid, path)
	if err != nil {
		return errResult(err), nil
	}
	if !step.Success {
		return report.FailureResponse(step).Render(), nil
	}
	return report.NewResponse().Add("", "Screenshot saved to: "+path).Render(), nil
}

func (s *Server) handleInstallApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema := params.NewSchema(append(append([]params.Field{}, simTargetFields...),
		params.Field{Name: "appPath", Kind: params.String})...)
	rules := append(params.RuleSet{params.Require("appPath")}, simTargetRules...)
	rp, errRes := s.resolve(req, schema, rules)
	if errRes != nil {
		return errRes, nil
	}

	udid, err := s.simulatorUDID(ctx, rp)
	if err != nil {
		return errResult(err), nil
	}

	step, err := s.driver.Install(ctx, udid, rp.GetString("appPath", ""))
	if err != nil {
		return errResult(err), nil
	}
	if !step.Success {
		return report.FailureResponse(step).Render(), nil
	}

	resp := report.NewResponse().Add("", "App installed from: "+rp.GetString("appPath", ""))
	resp.Suggest("launch_app", 1, map[string]any{"simulatorId": udid})
	return resp.Render(), nil
}

func (s *Server) handleLaunchApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rp, errRes := s.resolveBundleTool(req)
	if errRes != nil {
		return errRes, nil
	}

	udid, err := s.simulatorUDID(ctx, rp)
	if err != nil {
		return errResult(err), nil
	}
	bundleID := rp.GetString("bundleId", "")

	step, err := s.driver.Launch(ctx, udid, bundleID)
	if err != nil {
		return errResult(err), nil
	}
	if !step.Success {
		return report.FailureResponse(step).Render(), nil
	}

	resp := report.NewResponse().Add("", fmt.Sprintf("App %s launched", bundleID))
	resp.Suggest("start_simulator_log_capture", 1, map[string]any{
		"simulatorId": udid,
		"bundleId":    bundleID,
	})
	return resp.Render(), nil
}

func (s *Server) handleStopApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rp, errRes := s.resolveBundleTool(req)
	if errRes != nil {
		return errRes, nil
	}

	udid, err := s.simulatorUDID(ctx, rp)
	if err != nil {
		return errResult(err), nil
	}
	bundleID := rp.GetString("bundleId", "")

	step, err := s.driver.Terminate(ctx, udid, bundleID)
	if err != nil {
		return errResult(err), nil
	}
	if !step.Success {
		return report.FailureResponse(step).Render(), nil
	}
	return report.NewResponse().Add("", fmt.Sprintf("App %s stopped", bundleID)).Render(), nil
}

// resolveBundleTool covers the launch/stop shape: a simulator target plus
// a required bundle identifier.
func (s *Server) resolveBundleTool(req mcp.CallToolRequest) (*params.Resolved, *mcp.CallToolResult) {
	schema := params.NewSchema(append(append([]params.Field{}, simTargetFields...),
		params.Field{Name: "bundleId", Kind: params.String})...)
	rules := append(params.RuleSet{params.Require("bundleId")}, simTargetRules...)
	return s.resolve(req, schema, rules)
}

func (s *Server) handleListDevices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devs, err := s.devices.List(ctx)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(devs), nil
}
