package server

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/notexe/xcode-mcp/internal/params"
	"github.com/notexe/xcode-mcp/internal/report"
)

func (s *Server) handleBuild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rp, errRes := s.resolve(req, buildSchema, buildRules)
	if errRes != nil {
		return errRes, nil
	}

	spec, err := destSpec(rp)
	if err != nil {
		return errResult(err), nil
	}
	dest, err := s.dest.Resolve(ctx, spec)
	if err != nil {
		return errResult(err), nil
	}

	step, err := s.driver.Build(ctx, buildOptions(rp, dest))
	if err != nil {
		return errResult(err), nil
	}

	steps := []report.Step{step}
	outcome := report.Interpret("Build", steps)
	resp := report.BuildResponse(outcome, steps)
	if outcome.Success && spec.Platform.IsSimulator() {
		// Suggested parameters must round-trip through build_run's own
		// schema, so the destination travels as its resolved pieces.
		next := map[string]any{"scheme": rp.GetString("scheme", "")}
		if p := rp.GetString("projectPath", ""); p != "" {
			next["projectPath"] = p
		}
		if w := rp.GetString("workspacePath", ""); w != "" {
			next["workspacePath"] = w
		}
		if spec.SimulatorID != "" {
			next["simulatorId"] = spec.SimulatorID
		} else if spec.SimulatorName != "" {
			next["simulatorName"] = spec.SimulatorName
		}
		resp.Suggest("build_run", 1, next)
		resp.Suggest("test", 2, map[string]any{
			"scheme": rp.GetString("scheme", ""),
		})
	}
	return resp.Render(), nil
}

func (s *Server) handleBuildRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rp, errRes := s.resolve(req, buildSchema, append(params.RuleSet{
		params.RequireOneOf("simulatorId", "simulatorName"),
	}, buildRules...))
	if errRes != nil {
		return errRes, nil
	}

	spec, err := destSpec(rp)
	if err != nil {
		return errResult(err), nil
	}
	if !spec.Platform.IsSimulator() {
		return report.ErrorResponse("build_run targets simulators; use build plus devicectl for devices").Render(), nil
	}

	udid, err := s.simulatorUDID(ctx, rp)
	if err != nil {
		return errResult(err), nil
	}
	spec.SimulatorID = udid
	spec.SimulatorName = ""
	dest, err := s.dest.Resolve(ctx, spec)
	if err != nil {
		return errResult(err), nil
	}

	run, err := s.driver.BuildRun(ctx, buildOptions(rp, dest), udid)
	if err != nil {
		return errResult(err), nil
	}

	outcome := report.Interpret("Build & run", run.Steps)
	resp := report.BuildResponse(outcome, run.Steps)
	if outcome.Success {
		resp.Suggest("start_simulator_log_capture", 1, map[string]any{
			"simulatorId": udid,
			"bundleId":    run.BundleID,
		})
		resp.Suggest("stop_app", 2, map[string]any{
			"simulatorId": udid,
			"bundleId":    run.BundleID,
		})
	}
	return resp.Render(), nil
}

func (s *Server) handleTest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rp, errRes := s.resolve(req, buildSchema, buildRules)
	if errRes != nil {
		return errRes, nil
	}

	spec, err := destSpec(rp)
	if err != nil {
		return errResult(err), nil
	}
	dest, err := s.dest.Resolve(ctx, spec)
	if err != nil {
		return errResult(err), nil
	}

	step, err := s.driver.Test(ctx, buildOptions(rp, dest))
	if err != nil {
		return errResult(err), nil
	}

	steps := []report.Step{step}
	return report.BuildResponse(report.Interpret("Test", steps), steps).Render(), nil
}

func (s *Server) handleClean(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema := params.NewSchema(projectFields...)
	rules := params.RuleSet{
		params.RequireOneOf("projectPath", "workspacePath"),
		params.MutuallyExclusive("projectPath", "workspacePath"),
	}
	rp, errRes := s.resolve(req, schema, rules)
	if errRes != nil {
		return errRes, nil
	}

	step, err := s.driver.Clean(ctx, buildOptions(rp, ""))
	if err != nil {
		return errResult(err), nil
	}
	steps := []report.Step{step}
	return report.BuildResponse(report.Interpret("Clean", steps), steps).Render(), nil
}

func (s *Server) handleShowBuildSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rp, errRes := s.resolve(req, buildSchema, buildRules)
	if errRes != nil {
		return errRes, nil
	}

	spec, err := destSpec(rp)
	if err != nil {
		return errResult(err), nil
	}
	dest, err := s.dest.Resolve(ctx, spec)
	if err != nil {
		return errResult(err), nil
	}

	settings, step, err := s.driver.ShowBuildSettings(ctx, buildOptions(rp, dest))
	if err != nil {
		return errResult(err), nil
	}
	if !step.Success {
		return report.FailureResponse(step).Render(), nil
	}

	resp := report.NewResponse().Add("Build settings", formatSettings(settings))
	if bundleID := settings.BundleID(); bundleID != "" {
		resp.Suggest("launch_app", 1, map[string]any{"bundleId": bundleID})
	}
	return resp.Render(), nil
}

func formatSettings(settings map[string]string) string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	// Stable output so agents can diff runs.
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(" = ")
		b.WriteString(settings[k])
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Server) handleListSchemes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema := params.NewSchema(
		params.Field{Name: "projectPath", Kind: params.String},
		params.Field{Name: "workspacePath", Kind: params.String},
	)
	rules := params.RuleSet{
		params.RequireOneOf("projectPath", "workspacePath"),
		params.MutuallyExclusive("projectPath", "workspacePath"),
	}
	rp, errRes := s.resolve(req, schema, rules)
	if errRes != nil {
		return errRes, nil
	}

	schemes, step, err := s.driver.ListSchemes(ctx, buildOptions(rp, ""))
	if err != nil {
		return errResult(err), nil
	}
	if !step.Success {
		return report.FailureResponse(step).Render(), nil
	}
	return jsonResult(schemes), nil
}
