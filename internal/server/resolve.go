package server

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/notexe/xcode-mcp/internal/destination"
	"github.com/notexe/xcode-mcp/internal/params"
	"github.com/notexe/xcode-mcp/internal/report"
	"github.com/notexe/xcode-mcp/internal/xcode"
)

// Shared schema fragments. Every build-oriented tool carries the project
// fields plus the destination fields; the rule sets express what each tool
// actually requires.
var (
	projectFields = []params.Field{
		{Name: "projectPath", Kind: params.String},
		{Name: "workspacePath", Kind: params.String},
		{Name: "scheme", Kind: params.String},
		{Name: "configuration", Kind: params.String},
		{Name: "derivedDataPath", Kind: params.String},
	}
	destFields = []params.Field{
		{Name: "platform", Kind: params.String},
		{Name: "simulatorName", Kind: params.String},
		{Name: "simulatorId", Kind: params.String},
		{Name: "deviceId", Kind: params.String},
		{Name: "useLatestOS", Kind: params.Bool},
	}

	buildSchema = params.NewSchema(append(append([]params.Field{}, projectFields...), destFields...)...)
	buildRules  = params.RuleSet{
		params.Require("scheme"),
		params.RequireOneOf("projectPath", "workspacePath"),
		params.MutuallyExclusive("projectPath", "workspacePath"),
		params.MutuallyExclusive("simulatorName", "simulatorId"),
	}

	simTargetFields = []params.Field{
		{Name: "simulatorName", Kind: params.String},
		{Name: "simulatorId", Kind: params.String},
	}
	simTargetRules = params.RuleSet{
		params.RequireOneOf("simulatorId", "simulatorName"),
		params.MutuallyExclusive("simulatorName", "simulatorId"),
	}
)

// resolve merges the request against session defaults and validates it.
// Validation failures are returned as rendered error results, never as Go
// errors: the calling agent reacts to the structured response.
func (s *Server) resolve(req mcp.CallToolRequest, schema params.Schema, rules params.RuleSet) (*params.Resolved, *mcp.CallToolResult) {
	rp, err := params.Resolve(schema, req.GetArguments(), s.store.Snapshot(), rules)
	if err != nil {
		return nil, report.ErrorResponse(err.Error()).Render()
	}
	return rp, nil
}

// destSpec builds the destination description from resolved parameters.
func destSpec(rp *params.Resolved) (destination.Spec, error) {
	platform, err := destination.ParsePlatform(rp.GetString("platform", "iOS Simulator"))
	if err != nil {
		return destination.Spec{}, err
	}
	return destination.Spec{
		Platform:      platform,
		SimulatorName: rp.GetString("simulatorName", ""),
		SimulatorID:   rp.GetString("simulatorId", ""),
		DeviceID:      rp.GetString("deviceId", ""),
		UseLatestOS:   rp.GetBool("useLatestOS", false),
	}, nil
}

// simulatorUDID resolves the target simulator to a UUID, looking the name
// up through simctl when no UUID was supplied.
func (s *Server) simulatorUDID(ctx context.Context, rp *params.Resolved) (string, error) {
	if udid := rp.GetString("simulatorId", ""); udid != "" {
		return udid, nil
	}
	return s.dest.UDIDForName(ctx, rp.GetString("simulatorName", ""))
}

func buildOptions(rp *params.Resolved, dest string) xcode.Options {
	return xcode.Options{
		ProjectPath:     rp.GetString("projectPath", ""),
		WorkspacePath:   rp.GetString("workspacePath", ""),
		Scheme:          rp.GetString("scheme", ""),
		Configuration:   rp.GetString("configuration", ""),
		Destination:     dest,
		DerivedDataPath: rp.GetString("derivedDataPath", ""),
	}
}

// errResult converts an exceptional condition (spawn failure, lookup
// failure, parse failure) into the structured error shape. Nothing
// propagates to the caller as an unhandled failure.
func errResult(err error) *mcp.CallToolResult {
	return report.ErrorResponse(err.Error()).Render()
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errResult(err)
	}
	return mcp.NewToolResultText(string(out))
}
