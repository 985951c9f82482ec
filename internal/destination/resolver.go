package destination

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/notexe/xcode-mcp/internal/command"
)

// Simulator is one descriptor from the simctl device listing.
type Simulator struct {
	Name        string `json:"name"`
	UDID        string `json:"udid"`
	State       string `json:"state"`
	IsAvailable bool   `json:"isAvailable"`
	RuntimeID   string `json:"-"`
}

// simctlList is the shape of `xcrun simctl list devices -j`: a devices
// field mapping runtime identifiers to descriptor arrays.
type simctlList struct {
	Devices map[string][]Simulator `json:"devices"`
}

// SimulatorNotFoundError reports a simulator name with no exact match in
// the available listing. Resolution never falls back to another simulator.
type SimulatorNotFoundError struct {
	Name string
}

func (e *SimulatorNotFoundError) Error() string {
	return fmt.Sprintf("simulator named %q not found", e.Name)
}

// SimulatorListError reports that the listing command itself failed; the
// underlying output is surfaced verbatim.
type SimulatorListError struct {
	Output string
}

func (e *SimulatorListError) Error() string {
	return fmt.Sprintf("failed to list simulators: %s", e.Output)
}

// Resolver turns a Spec into a destination string, querying simctl through
// the injected runner when a simulator name needs a UUID.
type Resolver struct {
	runner command.Runner
}

func NewResolver(runner command.Runner) *Resolver {
	return &Resolver{runner: runner}
}

// Resolve produces the xcodebuild destination string for the spec.
//
// Device platforms address the device identifier directly with no lookup.
// Simulator platforms prefer an already-known UUID; a bare name is resolved
// to a UUID via the simulator listing unless UseLatestOS is set, in which
// case the name form with OS=latest is emitted and xcodebuild picks the
// runtime itself.
func (r *Resolver) Resolve(ctx context.Context, spec Spec) (string, error) {
	switch {
	case spec.Platform == MacOS:
		return "platform=macOS", nil

	case spec.Platform.IsSimulator():
		if spec.SimulatorID != "" {
			return fmt.Sprintf("platform=%s,id=%s", spec.Platform, spec.SimulatorID), nil
		}
		if spec.SimulatorName == "" {
			return "", fmt.Errorf("simulator platform %s needs a simulator name or id", spec.Platform)
		}
		if spec.UseLatestOS {
			return fmt.Sprintf("platform=%s,name=%s,OS=latest", spec.Platform, spec.SimulatorName), nil
		}
		udid, err := r.UDIDForName(ctx, spec.SimulatorName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("platform=%s,id=%s", spec.Platform, udid), nil

	default:
		if spec.DeviceID == "" {
			return "", fmt.Errorf("device platform %s needs a device id", spec.Platform)
		}
		return fmt.Sprintf("platform=%s,id=%s", spec.Platform, spec.DeviceID), nil
	}
}

// ListSimulators returns all simulators from every runtime, flattened.
func (r *Resolver) ListSimulators(ctx context.Context) ([]Simulator, error) {
	res, err := r.runner.Run(ctx, command.Invocation{
		Args:  []string{"xcrun", "simctl", "list", "devices", "-j"},
		Label: "simctl list devices",
	})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &SimulatorListError{Output: strings.TrimSpace(res.Stderr)}
	}

	var listing simctlList
	if err := json.Unmarshal([]byte(res.Stdout), &listing); err != nil {
		return nil, fmt.Errorf("failed to parse simulator listing: %w", err)
	}

	runtimes := make([]string, 0, len(listing.Devices))
	for runtime := range listing.Devices {
		runtimes = append(runtimes, runtime)
	}
	sort.Strings(runtimes)

	var sims []Simulator
	for _, runtime := range runtimes {
		for _, d := range listing.Devices[runtime] {
			d.RuntimeID = runtime
			sims = append(sims, d)
		}
	}
	return sims, nil
}

// UDIDForName selects the first descriptor whose name matches exactly.
// No fuzzy matching, and no silent fallback to another simulator.
func (r *Resolver) UDIDForName(ctx context.Context, name string) (string, error) {
	sims, err := r.ListSimulators(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range sims {
		if s.Name == name {
			return s.UDID, nil
		}
	}
	return "", &SimulatorNotFoundError{Name: name}
}
