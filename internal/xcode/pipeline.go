package xcode

import (
	"context"
	"strings"

	"github.com/notexe/xcode-mcp/internal/report"
)

// RunResult is the accumulated outcome of a build/install/launch sequence.
// Steps holds every stage that was actually attempted, in order; a later
// stage is only attempted once every earlier required stage succeeded.
type RunResult struct {
	Steps    []report.Step
	AppPath  string
	BundleID string
}

// Failed reports whether any attempted step failed.
func (r *RunResult) Failed() bool {
	for _, s := range r.Steps {
		if !s.Success {
			return true
		}
	}
	return false
}

// BuildRun builds the scheme, extracts the app path and bundle identifier
// from build settings, installs the bundle on the simulator and launches
// it. Each stage is awaited before the next is issued; the first failure
// stops the sequence.
func (d *Driver) BuildRun(ctx context.Context, opts Options, simulatorUDID string) (*RunResult, error) {
	result := &RunResult{}

	step, err := d.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, step)
	if !step.Success {
		return result, nil
	}

	settings, step, err := d.ShowBuildSettings(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, step)
	if !step.Success {
		return result, nil
	}

	// A successful settings step can still lack the identifiers the next
	// stages need; that is its own named failure, never a nil propagated
	// downstream.
	result.AppPath = settings.AppPath()
	result.BundleID = settings.BundleID()
	if result.AppPath == "" {
		result.Steps = append(result.Steps, report.Step{
			Name:   "extract app path",
			Stderr: "could not extract app path from build settings",
		})
		return result, nil
	}
	if result.BundleID == "" {
		result.Steps = append(result.Steps, report.Step{
			Name:   "extract bundle identifier",
			Stderr: "could not extract bundle identifier from build settings",
		})
		return result, nil
	}

	step, err = d.Install(ctx, simulatorUDID, result.AppPath)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, step)
	if !step.Success {
		return result, nil
	}

	step, err = d.Launch(ctx, simulatorUDID, result.BundleID)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, step)
	return result, nil
}

// Install installs an app bundle on a simulator.
func (d *Driver) Install(ctx context.Context, udid, appPath string) (report.Step, error) {
	return d.simctl(ctx, "install app", "install", udid, appPath)
}

// Launch launches an app on a simulator.
func (d *Driver) Launch(ctx context.Context, udid, bundleID string) (report.Step, error) {
	return d.simctl(ctx, "launch app", "launch", udid, bundleID)
}

// Terminate stops a running app on a simulator.
func (d *Driver) Terminate(ctx context.Context, udid, bundleID string) (report.Step, error) {
	return d.simctl(ctx, "stop app", "terminate", udid, bundleID)
}

// Boot boots a simulator. An already-booted simulator is not a failure.
func (d *Driver) Boot(ctx context.Context, udid string) (report.Step, error) {
	step, err := d.simctl(ctx, "boot simulator", "boot", udid)
	if err != nil {
		return step, err
	}
	if !step.Success && strings.Contains(step.Stderr, "current state: Booted") {
		step.Success = true
		step.Stderr = ""
	}
	return step, nil
}

// Screenshot captures the simulator screen to path.
func (d *Driver) Screenshot(ctx context.Context, udid, path string) (report.Step, error) {
	return d.simctl(ctx, "screenshot", "io", udid, "screenshot", path)
}

// OpenSimulatorApp brings up the Simulator UI.
func (d *Driver) OpenSimulatorApp(ctx context.Context) (report.Step, error) {
	return d.run(ctx, "open simulator", []string{"open", "-a", "Simulator"})
}

func (d *Driver) simctl(ctx context.Context, name string, args ...string) (report.Step, error) {
	argv := append([]string{"xcrun", "simctl"}, args...)
	return d.run(ctx, name, argv)
}
