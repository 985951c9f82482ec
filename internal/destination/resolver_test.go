package destination_test

import (
	"context"
	"errors"
	"testing"

	"github.com/notexe/xcode-mcp/internal/command"
	"github.com/notexe/xcode-mcp/internal/destination"
)

const simListing = `{
  "devices": {
    "com.apple.CoreSimulator.SimRuntime.iOS-18-0": [
      {"name": "iPhone 16", "udid": "AAAA-1111", "state": "Shutdown", "isAvailable": true},
      {"name": "iPhone 16 Pro", "udid": "BBBB-2222", "state": "Booted", "isAvailable": true}
    ],
    "com.apple.CoreSimulator.SimRuntime.watchOS-11-0": [
      {"name": "Apple Watch Series 10", "udid": "CCCC-3333", "state": "Shutdown", "isAvailable": true}
    ]
  }
}`

func TestResolve_DeviceUsesIdentifierDirectly(t *testing.T) {
	runner := command.NewScriptRunner()
	r := destination.NewResolver(runner)

	dest, err := r.Resolve(context.Background(), destination.Spec{
		Platform: destination.IOS,
		DeviceID: "DEV-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest != "platform=iOS,id=DEV-1" {
		t.Errorf("destination: got %q", dest)
	}
	if runner.CallCount() != 0 {
		t.Errorf("device resolution must not invoke the executor, got %d calls", runner.CallCount())
	}
}

func TestResolve_MacOS(t *testing.T) {
	r := destination.NewResolver(command.NewScriptRunner())
	dest, err := r.Resolve(context.Background(), destination.Spec{Platform: destination.MacOS})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest != "platform=macOS" {
		t.Errorf("destination: got %q", dest)
	}
}

func TestResolve_SimulatorIDSkipsLookup(t *testing.T) {
	runner := command.NewScriptRunner()
	r := destination.NewResolver(runner)

	dest, err := r.Resolve(context.Background(), destination.Spec{
		Platform:    destination.IOSSimulator,
		SimulatorID: "AAAA-1111",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest != "platform=iOS Simulator,id=AAAA-1111" {
		t.Errorf("destination: got %q", dest)
	}
	if runner.CallCount() != 0 {
		t.Errorf("UUID resolution must not invoke the executor, got %d calls", runner.CallCount())
	}
}

func TestResolve_SimulatorNameLooksUpUDID(t *testing.T) {
	runner := command.NewScriptRunner().Expect(command.Result{Success: true, Stdout: simListing})
	r := destination.NewResolver(runner)

	dest, err := r.Resolve(context.Background(), destination.Spec{
		Platform:      destination.IOSSimulator,
		SimulatorName: "iPhone 16 Pro",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest != "platform=iOS Simulator,id=BBBB-2222" {
		t.Errorf("destination: got %q", dest)
	}

	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one listing call, got %d", len(calls))
	}
	want := []string{"xcrun", "simctl", "list", "devices", "-j"}
	for i, arg := range want {
		if calls[0].Args[i] != arg {
			t.Errorf("listing argv[%d]: got %q want %q", i, calls[0].Args[i], arg)
		}
	}
}

func TestResolve_SimulatorNameNotFound(t *testing.T) {
	runner := command.NewScriptRunner().Expect(command.Result{Success: true, Stdout: simListing})
	r := destination.NewResolver(runner)

	_, err := r.Resolve(context.Background(), destination.Spec{
		Platform:      destination.IOSSimulator,
		SimulatorName: "iPhone 3G",
	})
	var notFound *destination.SimulatorNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected SimulatorNotFoundError, got %v", err)
	}
	if notFound.Name != "iPhone 3G" {
		t.Errorf("failure must name the missing simulator: got %q", notFound.Name)
	}
	if runner.CallCount() != 1 {
		t.Errorf("no further subprocess calls after a failed lookup, got %d", runner.CallCount())
	}
}

func TestResolve_ListFailureSurfacedVerbatim(t *testing.T) {
	runner := command.NewScriptRunner().Expect(command.Result{Success: false, Stderr: "Unable to locate CoreSimulator"})
	r := destination.NewResolver(runner)

	_, err := r.Resolve(context.Background(), destination.Spec{
		Platform:      destination.IOSSimulator,
		SimulatorName: "iPhone 16",
	})
	var listErr *destination.SimulatorListError
	if !errors.As(err, &listErr) {
		t.Fatalf("expected SimulatorListError, got %v", err)
	}
	if listErr.Output != "Unable to locate CoreSimulator" {
		t.Errorf("listing failure must surface verbatim: got %q", listErr.Output)
	}
}

func TestResolve_UseLatestOSAddressesByName(t *testing.T) {
	runner := command.NewScriptRunner()
	r := destination.NewResolver(runner)

	dest, err := r.Resolve(context.Background(), destination.Spec{
		Platform:      destination.IOSSimulator,
		SimulatorName: "iPhone 16",
		UseLatestOS:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest != "platform=iOS Simulator,name=iPhone 16,OS=latest" {
		t.Errorf("destination: got %q", dest)
	}
	if runner.CallCount() != 0 {
		t.Errorf("OS=latest addressing needs no lookup, got %d calls", runner.CallCount())
	}
}

func TestListSimulators_FlattensAllRuntimes(t *testing.T) {
	runner := command.NewScriptRunner().Expect(command.Result{Success: true, Stdout: simListing})
	r := destination.NewResolver(runner)

	sims, err := r.ListSimulators(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sims) != 3 {
		t.Fatalf("expected 3 simulators across runtimes, got %d", len(sims))
	}
	for _, s := range sims {
		if s.RuntimeID == "" {
			t.Errorf("simulator %s missing runtime id", s.Name)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	cases := []struct {
		name    string
		want    destination.Platform
		wantSim bool
	}{
		{"iOS", destination.IOS, false},
		{"macOS", destination.MacOS, false},
		{"iOS Simulator", destination.IOSSimulator, true},
		{"visionOS Simulator", destination.VisionOSSimulator, true},
	}
	for _, tc := range cases {
		p, err := destination.ParsePlatform(tc.name)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if p != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, p, tc.want)
		}
		if p.IsSimulator() != tc.wantSim {
			t.Errorf("%s: IsSimulator got %v", tc.name, p.IsSimulator())
		}
	}

	if _, err := destination.ParsePlatform("Android"); err == nil {
		t.Error("unknown platform must be rejected")
	}
}
