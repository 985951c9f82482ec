package xcode_test

import (
	"context"
	"strings"
	"testing"

	"github.com/notexe/xcode-mcp/internal/command"
	"github.com/notexe/xcode-mcp/internal/xcode"
)

const settingsOut = `    TARGET_BUILD_DIR = /derived/Debug-iphonesimulator
    FULL_PRODUCT_NAME = App.app
    PRODUCT_BUNDLE_IDENTIFIER = com.example.App
`

func TestBuildRun_FullSequence(t *testing.T) {
	runner := command.NewScriptRunner().
		Expect(command.Result{Success: true, Stdout: "** BUILD SUCCEEDED **"}).
		Expect(command.Result{Success: true, Stdout: settingsOut}).
		Expect(command.Result{Success: true}).
		Expect(command.Result{Success: true})
	d := xcode.NewDriver(runner, 0)

	run, err := d.BuildRun(context.Background(), xcode.Options{
		ProjectPath: "/src/App.xcodeproj",
		Scheme:      "App",
		Destination: "platform=iOS Simulator,id=UUID-1",
	}, "UUID-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Failed() {
		t.Fatalf("sequence failed: %+v", run.Steps)
	}
	if len(run.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(run.Steps))
	}
	if run.AppPath != "/derived/Debug-iphonesimulator/App.app" {
		t.Errorf("app path: got %q", run.AppPath)
	}
	if run.BundleID != "com.example.App" {
		t.Errorf("bundle id: got %q", run.BundleID)
	}

	calls := runner.Calls()
	install := calls[2].Args
	if install[0] != "xcrun" || install[1] != "simctl" || install[2] != "install" ||
		install[3] != "UUID-1" || install[4] != run.AppPath {
		t.Errorf("install argv: %v", install)
	}
	launch := calls[3].Args
	if launch[2] != "launch" || launch[3] != "UUID-1" || launch[4] != "com.example.App" {
		t.Errorf("launch argv: %v", launch)
	}
}

func TestBuildRun_StopsAfterFailedBuild(t *testing.T) {
	runner := command.NewScriptRunner().
		Expect(command.Result{Success: false, Stderr: "error: compile failed"})
	d := xcode.NewDriver(runner, 0)

	run, err := d.BuildRun(context.Background(), xcode.Options{
		ProjectPath: "/src/App.xcodeproj",
		Scheme:      "App",
	}, "UUID-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !run.Failed() {
		t.Error("failed build must fail the run")
	}
	if len(run.Steps) != 1 {
		t.Errorf("later steps must be skipped, got %d steps", len(run.Steps))
	}
	if runner.CallCount() != 1 {
		t.Errorf("executor call count: got %d want 1", runner.CallCount())
	}
}

func TestBuildRun_MissingBundleIDIsNamedFailure(t *testing.T) {
	noBundle := `    TARGET_BUILD_DIR = /derived/Debug-iphonesimulator
    FULL_PRODUCT_NAME = App.app
`
	runner := command.NewScriptRunner().
		Expect(command.Result{Success: true}).
		Expect(command.Result{Success: true, Stdout: noBundle})
	d := xcode.NewDriver(runner, 0)

	run, err := d.BuildRun(context.Background(), xcode.Options{
		ProjectPath: "/src/App.xcodeproj",
		Scheme:      "App",
	}, "UUID-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !run.Failed() {
		t.Fatal("missing bundle id must fail the run")
	}
	last := run.Steps[len(run.Steps)-1]
	if !strings.Contains(last.Stderr, "could not extract bundle identifier") {
		t.Errorf("failure must be named, got %q", last.Stderr)
	}
	// Install and launch must not have been attempted.
	if runner.CallCount() != 2 {
		t.Errorf("executor call count: got %d want 2", runner.CallCount())
	}
}
