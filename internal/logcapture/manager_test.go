package logcapture_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/notexe/xcode-mcp/internal/command"
	"github.com/notexe/xcode-mcp/internal/logcapture"
)

func newManager(t *testing.T, runner command.Runner) *logcapture.Manager {
	t.Helper()
	m := logcapture.NewManager(runner, zerolog.Nop())
	m.SetTempDir(t.TempDir())
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartSimulator_RegistersSessionAndCaptures(t *testing.T) {
	handle := command.NewScriptHandle()
	runner := command.NewScriptRunner().ExpectStart(handle)
	m := newManager(t, runner)

	sess, err := m.StartSimulator(context.Background(), "UUID-1", "com.example.App")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session must get a generated identifier")
	}
	if sess.Kind != logcapture.Simulator {
		t.Errorf("kind: got %v", sess.Kind)
	}
	if !strings.Contains(sess.FilePath, "xcodemcp_sim_log_") {
		t.Errorf("file name must carry the simulator prefix: %q", sess.FilePath)
	}
	if len(m.Active()) != 1 {
		t.Fatalf("session must be registered before start returns, active=%d", len(m.Active()))
	}

	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one start invocation, got %d", len(calls))
	}
	argv := strings.Join(calls[0].Args, " ")
	if !strings.Contains(argv, "simctl spawn UUID-1 log stream") {
		t.Errorf("unexpected capture argv: %q", argv)
	}
	if !strings.Contains(argv, "com.example.App") {
		t.Errorf("capture must be scoped to the bundle id: %q", argv)
	}

	handle.Emit("line one\nline two\n")
	waitFor(t, "captured output", func() bool {
		data, err := os.ReadFile(sess.FilePath)
		return err == nil && strings.Contains(string(data), "line two")
	})
}

func TestNaturalExit_EndsSessionButKeepsItQueryable(t *testing.T) {
	handle := command.NewScriptHandle()
	runner := command.NewScriptRunner().ExpectStart(handle)
	m := newManager(t, runner)

	sess, err := m.StartSimulator(context.Background(), "UUID-1", "com.example.App")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handle.Emit("final words\n")
	handle.Exit(7)

	waitFor(t, "session to end", func() bool {
		return sess.CurrentState() == logcapture.StateEnded
	})
	// A naturally ended session stays in the map so callers can still
	// fetch the final content.
	if len(m.Active()) != 1 {
		t.Error("naturally ended session must remain registered until stopped")
	}

	content, err := m.Stop(sess.ID)
	if err != nil {
		t.Fatalf("stop after natural exit: %v", err)
	}
	if !strings.Contains(content, "final words") {
		t.Errorf("content lost: %q", content)
	}
	if !strings.Contains(content, "log capture ended (exit code 7)") {
		t.Errorf("trailing exit marker missing: %q", content)
	}
}

func TestStop_TerminatesAndRemoves(t *testing.T) {
	handle := command.NewScriptHandle()
	runner := command.NewScriptRunner().ExpectStart(handle)
	m := newManager(t, runner)

	sess, err := m.StartSimulator(context.Background(), "UUID-1", "com.example.App")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handle.Emit("captured\n")

	content, err := m.Stop(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handle.Stopped() {
		t.Error("stop must terminate the process handle")
	}
	if !strings.Contains(content, "captured") {
		t.Errorf("content lost: %q", content)
	}
	if sess.CurrentState() != logcapture.StateEnded {
		t.Error("explicit stop must force the session into ended")
	}
	if len(m.Active()) != 0 {
		t.Error("stopped session must leave the active map")
	}
}

func TestStop_UnknownSession(t *testing.T) {
	m := newManager(t, command.NewScriptRunner())

	_, err := m.Stop("nope")
	var notFound *logcapture.SessionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected SessionNotFoundError, got %v", err)
	}
}

func TestStart_SetupFailureRegistersNothing(t *testing.T) {
	spawnErr := &command.SpawnError{Label: "simulator log capture", Err: errors.New("xcrun: not found")}
	runner := command.NewScriptRunner().ExpectErr(spawnErr)
	m := newManager(t, runner)

	_, err := m.StartSimulator(context.Background(), "UUID-1", "com.example.App")
	var setup *logcapture.SessionSetupError
	if !errors.As(err, &setup) {
		t.Fatalf("expected SessionSetupError, got %v", err)
	}
	if len(m.Active()) != 0 {
		t.Error("failed setup must not register a session")
	}
}

func TestStartDevice_UsesDevicePrefixAndDevicectl(t *testing.T) {
	handle := command.NewScriptHandle()
	runner := command.NewScriptRunner().ExpectStart(handle)
	m := newManager(t, runner)

	sess, err := m.StartDevice(context.Background(), "DEV-1", "com.example.App")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Kind != logcapture.Device {
		t.Errorf("kind: got %v", sess.Kind)
	}
	if !strings.Contains(sess.FilePath, "xcodemcp_device_log_") {
		t.Errorf("file name must carry the device prefix: %q", sess.FilePath)
	}
	argv := strings.Join(runner.Calls()[0].Args, " ")
	if !strings.Contains(argv, "devicectl device process launch --console --device DEV-1") {
		t.Errorf("unexpected capture argv: %q", argv)
	}
}
