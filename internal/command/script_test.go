package command_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/notexe/xcode-mcp/internal/command"
)

func TestScriptRunner_ConsumesStepsInOrder(t *testing.T) {
	runner := command.NewScriptRunner().
		Expect(command.Result{Success: true, Stdout: "first"}).
		Expect(command.Result{Success: false, Stderr: "second"})

	res, err := runner.Run(context.Background(), command.Invocation{Args: []string{"a"}, Label: "a"})
	if err != nil || res.Stdout != "first" {
		t.Fatalf("first step: res=%+v err=%v", res, err)
	}
	res, err = runner.Run(context.Background(), command.Invocation{Args: []string{"b"}, Label: "b"})
	if err != nil || res.Stderr != "second" || res.Success {
		t.Fatalf("second step: res=%+v err=%v", res, err)
	}
}

func TestScriptRunner_UnscriptedCallFailsLoudly(t *testing.T) {
	runner := command.NewScriptRunner()

	_, err := runner.Run(context.Background(), command.Invocation{Args: []string{"oops"}, Label: "oops"})
	var spawn *command.SpawnError
	if !errors.As(err, &spawn) {
		t.Fatalf("expected SpawnError for an unscripted call, got %v", err)
	}
	if spawn.Label != "oops" {
		t.Errorf("label: got %q", spawn.Label)
	}
}

func TestScriptRunner_RecordsEveryInvocation(t *testing.T) {
	runner := command.NewScriptRunner().
		Expect(command.Result{Success: true}).
		ExpectErr(errors.New("boom"))

	runner.Run(context.Background(), command.Invocation{Args: []string{"one", "-x"}, Label: "one"})
	runner.Run(context.Background(), command.Invocation{Args: []string{"two"}, Label: "two"})

	calls := runner.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls: got %d want 2", len(calls))
	}
	if calls[0].Args[1] != "-x" || calls[1].Label != "two" {
		t.Errorf("recorded calls wrong: %+v", calls)
	}
	if runner.CallCount() != 2 {
		t.Errorf("call count: got %d", runner.CallCount())
	}
}

func TestScriptHandle_EmitReachesTheRegisteredSink(t *testing.T) {
	handle := command.NewScriptHandle()
	runner := command.NewScriptRunner().ExpectStart(handle)

	var sink bytes.Buffer
	h, err := runner.Start(context.Background(), command.Invocation{Args: []string{"stream"}, Label: "stream"}, &sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handle.Emit("hello\n")
	if sink.String() != "hello\n" {
		t.Errorf("sink: got %q", sink.String())
	}

	handle.Exit(9)
	select {
	case <-h.Done():
	default:
		t.Fatal("Exit must close the done channel")
	}
	if h.ExitCode() != 9 {
		t.Errorf("exit code: got %d", h.ExitCode())
	}
}

func TestScriptHandle_ExitAfterStopKeepsFirstOutcome(t *testing.T) {
	handle := command.NewScriptHandle()

	if err := handle.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	handle.Exit(5)

	if !handle.Stopped() {
		t.Error("Stopped must report the explicit stop")
	}
	if handle.ExitCode() != 0 {
		t.Errorf("a stopped handle keeps exit code 0, got %d", handle.ExitCode())
	}
}
