// Package command is the boundary between the server and the operating
// system. Every subprocess the server launches goes through a Runner, so
// tests can swap in a scripted implementation and exercise the rest of the
// code without touching the toolchain.
package command

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Invocation describes a single subprocess run. Args is a plain argument
// vector with the binary at Args[0]; it is never pre-joined into a shell
// string unless Shell is set, in which case the runner is responsible for
// quoting.
type Invocation struct {
	Args    []string
	Label   string
	Shell   bool
	Env     map[string]string
	Dir     string
	Timeout time.Duration
}

// Result is the uniform outcome of a finished run. A non-zero exit is not an
// error: Success is false and Stderr carries the diagnostic channel. Errors
// are reserved for the spawn itself failing.
type Result struct {
	Success bool
	Stdout  string
	Stderr  string
}

// Handle tracks a long-running subprocess started with Runner.Start. Done is
// closed when the process exits; ExitCode is valid only after that. Stop
// terminates the process and is safe to call more than once.
type Handle interface {
	Done() <-chan struct{}
	ExitCode() int
	Stop() error
}

// Runner executes subprocess invocations. Run blocks until the process
// exits; Start launches it in the background with combined stdout/stderr
// streamed into sink as it arrives.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
	Start(ctx context.Context, inv Invocation, sink io.Writer) (Handle, error)
}

// SpawnError reports that the process could not be started at all: binary
// missing, permission denied, bad working directory. Callers use this to
// tell "the tool under test failed" apart from "we could not even run it".
type SpawnError struct {
	Label string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Label, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
