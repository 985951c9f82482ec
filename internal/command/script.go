package command

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ScriptRunner is the injectable test implementation of Runner. Each call
// consumes the next scripted step in order; every invocation is recorded so
// tests can assert on what would have been executed.
type ScriptRunner struct {
	mu    sync.Mutex
	steps []scriptStep
	calls []Invocation
}

type scriptStep struct {
	result Result
	err    error
	handle *ScriptHandle
}

// NewScriptRunner returns an empty script; calls beyond the script fail
// with a SpawnError so a test that over-executes fails loudly.
func NewScriptRunner() *ScriptRunner {
	return &ScriptRunner{}
}

// Expect queues a successful-spawn result for the next Run call.
func (r *ScriptRunner) Expect(res Result) *ScriptRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, scriptStep{result: res})
	return r
}

// ExpectErr queues a spawn failure for the next Run or Start call.
func (r *ScriptRunner) ExpectErr(err error) *ScriptRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, scriptStep{err: err})
	return r
}

// ExpectStart queues a live handle for the next Start call.
func (r *ScriptRunner) ExpectStart(h *ScriptHandle) *ScriptRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, scriptStep{handle: h})
	return r
}

// Calls returns every invocation seen so far, in order.
func (r *ScriptRunner) Calls() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invocation, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns how many invocations have been issued.
func (r *ScriptRunner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *ScriptRunner) next(inv Invocation) (scriptStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, inv)
	if len(r.steps) == 0 {
		return scriptStep{}, &SpawnError{Label: inv.Label, Err: fmt.Errorf("unscripted invocation: %v", inv.Args)}
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	return step, nil
}

func (r *ScriptRunner) Run(_ context.Context, inv Invocation) (Result, error) {
	step, err := r.next(inv)
	if err != nil {
		return Result{}, err
	}
	if step.err != nil {
		return Result{}, step.err
	}
	return step.result, nil
}

func (r *ScriptRunner) Start(_ context.Context, inv Invocation, sink io.Writer) (Handle, error) {
	step, err := r.next(inv)
	if err != nil {
		return nil, err
	}
	if step.err != nil {
		return nil, step.err
	}
	if step.handle == nil {
		return nil, &SpawnError{Label: inv.Label, Err: fmt.Errorf("Run result scripted where Start expected")}
	}
	step.handle.sink = sink
	return step.handle, nil
}

// ScriptHandle is a controllable Handle for tests. Emit writes into the
// sink the session registered at Start; Exit closes the handle with the
// given code.
type ScriptHandle struct {
	mu       sync.Mutex
	sink     io.Writer
	done     chan struct{}
	exitCode int
	stopped  bool
}

func NewScriptHandle() *ScriptHandle {
	return &ScriptHandle{done: make(chan struct{}), exitCode: -1}
}

// Emit streams a chunk of output through the registered sink.
func (h *ScriptHandle) Emit(chunk string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sink != nil {
		io.WriteString(h.sink, chunk)
	}
}

// Exit marks the process as finished with the given exit code.
func (h *ScriptHandle) Exit(code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return
	default:
	}
	h.exitCode = code
	close(h.done)
}

func (h *ScriptHandle) Done() <-chan struct{} { return h.done }

func (h *ScriptHandle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

func (h *ScriptHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	select {
	case <-h.done:
	default:
		h.exitCode = 0
		close(h.done)
	}
	return nil
}

// Stopped reports whether Stop was called.
func (h *ScriptHandle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}
