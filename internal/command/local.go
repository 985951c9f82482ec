package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// stopGrace is how long Stop waits for a SIGTERM'd process to exit
// before escalating to SIGKILL.
const stopGrace = 3 * time.Second

// LocalRunner runs invocations for real via os/exec.
type LocalRunner struct {
	log zerolog.Logger
}

// NewLocalRunner creates a runner that logs each invocation at debug level.
func NewLocalRunner(log zerolog.Logger) *LocalRunner {
	return &LocalRunner{log: log.With().Str("component", "command").Logger()}
}

// Run executes the invocation and waits for it to finish.
func (r *LocalRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if len(inv.Args) == 0 {
		return Result{}, &SpawnError{Label: inv.Label, Err: errors.New("empty argument vector")}
	}

	cancel := func() {}
	if inv.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
	}
	defer cancel()

	cmd := r.build(ctx, inv)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Str("label", inv.Label).Strs("args", inv.Args).Msg("run")

	err := cmd.Run()
	if err == nil {
		return Result{Success: true, Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return Result{
			Success: false,
			Stdout:  stdout.String(),
			Stderr:  fmt.Sprintf("%s timed out after %s", inv.Label, inv.Timeout),
		}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{Success: false, Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}

	return Result{}, &SpawnError{Label: inv.Label, Err: err}
}

// Start launches the invocation in the background. Combined stdout and
// stderr are copied into sink as they arrive; the returned handle reports
// exit and supports termination.
func (r *LocalRunner) Start(ctx context.Context, inv Invocation, sink io.Writer) (Handle, error) {
	if len(inv.Args) == 0 {
		return nil, &SpawnError{Label: inv.Label, Err: errors.New("empty argument vector")}
	}

	cmd := r.build(ctx, inv)
	cmd.Stdout = sink
	cmd.Stderr = sink

	r.log.Debug().Str("label", inv.Label).Strs("args", inv.Args).Msg("start")

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Label: inv.Label, Err: err}
	}

	h := &localHandle{cmd: cmd, done: make(chan struct{}), exitCode: -1}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		if err == nil {
			h.exitCode = 0
		} else {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				h.exitCode = exitErr.ExitCode()
			}
		}
		h.mu.Unlock()
		close(h.done)
	}()
	return h, nil
}

func (r *LocalRunner) build(ctx context.Context, inv Invocation) *exec.Cmd {
	var cmd *exec.Cmd
	if inv.Shell {
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", shellJoin(inv.Args))
	} else {
		cmd = exec.CommandContext(ctx, inv.Args[0], inv.Args[1:]...)
	}
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range inv.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	return cmd
}

// shellJoin quotes each argument so the vector survives shell
// interpretation intact.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'`$\\&|;<>(){}[]*?~#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type localHandle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	mu       sync.Mutex
	exitCode int
	stopped  bool
}

func (h *localHandle) Done() <-chan struct{} { return h.done }

func (h *localHandle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

func (h *localHandle) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.mu.Unlock()

	select {
	case <-h.done:
		return nil
	default:
	}

	if h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return h.cmd.Process.Kill()
	}
	// A process that ignores SIGTERM gets killed after the grace period;
	// Stop must never block its caller indefinitely.
	select {
	case <-h.done:
	case <-time.After(stopGrace):
		if err := h.cmd.Process.Kill(); err != nil {
			return err
		}
		<-h.done
	}
	return nil
}
