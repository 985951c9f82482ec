// Package logcapture owns long-running log capture subprocesses: session
// lifecycle, file backing, and retention of abandoned capture files.
package logcapture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notexe/xcode-mcp/internal/command"
)

// TargetKind distinguishes simulator capture from device capture. The two
// use different file prefixes so retention sweeps never cross-delete.
type TargetKind int

const (
	Simulator TargetKind = iota
	Device
)

func (k TargetKind) String() string {
	if k == Device {
		return "device"
	}
	return "simulator"
}

func (k TargetKind) filePrefix() string {
	if k == Device {
		return "xcodemcp_device_log"
	}
	return "xcodemcp_sim_log"
}

// RetentionWindow is the maximum age a capture file may reach before the
// sweep deletes it.
const RetentionWindow = 3 * 24 * time.Hour

// State is the lifecycle position of one session.
type State int

const (
	StateCapturing State = iota
	StateEnded
)

func (s State) String() string {
	if s == StateEnded {
		return "ended"
	}
	return "capturing"
}

// SessionNotFoundError reports a stop or query against an unknown session.
type SessionNotFoundError struct {
	ID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("log capture session %s not found", e.ID)
}

// SessionSetupError reports that the capture process could not be started;
// no session was registered.
type SessionSetupError struct {
	Err error
}

func (e *SessionSetupError) Error() string {
	return fmt.Sprintf("failed to start log capture: %v", e.Err)
}

func (e *SessionSetupError) Unwrap() error { return e.Err }

// Session is one tracked capture. State transitions only on the process's
// own exit notification or an explicit stop.
type Session struct {
	ID       string
	Kind     TargetKind
	TargetID string
	BundleID string
	FilePath string
	Started  time.Time

	mu     sync.Mutex
	state  State
	handle command.Handle
	file   *os.File
}

// CurrentState returns the session's lifecycle position.
func (s *Session) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// markEnded appends the trailing exit marker and transitions to ended.
// Idempotent: the exit watcher and an explicit stop may race.
func (s *Session) markEnded(exitCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return
	}
	s.state = StateEnded
	if s.file != nil {
		fmt.Fprintf(s.file, "\n--- log capture ended (exit code %d) ---\n", exitCode)
		s.file.Close()
		s.file = nil
	}
}

// Manager owns the active-session map. The map is the single source of
// truth for which sessions are alive, and a start registers its session
// before any caller-visible success response is produced.
type Manager struct {
	runner    command.Runner
	tempDir   string
	retention time.Duration
	log       zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(runner command.Runner, log zerolog.Logger) *Manager {
	return &Manager{
		runner:    runner,
		tempDir:   os.TempDir(),
		retention: RetentionWindow,
		log:       log.With().Str("component", "logcapture").Logger(),
		sessions:  make(map[string]*Session),
	}
}

// SetTempDir overrides the capture directory (tests and config use this).
func (m *Manager) SetTempDir(dir string) { m.tempDir = dir }

// SetRetention overrides the retention window.
func (m *Manager) SetRetention(d time.Duration) { m.retention = d }

// StartSimulator begins capturing a simulator app's log stream.
func (m *Manager) StartSimulator(ctx context.Context, udid, bundleID string) (*Session, error) {
	inv := command.Invocation{
		Args: []string{
			"xcrun", "simctl", "spawn", udid, "log", "stream",
			"--level=debug",
			"--predicate", fmt.Sprintf("subsystem == %q", bundleID),
		},
		Label: "simulator log capture",
	}
	return m.start(ctx, Simulator, udid, bundleID, inv)
}

// StartDevice begins capturing a device app's console by launching it
// through devicectl with console attached.
func (m *Manager) StartDevice(ctx context.Context, deviceID, bundleID string) (*Session, error) {
	inv := command.Invocation{
		Args: []string{
			"xcrun", "devicectl", "device", "process", "launch",
			"--console", "--device", deviceID, bundleID,
		},
		Label: "device log capture",
	}
	return m.start(ctx, Device, deviceID, bundleID, inv)
}

func (m *Manager) start(ctx context.Context, kind TargetKind, targetID, bundleID string, inv command.Invocation) (*Session, error) {
	// Bound disk growth from abandoned sessions before anything else;
	// sweep failures never block a new capture.
	m.sweep()

	id := uuid.NewString()
	path := filepath.Join(m.tempDir, fmt.Sprintf("%s_%s.log", kind.filePrefix(), id))

	file, err := os.Create(path)
	if err != nil {
		return nil, &SessionSetupError{Err: err}
	}

	handle, err := m.runner.Start(ctx, inv, file)
	if err != nil {
		fmt.Fprintf(file, "\n--- log capture failed to start: %v ---\n", err)
		file.Close()
		return nil, &SessionSetupError{Err: err}
	}

	session := &Session{
		ID:       id,
		Kind:     kind,
		TargetID: targetID,
		BundleID: bundleID,
		FilePath: path,
		Started:  time.Now(),
		state:    StateCapturing,
		handle:   handle,
		file:     file,
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	// The session stays in the map after a natural exit so callers can
	// still retrieve the final content; only an explicit stop removes it.
	go func() {
		<-handle.Done()
		session.markEnded(handle.ExitCode())
	}()

	m.log.Info().Str("session", id).Str("kind", kind.String()).Str("target", targetID).Msg("capture started")
	return session, nil
}

// Stop terminates the session's process, forces it into ended, removes it
// from the active-session map, and returns the captured content.
func (m *Manager) Stop(id string) (string, error) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return "", &SessionNotFoundError{ID: id}
	}

	if err := session.handle.Stop(); err != nil {
		m.log.Warn().Str("session", id).Err(err).Msg("stop reported error")
	}
	<-session.handle.Done()
	session.markEnded(session.handle.ExitCode())

	data, err := os.ReadFile(session.FilePath)
	if err != nil {
		return "", fmt.Errorf("failed to read capture file: %w", err)
	}
	m.log.Info().Str("session", id).Msg("capture stopped")
	return string(data), nil
}

// Active returns a snapshot of all registered sessions.
func (m *Manager) Active() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// StopAll terminates every registered session. Used at shutdown.
func (m *Manager) StopAll() {
	for _, s := range m.Active() {
		if _, err := m.Stop(s.ID); err != nil {
			m.log.Warn().Str("session", s.ID).Err(err).Msg("shutdown stop failed")
		}
	}
}
