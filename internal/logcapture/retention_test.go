package logcapture_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/notexe/xcode-mcp/internal/command"
	"github.com/notexe/xcode-mcp/internal/logcapture"
)

func touch(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("old log"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSweep_DeletesOnlyFilesBeyondTheWindow(t *testing.T) {
	dir := t.TempDir()
	m := logcapture.NewManager(command.NewScriptRunner(), zerolog.Nop())
	m.SetTempDir(dir)

	now := time.Now()
	window := logcapture.RetentionWindow
	fresh := touch(t, dir, "xcodemcp_sim_log_fresh.log", now.Add(-window+time.Second))
	stale := touch(t, dir, "xcodemcp_sim_log_stale.log", now.Add(-window-time.Second))
	staleDevice := touch(t, dir, "xcodemcp_device_log_stale.log", now.Add(-window-time.Second))

	m.Sweep(now)

	if !exists(fresh) {
		t.Error("file inside the retention window must survive")
	}
	if exists(stale) {
		t.Error("file beyond the retention window must be deleted")
	}
	if exists(staleDevice) {
		t.Error("device-prefixed stale file must be deleted too")
	}
}

func TestSweep_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	m := logcapture.NewManager(command.NewScriptRunner(), zerolog.Nop())
	m.SetTempDir(dir)

	now := time.Now()
	foreign := touch(t, dir, "somebody_elses.log", now.Add(-30*24*time.Hour))

	m.Sweep(now)

	if !exists(foreign) {
		t.Error("sweep must only touch files carrying the capture prefixes")
	}
}

func TestSweep_MissingDirectoryIsSwallowed(t *testing.T) {
	m := logcapture.NewManager(command.NewScriptRunner(), zerolog.Nop())
	m.SetTempDir(filepath.Join(t.TempDir(), "does-not-exist"))

	// Must not panic or error; retention failures never block capture.
	m.Sweep(time.Now())
}

func TestStart_SweepFailureDoesNotBlockCapture(t *testing.T) {
	handle := command.NewScriptHandle()
	runner := command.NewScriptRunner().ExpectStart(handle)
	m := logcapture.NewManager(runner, zerolog.Nop())

	dir := filepath.Join(t.TempDir(), "created-late")
	m.SetTempDir(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := m.StartSimulator(t.Context(), "UUID-1", "com.example.App"); err != nil {
		t.Fatalf("capture must start even when retention has nothing to do: %v", err)
	}
}
