package logcapture

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// sweep deletes capture files older than the retention window, regardless
// of whether their owning session is still registered. Every failure here
// is logged and swallowed: retention must never block a new capture.
func (m *Manager) sweep() {
	m.Sweep(time.Now())
}

// Sweep runs the retention pass against the given reference time. Only
// files carrying this subsystem's prefixes are considered.
func (m *Manager) Sweep(now time.Time) {
	entries, err := os.ReadDir(m.tempDir)
	if err != nil {
		m.log.Warn().Err(err).Msg("retention scan failed")
		return
	}

	cutoff := now.Add(-m.retention)
	for _, entry := range entries {
		if entry.IsDir() || !capturePrefixed(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			m.log.Warn().Str("file", entry.Name()).Err(err).Msg("retention stat failed")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			m.log.Warn().Str("file", entry.Name()).Err(err).Msg("retention delete failed")
			continue
		}
		m.log.Debug().Str("file", entry.Name()).Msg("retention deleted stale capture file")
	}
}

func capturePrefixed(name string) bool {
	return strings.HasPrefix(name, Simulator.filePrefix()) ||
		strings.HasPrefix(name, Device.filePrefix())
}
