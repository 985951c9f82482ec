// Package session holds the process-wide default parameter values that
// apply to every tool invocation for the lifetime of the server.
package session

import "sync"

// Store is a mutable key/value store of default tool parameters. It is an
// injected object rather than a package global so tests can construct
// isolated instances. The mutex matters: the MCP server handles each
// request on its own goroutine.
type Store struct {
	mu       sync.Mutex
	defaults map[string]any
}

func NewStore() *Store {
	return &Store{defaults: make(map[string]any)}
}

// Set merges the given pairs over the existing defaults; new values win.
// No validation happens here — that is the parameter resolver's job.
func (s *Store) Set(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.defaults[k] = v
	}
}

// Snapshot returns a copy of the current defaults. Never nil.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.defaults))
	for k, v := range s.defaults {
		out[k] = v
	}
	return out
}

// Clear resets the store to empty.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = make(map[string]any)
}
