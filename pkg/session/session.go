// Package session exposes the five hook-facing operations spec.md §4.J
// names — all O(1) file operations over the GHAP journal directory, never
// touching the embedder or vector store. It is file-backed and reuses the
// journal's own mutex rather than keeping a separate in-memory map, since
// both live in the same journal directory and must not race each other.
package session

import (
	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/journal"
)

// Manager exposes the session/tool-count hook surface.
type Manager struct {
	journal *journal.Journal
}

// NewManager wraps an already-open journal.
func NewManager(j *journal.Journal) *Manager {
	return &Manager{journal: j}
}

// StartSession rotates the prior session's log and returns the new session id.
func (m *Manager) StartSession() (string, error) {
	return m.journal.StartSession()
}

// GetOrphanedGHAP returns the active GHAP left by a prior, different
// session, or nil if there is none.
func (m *Manager) GetOrphanedGHAP() (*ghap.Entry, error) {
	return m.journal.GetOrphanedGHAP()
}

// ShouldCheckIn reports whether freq tool calls have elapsed since the last
// check-in/reset.
func (m *Manager) ShouldCheckIn(freq int) (bool, error) {
	return m.journal.ShouldCheckIn(freq)
}

// IncrementToolCount records one more tool call and returns the new count.
func (m *Manager) IncrementToolCount() (int, error) {
	return m.journal.IncrementToolCount()
}

// ResetToolCount zeroes the tool counter after a check-in.
func (m *Manager) ResetToolCount() error {
	return m.journal.ResetToolCount()
}
