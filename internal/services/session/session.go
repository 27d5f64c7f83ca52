package session

import (
	"sync"

	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/avatar"
)

// Session is a live game room. Every read and write of its state happens under mu,
// which serialises player commands and timer callbacks for the room.
type Session struct {
	mu     sync.Mutex
	state  *model.Session
	pool   *avatar.Pool
	closed bool

	// cast holds everyone dealt a role at start, including players who later left
	cast []*model.Player

	// set at creation, never modified
	id           model.SessionID
	passwordHash string
}

// ID returns the session code
func (s *Session) ID() model.SessionID {
	return s.id
}

// PasswordHash returns the bcrypt hash guarding the session, or "" if it is open
func (s *Session) PasswordHash() string {
	return s.passwordHash
}

// Summary returns the discovery-list entry and whether the session is still accepting players
func (s *Session) Summary() (model.SessionSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Summary(), !s.closed && s.state.Phase == model.PhaseWaiting
}

// View returns the public read-only view
func (s *Session) View() model.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.View()
}

// Phase returns the current phase
func (s *Session) Phase() model.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase
}

// HasPlayer reports whether the connection is a player in the session
func (s *Session) HasPlayer(conn model.ConnectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.GetPlayer(conn) != nil
}

// Closed reports whether the session has been torn down
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot returns a deep copy of the full session state, including secret roles.
// Intended for tests and diagnostics; never send it to clients.
func (s *Session) Snapshot() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := *s.state
	snap.Players = make([]*model.Player, len(s.state.Players))
	for i, p := range s.state.Players {
		cp := *p
		snap.Players[i] = &cp
	}
	snap.Votes = append([]model.Ballot(nil), s.state.Votes...)
	snap.FinalVotes = append([]model.Verdict(nil), s.state.FinalVotes...)
	snap.Eliminations = append([]model.Elimination(nil), s.state.Eliminations...)
	if s.state.Accused != nil {
		accused := *s.state.Accused
		snap.Accused = &accused
	}
	return snap
}
