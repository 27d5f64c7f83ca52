package model

import (
	"slices"
	"time"
)

// SessionID is the short human-readable code identifying a session
type SessionID string

// Player limits for a session
const (
	MaxPlayers = 20
	MinPlayers = 5
)

// Faction is one of the two sides that can win a game
type Faction string

const (
	FactionNone      Faction = ""
	FactionVillagers Faction = "villagers"
	FactionGhoul     Faction = "ghoul"
)

// Ballot is one day-phase accusation vote
type Ballot struct {
	Voter  ConnectionID `json:"voter"`
	Target ConnectionID `json:"target"`
}

// Verdict is one final-vote decision on the accused
type Verdict struct {
	Voter  ConnectionID `json:"voter"`
	Guilty bool         `json:"guilty"`
}

// Session is the full state of one game room
type Session struct {
	ID             SessionID
	Name           string
	OwnerID        ConnectionID
	Players        []*Player // join order
	Phase          Phase
	Votes          []Ballot // cast order, at most one per voter
	Accused        *ConnectionID
	FinalVotes     []Verdict
	GhoulID        ConnectionID
	Winner         Faction
	Round          int
	DayTimerPaused bool
	PasswordHash   string
	Deadline       time.Time // zero when the current phase has no timer
	Eliminations   []Elimination
	CreatedAt      time.Time
	StartedAt      time.Time
	UpdatedAt      time.Time
}

// GetPlayer returns the player with the given connection ID, or nil if not found
func (s *Session) GetPlayer(id ConnectionID) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// IsOwner reports whether the connection owns the session
func (s *Session) IsOwner(id ConnectionID) bool {
	return id != "" && s.OwnerID == id
}

// IsGhoul reports whether the connection holds the ghoul role
func (s *Session) IsGhoul(id ConnectionID) bool {
	return id != "" && s.GhoulID == id
}

// IsFull reports whether the session has reached its player cap
func (s *Session) IsFull() bool {
	return len(s.Players) >= MaxPlayers
}

// HasPassword reports whether joining requires a password
func (s *Session) HasPassword() bool {
	return s.PasswordHash != ""
}

// AliveCount returns the number of living players
func (s *Session) AliveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Alive {
			n++
		}
	}
	return n
}

// AlivePlayers returns the living players in join order
func (s *Session) AlivePlayers() []*Player {
	var alive []*Player
	for _, p := range s.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

// LivingWithRole counts living players holding the given role
func (s *Session) LivingWithRole(role Role) int {
	n := 0
	for _, p := range s.Players {
		if p.Alive && p.Role == role {
			n++
		}
	}
	return n
}

// TargetsFor returns the living players other than the given connection
func (s *Session) TargetsFor(id ConnectionID) []PublicPlayer {
	targets := []PublicPlayer{}
	for _, p := range s.Players {
		if p.Alive && p.ID != id {
			targets = append(targets, p.Public())
		}
	}
	return targets
}

// CastVote records a ballot, replacing any earlier ballot from the same voter
func (s *Session) CastVote(voter, target ConnectionID) {
	s.Votes = slices.DeleteFunc(s.Votes, func(b Ballot) bool { return b.Voter == voter })
	s.Votes = append(s.Votes, Ballot{Voter: voter, Target: target})
}

// HasVerdict reports whether the voter already cast a final vote
func (s *Session) HasVerdict(voter ConnectionID) bool {
	return slices.ContainsFunc(s.FinalVotes, func(v Verdict) bool { return v.Voter == voter })
}

// ResetVotes clears accusation ballots and final verdicts
func (s *Session) ResetVotes() {
	s.Votes = nil
	s.FinalVotes = nil
}

// RemovePlayer drops the player and every vote they cast or received.
// Returns the removed player, or nil if they were not in the session.
func (s *Session) RemovePlayer(id ConnectionID) *Player {
	idx := slices.IndexFunc(s.Players, func(p *Player) bool { return p.ID == id })
	if idx < 0 {
		return nil
	}
	removed := s.Players[idx]
	s.Players = slices.Delete(s.Players, idx, idx+1)
	s.Votes = slices.DeleteFunc(s.Votes, func(b Ballot) bool { return b.Voter == id || b.Target == id })
	s.FinalVotes = slices.DeleteFunc(s.FinalVotes, func(v Verdict) bool { return v.Voter == id })
	return removed
}

// RosterSlot is one cell of the fixed-size roster grid shown to clients
type RosterSlot struct {
	ID       ConnectionID `json:"id,omitempty"`
	Nickname string       `json:"nickname,omitempty"`
	Avatar   Avatar       `json:"avatar"`
	Alive    bool         `json:"alive"`
	Owner    bool         `json:"owner"`
	Empty    bool         `json:"empty"`
}

// Roster returns the fixed-length roster snapshot; unfilled slots are marked empty
func (s *Session) Roster() [MaxPlayers]RosterSlot {
	var roster [MaxPlayers]RosterSlot
	for i := range roster {
		if i >= len(s.Players) {
			roster[i] = RosterSlot{Avatar: NoAvatar, Empty: true}
			continue
		}
		p := s.Players[i]
		roster[i] = RosterSlot{
			ID:       p.ID,
			Nickname: p.Nickname,
			Avatar:   p.Avatar,
			Alive:    p.Alive,
			Owner:    p.ID == s.OwnerID,
		}
	}
	return roster
}

// SessionSummary is the discovery-list entry for a joinable session
type SessionSummary struct {
	ID          SessionID `json:"id"`
	Name        string    `json:"name"`
	PlayerCount int       `json:"playerCount"`
	Private     bool      `json:"private"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary returns the session's discovery-list entry
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:          s.ID,
		Name:        s.Name,
		PlayerCount: len(s.Players),
		Private:     s.HasPassword(),
		CreatedAt:   s.CreatedAt,
	}
}

// SessionView is the public read-only view of a session
type SessionView struct {
	ID       SessionID              `json:"id"`
	Name     string                 `json:"name"`
	Phase    Phase                  `json:"phase"`
	Round    int                    `json:"round"`
	Winner   Faction                `json:"winner,omitempty"`
	Accused  *ConnectionID          `json:"accused,omitempty"`
	Deadline *time.Time             `json:"deadline,omitempty"`
	Private  bool                   `json:"private"`
	Roster   [MaxPlayers]RosterSlot `json:"roster"`
}

// View returns the public view of the session
func (s *Session) View() SessionView {
	v := SessionView{
		ID:      s.ID,
		Name:    s.Name,
		Phase:   s.Phase,
		Round:   s.Round,
		Winner:  s.Winner,
		Private: s.HasPassword(),
		Roster:  s.Roster(),
	}
	if s.Accused != nil {
		accused := *s.Accused
		v.Accused = &accused
	}
	if !s.Deadline.IsZero() {
		deadline := s.Deadline
		v.Deadline = &deadline
	}
	return v
}
