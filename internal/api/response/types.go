package response

import (
	"time"

	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/auth"
)

// Connection is the response for opening an HTTP connection
type Connection struct {
	ConnectionID string    `json:"connection_id"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ConnectionFromGrant converts an auth.Grant
func ConnectionFromGrant(g *auth.Grant) Connection {
	return Connection{
		ConnectionID: string(g.ConnectionID),
		Token:        g.Token,
		ExpiresAt:    g.ExpiresAt,
	}
}

// Player represents a player in API responses. Roles are never exposed.
type Player struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Alive    bool   `json:"alive"`
}

// PlayerFromModel converts a model.Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		ID:       string(p.ID),
		Nickname: p.Nickname,
		Avatar:   string(p.Avatar),
		Alive:    p.Alive,
	}
}

// SessionSummary is one entry of the session list
type SessionSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PlayerCount int       `json:"player_count"`
	Private     bool      `json:"private"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionList is the response for listing sessions
type SessionList struct {
	Sessions []SessionSummary `json:"sessions"`
}

// SessionListFromModel converts the registry's session list
func SessionListFromModel(summaries []model.SessionSummary) SessionList {
	list := SessionList{Sessions: make([]SessionSummary, 0, len(summaries))}
	for _, s := range summaries {
		list.Sessions = append(list.Sessions, SessionSummary{
			ID:          string(s.ID),
			Name:        s.Name,
			PlayerCount: s.PlayerCount,
			Private:     s.Private,
			CreatedAt:   s.CreatedAt,
		})
	}
	return list
}

// RosterSlot is one occupied seat in a session
type RosterSlot struct {
	Seat     int    `json:"seat"`
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Alive    bool   `json:"alive"`
	Owner    bool   `json:"owner"`
}

// Session is the public view of a session
type Session struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Phase    string       `json:"phase"`
	Round    int          `json:"round"`
	Winner   string       `json:"winner,omitempty"`
	Accused  string       `json:"accused,omitempty"`
	Deadline *time.Time   `json:"deadline,omitempty"`
	Private  bool         `json:"private"`
	Capacity int          `json:"capacity"`
	Roster   []RosterSlot `json:"roster"`
}

// SessionFromModel converts a model.SessionView. Empty seats are omitted.
func SessionFromModel(v model.SessionView) Session {
	s := Session{
		ID:       string(v.ID),
		Name:     v.Name,
		Phase:    string(v.Phase),
		Round:    v.Round,
		Winner:   string(v.Winner),
		Deadline: v.Deadline,
		Private:  v.Private,
		Capacity: model.MaxPlayers,
		Roster:   []RosterSlot{},
	}
	if v.Accused != nil {
		s.Accused = string(*v.Accused)
	}
	for i, slot := range v.Roster {
		if slot.Empty {
			continue
		}
		s.Roster = append(s.Roster, RosterSlot{
			Seat:     i,
			ID:       string(slot.ID),
			Nickname: slot.Nickname,
			Avatar:   string(slot.Avatar),
			Alive:    slot.Alive,
			Owner:    slot.Owner,
		})
	}
	return s
}

// Membership is the response for creating or joining a session
type Membership struct {
	Session Session `json:"session"`
	Player  Player  `json:"player"`
}

// GamePlayer is a player's final state in an archived game
type GamePlayer struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
	Survived bool   `json:"survived"`
}

// Elimination is one player leaving play in an archived game
type Elimination struct {
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
	Cause    string `json:"cause"`
	Round    int    `json:"round"`
}

// Game is an archived finished game
type Game struct {
	ID           string        `json:"id"`
	SessionID    string        `json:"session_id"`
	SessionName  string        `json:"session_name"`
	Winner       string        `json:"winner"`
	Rounds       int           `json:"rounds"`
	Players      []GamePlayer  `json:"players"`
	Eliminations []Elimination `json:"eliminations"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
}

// GameFromModel converts a model.GameRecord
func GameFromModel(r *model.GameRecord) Game {
	g := Game{
		ID:           string(r.ID),
		SessionID:    string(r.SessionID),
		SessionName:  r.SessionName,
		Winner:       string(r.Winner),
		Rounds:       r.Rounds,
		Players:      make([]GamePlayer, 0, len(r.Players)),
		Eliminations: make([]Elimination, 0, len(r.Eliminations)),
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
	}
	for _, p := range r.Players {
		g.Players = append(g.Players, GamePlayer{
			Nickname: p.Nickname,
			Avatar:   string(p.Avatar),
			Role:     string(p.Role),
			Survived: p.Survived,
		})
	}
	for _, e := range r.Eliminations {
		g.Eliminations = append(g.Eliminations, Elimination{
			Nickname: e.Nickname,
			Role:     string(e.Role),
			Cause:    string(e.Cause),
			Round:    e.Round,
		})
	}
	return g
}

// GameList is the response for listing archived games
type GameList struct {
	Games []Game `json:"games"`
}

// GameListFromModel converts a list of records
func GameListFromModel(records []*model.GameRecord) GameList {
	list := GameList{Games: make([]Game, 0, len(records))}
	for _, r := range records {
		list.Games = append(list.Games, GameFromModel(r))
	}
	return list
}
