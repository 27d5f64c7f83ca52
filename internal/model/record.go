package model

import "time"

// GameID identifies an archived game
type GameID string

// EliminationCause records how a player left play
type EliminationCause string

const (
	CauseKilled   EliminationCause = "killed"
	CauseExecuted EliminationCause = "executed"
	CauseLeft     EliminationCause = "left"
)

// Elimination is one player leaving play during a game
type Elimination struct {
	PlayerID ConnectionID     `json:"playerId"`
	Nickname string           `json:"nickname"`
	Role     Role             `json:"role"`
	Cause    EliminationCause `json:"cause"`
	Round    int              `json:"round"`
}

// RecordPlayer is a player's final state in an archived game
type RecordPlayer struct {
	Nickname string `json:"nickname"`
	Avatar   Avatar `json:"avatar"`
	Role     Role   `json:"role"`
	Survived bool   `json:"survived"`
}

// GameRecord is the archived summary of a finished game
type GameRecord struct {
	ID           GameID         `json:"id"`
	SessionID    SessionID      `json:"sessionId"`
	SessionName  string         `json:"sessionName"`
	Winner       Faction        `json:"winner"`
	Rounds       int            `json:"rounds"`
	Players      []RecordPlayer `json:"players"`
	Eliminations []Elimination  `json:"eliminations"`
	StartedAt    time.Time      `json:"startedAt"`
	EndedAt      time.Time      `json:"endedAt"`
}
