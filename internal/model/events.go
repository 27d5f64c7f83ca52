package model

import "time"

// NotificationType identifies an outbound notification
type NotificationType string

const (
	// Connection and discovery
	NotifyConnected   NotificationType = "connected"
	NotifySessionList NotificationType = "sessionList"
	NotifyRejected    NotificationType = "rejected"

	// Lobby
	NotifySessionJoined NotificationType = "sessionJoined"
	NotifyRosterUpdated NotificationType = "rosterUpdated"

	// Game flow
	NotifyRoleAssigned   NotificationType = "roleAssigned"
	NotifyGameStarted    NotificationType = "gameStarted"
	NotifyPhaseChanged   NotificationType = "phaseChanged"
	NotifyNightPhase     NotificationType = "nightPhase"
	NotifyPlayerDied     NotificationType = "playerDied"
	NotifyKilled         NotificationType = "killed"
	NotifyDayStart       NotificationType = "dayStart"
	NotifyVoteCast       NotificationType = "voteCast"
	NotifyDefensePhase   NotificationType = "defensePhase"
	NotifyFinalVotePhase NotificationType = "finalVotePhase"
	NotifyVerdictCast    NotificationType = "verdictCast"
	NotifyExecuted       NotificationType = "executed"
	NotifySpared         NotificationType = "spared"
	NotifyGameOver       NotificationType = "gameOver"
	NotifyDayTimerPaused NotificationType = "dayTimerPaused"
	NotifyLog            NotificationType = "log"
)

// Notification is a message sent from the server to one or more connections
type Notification struct {
	Type      NotificationType `json:"type"`
	SessionID SessionID        `json:"sessionId,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   any              `json:"payload,omitempty"`
}

// ConnectedPayload tells a new connection its identity
type ConnectedPayload struct {
	ConnectionID ConnectionID `json:"connectionId"`
}

// SessionListPayload lists joinable sessions
type SessionListPayload struct {
	Sessions []SessionSummary `json:"sessions"`
}

// RejectedPayload reports a command that was refused
type RejectedPayload struct {
	Command string `json:"command"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionJoinedPayload is sent privately to a connection that created or joined a session
type SessionJoinedPayload struct {
	SessionID SessionID              `json:"sessionId"`
	Player    Player                 `json:"player"`
	Roster    [MaxPlayers]RosterSlot `json:"roster"`
}

// RosterUpdatedPayload carries the current roster grid
type RosterUpdatedPayload struct {
	OwnerID ConnectionID           `json:"ownerId"`
	Roster  [MaxPlayers]RosterSlot `json:"roster"`
}

// RoleAssignedPayload privately tells a player their role
type RoleAssignedPayload struct {
	Role Role `json:"role"`
}

// GameStartedPayload lists the players taking part
type GameStartedPayload struct {
	Players []PublicPlayer `json:"players"`
}

// PhaseChangedPayload announces every phase transition
type PhaseChangedPayload struct {
	Phase    Phase      `json:"phase"`
	Round    int        `json:"round"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// NightPhasePayload privately gives the ghoul their eligible targets
type NightPhasePayload struct {
	Round   int            `json:"round"`
	Targets []PublicPlayer `json:"targets"`
}

// PlayerDiedPayload announces a player killed during the night
type PlayerDiedPayload struct {
	Player PublicPlayer `json:"player"`
	Round  int          `json:"round"`
}

// KilledPayload privately tells the victim they were eliminated
type KilledPayload struct {
	Round int `json:"round"`
}

// DayStartPayload opens the day
type DayStartPayload struct {
	Round    int        `json:"round"`
	Alive    int        `json:"alive"`
	Majority int        `json:"majority"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// VoteCount is the number of ballots naming one target
type VoteCount struct {
	Target ConnectionID `json:"target"`
	Votes  int          `json:"votes"`
}

// VoteCastPayload publishes a ballot and the running tally
type VoteCastPayload struct {
	Voter    ConnectionID `json:"voter"`
	Target   ConnectionID `json:"target"`
	Tally    []VoteCount  `json:"tally"`
	Majority int          `json:"majority"`
}

// DefensePhasePayload names the accused
type DefensePhasePayload struct {
	Accused  PublicPlayer `json:"accused"`
	Deadline *time.Time   `json:"deadline,omitempty"`
}

// FinalVotePhasePayload opens the verdict
type FinalVotePhasePayload struct {
	Accused PublicPlayer `json:"accused"`
	Needed  int          `json:"needed"`
}

// VerdictCastPayload reports progress without revealing individual verdicts
type VerdictCastPayload struct {
	Cast   int `json:"cast"`
	Needed int `json:"needed"`
}

// VerdictPayload is the outcome of a final vote, used by both executed and spared
type VerdictPayload struct {
	Player   PublicPlayer `json:"player"`
	Guilty   int          `json:"guilty"`
	Innocent int          `json:"innocent"`
}

// RoleReveal discloses one player's role once the game is over
type RoleReveal struct {
	Player PublicPlayer `json:"player"`
	Role   Role         `json:"role"`
	Alive  bool         `json:"alive"`
}

// GameOverPayload announces the winning faction
type GameOverPayload struct {
	Winner Faction      `json:"winner"`
	Ghoul  PublicPlayer `json:"ghoul"`
	Roles  []RoleReveal `json:"roles"`
	GameID GameID       `json:"gameId,omitempty"`
}

// DayTimerPausedPayload announces that the day will not end on its own
type DayTimerPausedPayload struct {
	Round int `json:"round"`
}

// LogPayload is a free-text status line
type LogPayload struct {
	Message string `json:"message"`
}
