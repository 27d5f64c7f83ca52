package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Connection:
		o.printConnection(v)
	case SessionList:
		o.printSessionList(v)
	case Session:
		o.printSession(v)
	case Membership:
		o.printMembership(v)
	case GameList:
		o.printGameList(v)
	case Game:
		o.printGame(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Connection response type (matches API)
type Connection struct {
	ConnectionID string    `json:"connection_id"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Player response type
type Player struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Alive    bool   `json:"alive"`
}

// SessionSummary response type
type SessionSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PlayerCount int       `json:"player_count"`
	Private     bool      `json:"private"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionList response type
type SessionList struct {
	Sessions []SessionSummary `json:"sessions"`
}

// RosterSlot response type
type RosterSlot struct {
	Seat     int    `json:"seat"`
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Alive    bool   `json:"alive"`
	Owner    bool   `json:"owner"`
}

// Session response type
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

// Membership response type
type Membership struct {
	Session Session `json:"session"`
	Player  Player  `json:"player"`
}

// GamePlayer response type
type GamePlayer struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
	Survived bool   `json:"survived"`
}

// Elimination response type
type Elimination struct {
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
	Cause    string `json:"cause"`
	Round    int    `json:"round"`
}

// Game response type
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

// GameList response type
type GameList struct {
	Games []Game `json:"games"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printConnection(c Connection) {
	fmt.Printf("Connection: %s\n", c.ConnectionID)
	fmt.Printf("Expires: %s\n", c.ExpiresAt.Local().Format(time.DateTime))
}

func (o *Output) printSessionList(l SessionList) {
	if len(l.Sessions) == 0 {
		fmt.Println("No sessions waiting for players")
		return
	}
	for _, s := range l.Sessions {
		lock := ""
		if s.Private {
			lock = " [password]"
		}
		fmt.Printf("%s  %-24s %2d players%s\n", s.ID, s.Name, s.PlayerCount, lock)
	}
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Session: %s (%s)\n", s.ID, s.Name)
	fmt.Printf("Phase: %s\n", s.Phase)
	if s.Round > 0 {
		fmt.Printf("Round: %d\n", s.Round)
	}
	if s.Deadline != nil {
		fmt.Printf("Phase ends: %s\n", s.Deadline.Local().Format(time.TimeOnly))
	}
	if s.Accused != "" {
		fmt.Printf("Accused: %s\n", o.nickname(s, s.Accused))
	}
	if s.Winner != "" {
		fmt.Printf("Winner: %s\n", s.Winner)
	}

	fmt.Printf("Players (%d/%d):\n", len(s.Roster), s.Capacity)
	for _, p := range s.Roster {
		var tags []string
		if p.Owner {
			tags = append(tags, "owner")
		}
		if !p.Alive && s.Phase != "waiting" {
			tags = append(tags, "dead")
		}
		tagStr := ""
		if len(tags) > 0 {
			tagStr = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Printf("  %2d. %s (%s)%s\n", p.Seat+1, p.Nickname, p.ID, tagStr)
	}
}

func (o *Output) nickname(s Session, id string) string {
	for _, p := range s.Roster {
		if p.ID == id {
			return p.Nickname
		}
	}
	return id
}

func (o *Output) printMembership(m Membership) {
	fmt.Printf("Joined as %s (%s)\n\n", m.Player.Nickname, m.Player.Avatar)
	o.printSession(m.Session)
}

func (o *Output) printGameList(l GameList) {
	if len(l.Games) == 0 {
		fmt.Println("No finished games")
		return
	}
	for _, g := range l.Games {
		fmt.Printf("%s  %s  %-20s %s won after %d rounds\n",
			g.ID, g.EndedAt.Local().Format(time.DateTime), g.SessionName, g.Winner, g.Rounds)
	}
}

func (o *Output) printGame(g Game) {
	fmt.Printf("Game: %s\n", g.ID)
	fmt.Printf("Session: %s (%s)\n", g.SessionName, g.SessionID)
	fmt.Printf("Winner: %s\n", g.Winner)
	fmt.Printf("Rounds: %d\n", g.Rounds)
	fmt.Printf("Duration: %s\n", g.EndedAt.Sub(g.StartedAt).Round(time.Second))

	fmt.Println("\nPlayers:")
	for _, p := range g.Players {
		status := "survived"
		if !p.Survived {
			status = "died"
		}
		fmt.Printf("  %s - %s, %s\n", p.Nickname, p.Role, status)
	}

	if len(g.Eliminations) > 0 {
		fmt.Println("\nEliminations:")
		for _, e := range g.Eliminations {
			fmt.Printf("  round %d: %s (%s) %s\n", e.Round, e.Nickname, e.Role, e.Cause)
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
