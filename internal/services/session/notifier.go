package session

import (
	"time"

	"github.com/mcoot/ghoulgame/internal/model"
)

// Notifier delivers outbound notifications to connections. It is implemented by the gateway.
// Implementations must not block and must not call back into the session machine.
type Notifier interface {
	// Subscribe adds the connection to the session's audience
	Subscribe(session model.SessionID, conn model.ConnectionID)
	// Unsubscribe removes the connection from the session's audience
	Unsubscribe(session model.SessionID, conn model.ConnectionID)
	// Publish sends to every connection subscribed to the session
	Publish(session model.SessionID, n model.Notification)
	// Send delivers privately to one connection
	Send(conn model.ConnectionID, n model.Notification)
	// Broadcast sends to every open connection
	Broadcast(n model.Notification)
}

// Config holds the game timing and size rules
type Config struct {
	NightDuration time.Duration
	DayDuration   time.Duration
	DefenseDelay  time.Duration
	MinPlayers    int
}

// DefaultConfig returns the standard game rules
func DefaultConfig() Config {
	return Config{
		NightDuration: 60 * time.Second,
		DayDuration:   3 * time.Minute,
		DefenseDelay:  10 * time.Second,
		MinPlayers:    model.MinPlayers,
	}
}
