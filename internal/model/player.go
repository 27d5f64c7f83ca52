package model

import (
	"fmt"
	"time"
)

// ConnectionID identifies a connected client. It doubles as the player's identity
// within the session the connection has joined.
type ConnectionID string

// Role is the secret role dealt to a player at game start
type Role string

const (
	RoleUnassigned Role = ""
	RoleGhoul      Role = "ghoul"
	RoleVillager   Role = "villager"
)

// Avatar is a visual identifier, unique among the players of one session
type Avatar string

// NoAvatar is handed out when a session's avatar pool is exhausted
const NoAvatar Avatar = "Empty.png"

// AvatarCount is the number of distinct avatars available to a session
const AvatarCount = 20

// AvatarName returns the avatar with the given 1-based index
func AvatarName(i int) Avatar {
	return Avatar(fmt.Sprintf("Avatar%d.png", i))
}

// Player is a participant bound to one connection
type Player struct {
	ID       ConnectionID `json:"id"`
	Nickname string       `json:"nickname"`
	Avatar   Avatar       `json:"avatar"`
	Role     Role         `json:"-"`
	Alive    bool         `json:"alive"`
	JoinedAt time.Time    `json:"joinedAt"`
}

// PublicPlayer is the nickname/avatar pair shown to everyone
type PublicPlayer struct {
	ID       ConnectionID `json:"id"`
	Nickname string       `json:"nickname"`
	Avatar   Avatar       `json:"avatar"`
}

// Public strips everything but the player's public identity
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{ID: p.ID, Nickname: p.Nickname, Avatar: p.Avatar}
}
