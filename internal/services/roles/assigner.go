package roles

import (
	"github.com/mcoot/ghoulgame/internal/dependencies/random"
	"github.com/mcoot/ghoulgame/internal/model"
)

// Assigner deals the secret roles at game start
type Assigner struct {
	random random.Random
}

// NewAssigner creates a new Assigner
func NewAssigner(random random.Random) *Assigner {
	return &Assigner{random: random}
}

// Assign shuffles the players uniformly and makes the first one the Ghoul.
// The input slice is left untouched; roles are written onto the players themselves.
// Enforcing a minimum player count is the caller's job.
func (a *Assigner) Assign(players []*model.Player) (*model.Player, []*model.Player, error) {
	if len(players) == 0 {
		return nil, nil, model.ErrInsufficientPlayers
	}

	shuffled := make([]*model.Player, len(players))
	copy(shuffled, players)
	a.random.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	ghoul := shuffled[0]
	ghoul.Role = model.RoleGhoul
	villagers := shuffled[1:]
	for _, p := range villagers {
		p.Role = model.RoleVillager
	}

	return ghoul, villagers, nil
}
