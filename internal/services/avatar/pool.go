package avatar

import (
	"github.com/mcoot/ghoulgame/internal/dependencies/random"
	"github.com/mcoot/ghoulgame/internal/model"
)

// Pool hands out avatars to the players of one session, drawn uniformly at random
// without replacement. It is not safe for concurrent use; the owning session's lock guards it.
type Pool struct {
	random    random.Random
	available []model.Avatar
	drawn     map[model.Avatar]bool
}

// NewPool creates a full pool of model.AvatarCount avatars
func NewPool(rnd random.Random) *Pool {
	available := make([]model.Avatar, 0, model.AvatarCount)
	for i := 1; i <= model.AvatarCount; i++ {
		available = append(available, model.AvatarName(i))
	}
	return &Pool{
		random:    rnd,
		available: available,
		drawn:     make(map[model.Avatar]bool, model.AvatarCount),
	}
}

// Draw removes and returns a random avatar, or model.NoAvatar if the pool is exhausted
func (p *Pool) Draw() model.Avatar {
	if len(p.available) == 0 {
		return model.NoAvatar
	}

	i := p.random.Intn(len(p.available))
	if i < 0 || i >= len(p.available) {
		i = 0
	}

	avatar := p.available[i]
	last := len(p.available) - 1
	p.available[i] = p.available[last]
	p.available = p.available[:last]
	p.drawn[avatar] = true

	return avatar
}

// Release returns a previously drawn avatar to the pool.
// Avatars this pool never handed out, including model.NoAvatar, are ignored.
func (p *Pool) Release(avatar model.Avatar) {
	if !p.drawn[avatar] {
		return
	}
	delete(p.drawn, avatar)
	p.available = append(p.available, avatar)
}

// Remaining returns how many avatars can still be drawn
func (p *Pool) Remaining() int {
	return len(p.available)
}
