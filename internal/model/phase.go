package model

import "slices"

// Phase is the current stage of a session's day/night cycle
type Phase string

const (
	PhaseWaiting   Phase = "waiting"    // Lobby open, game not started
	PhaseNight     Phase = "night"      // Ghoul picks a victim
	PhaseDay       Phase = "day"        // Open discussion and accusation votes
	PhaseDefense   Phase = "defense"    // Accused player defends themselves
	PhaseFinalVote Phase = "final_vote" // Guilty/not-guilty verdict on the accused
	PhaseGameOver  Phase = "game_over"  // Terminal
)

var phaseTransitions = map[Phase][]Phase{
	PhaseWaiting:   {PhaseNight},
	PhaseNight:     {PhaseDay, PhaseGameOver},
	PhaseDay:       {PhaseDefense, PhaseNight, PhaseGameOver},
	PhaseDefense:   {PhaseFinalVote, PhaseDay, PhaseGameOver},
	PhaseFinalVote: {PhaseDay, PhaseGameOver},
}

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo reports whether moving from p to target is a legal edge
func (p Phase) CanTransitionTo(target Phase) bool {
	return slices.Contains(phaseTransitions[p], target)
}

// InProgress reports whether a game is being played in this phase
func (p Phase) InProgress() bool {
	return p != PhaseWaiting && p != PhaseGameOver
}
