package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseCanTransitionTo(t *testing.T) {
	tests := []struct {
		from     Phase
		to       Phase
		expected bool
	}{
		{PhaseWaiting, PhaseNight, true},
		{PhaseWaiting, PhaseDay, false},
		{PhaseNight, PhaseDay, true},
		{PhaseNight, PhaseGameOver, true},
		{PhaseNight, PhaseDefense, false},
		{PhaseDay, PhaseDefense, true},
		{PhaseDay, PhaseNight, true},
		{PhaseDefense, PhaseFinalVote, true},
		{PhaseDefense, PhaseNight, false},
		{PhaseFinalVote, PhaseDay, true},
		{PhaseFinalVote, PhaseGameOver, true},
		{PhaseFinalVote, PhaseNight, false},
		{PhaseGameOver, PhaseWaiting, false},
		{PhaseGameOver, PhaseNight, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPhaseInProgress(t *testing.T) {
	assert.False(t, PhaseWaiting.InProgress())
	assert.True(t, PhaseNight.InProgress())
	assert.True(t, PhaseFinalVote.InProgress())
	assert.False(t, PhaseGameOver.InProgress())
}
