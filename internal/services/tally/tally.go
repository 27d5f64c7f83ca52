// Package tally holds the vote arithmetic shared by the day accusation and the final verdict.
// Everything here is a pure function of its inputs; callers pass the live alive count.
package tally

import "github.com/mcoot/ghoulgame/internal/model"

// Majority returns the number of votes needed to carry a decision among alive players
func Majority(alive int) int {
	return alive/2 + 1
}

// Count returns ballots per target, ordered by each target's first appearance in the ballots
func Count(ballots []model.Ballot) []model.VoteCount {
	counts := []model.VoteCount{}
	index := make(map[model.ConnectionID]int)
	for _, b := range ballots {
		i, ok := index[b.Target]
		if !ok {
			i = len(counts)
			index[b.Target] = i
			counts = append(counts, model.VoteCount{Target: b.Target})
		}
		counts[i].Votes++
	}
	return counts
}

// Accuse walks the ballots in cast order and returns the first target whose running
// count reaches the majority threshold
func Accuse(ballots []model.Ballot, alive int) (model.ConnectionID, bool) {
	if alive <= 0 {
		return "", false
	}
	needed := Majority(alive)
	running := make(map[model.ConnectionID]int)
	for _, b := range ballots {
		running[b.Target]++
		if running[b.Target] >= needed {
			return b.Target, true
		}
	}
	return "", false
}

// Outcome is the result of a completed final vote
type Outcome struct {
	Guilty   int
	Innocent int
	Execute  bool
}

// Complete reports whether every living player has cast a verdict
func Complete(verdicts []model.Verdict, alive int) bool {
	return len(verdicts) >= alive
}

// Verdict counts the final votes. The accused is executed when guilty verdicts
// outnumber half the living players.
func Verdict(verdicts []model.Verdict, alive int) Outcome {
	var o Outcome
	for _, v := range verdicts {
		if v.Guilty {
			o.Guilty++
		} else {
			o.Innocent++
		}
	}
	o.Execute = alive > 0 && o.Guilty*2 > alive
	return o
}
