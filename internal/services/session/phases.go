package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/tally"
	"github.com/mcoot/ghoulgame/internal/services/timer"
)

// transition moves the session to next. Every transition clears ballots and verdicts,
// and the accused only survives into Defense and FinalVote.
func (m *Machine) transition(sess *Session, next model.Phase, deadline time.Time) bool {
	st := sess.state
	if !st.Phase.CanTransitionTo(next) {
		m.logger.Error("illegal phase transition",
			slog.String("session_id", string(st.ID)),
			slog.String("from", st.Phase.String()),
			slog.String("to", next.String()),
		)
		return false
	}

	st.Phase = next
	st.ResetVotes()
	if next != model.PhaseDefense && next != model.PhaseFinalVote {
		st.Accused = nil
	}
	st.Deadline = deadline
	st.UpdatedAt = m.clock.Now()

	m.publish(sess, model.NotifyPhaseChanged, model.PhaseChangedPayload{
		Phase:    next,
		Round:    st.Round,
		Deadline: deadlinePtr(deadline),
	})

	m.logger.Debug("phase changed",
		slog.String("session_id", string(st.ID)),
		slog.String("phase", next.String()),
		slog.Int("round", st.Round),
	)
	return true
}

// onTimer wraps a phase-expiry action so it runs under the session lock and only if the
// timer is still current and the session is still in the phase it was scheduled for
func (m *Machine) onTimer(sess *Session, expected model.Phase, fire func(ctx context.Context)) func(timer.Token) {
	return func(token timer.Token) {
		sess.mu.Lock()
		defer sess.mu.Unlock()

		if sess.closed || !m.scheduler.Claim(token) {
			return
		}
		if sess.state.Phase != expected {
			return
		}
		fire(context.Background())
	}
}

func (m *Machine) enterNight(ctx context.Context, sess *Session) {
	st := sess.state
	m.scheduler.Cancel(st.ID, timer.PurposeDayTimeout)
	st.Round++
	st.DayTimerPaused = false

	token := m.scheduler.Schedule(st.ID, timer.PurposeNightTimeout, m.config.NightDuration,
		m.onTimer(sess, model.PhaseNight, func(ctx context.Context) {
			m.nightWithoutKill(ctx, sess)
		}),
	)
	if !m.transition(sess, model.PhaseNight, token.Deadline) {
		m.scheduler.Cancel(st.ID, timer.PurposeNightTimeout)
		return
	}

	m.send(sess, st.GhoulID, model.NotifyNightPhase, model.NightPhasePayload{
		Round:   st.Round,
		Targets: st.TargetsFor(st.GhoulID),
	})
}

func (m *Machine) nightWithoutKill(ctx context.Context, sess *Session) {
	m.scheduler.Cancel(sess.state.ID, timer.PurposeNightTimeout)
	m.publishLog(sess, "No attack occurred tonight")
	m.enterDay(ctx, sess)
}

func (m *Machine) enterDay(ctx context.Context, sess *Session) {
	st := sess.state
	m.scheduler.Cancel(st.ID, timer.PurposeNightTimeout)

	var deadline time.Time
	if !st.DayTimerPaused {
		token := m.scheduler.Schedule(st.ID, timer.PurposeDayTimeout, m.config.DayDuration,
			m.onTimer(sess, model.PhaseDay, func(ctx context.Context) {
				m.enterNight(ctx, sess)
			}),
		)
		deadline = token.Deadline
	}
	if !m.transition(sess, model.PhaseDay, deadline) {
		m.scheduler.Cancel(st.ID, timer.PurposeDayTimeout)
		return
	}

	alive := st.AliveCount()
	m.publish(sess, model.NotifyDayStart, model.DayStartPayload{
		Round:    st.Round,
		Alive:    alive,
		Majority: tally.Majority(alive),
		Deadline: deadlinePtr(deadline),
	})
}

// evaluateAccusation sends the first target to reach the live majority to trial
func (m *Machine) evaluateAccusation(ctx context.Context, sess *Session) {
	st := sess.state
	accused, ok := tally.Accuse(st.Votes, st.AliveCount())
	if !ok {
		return
	}
	m.enterDefense(ctx, sess, accused)
}

func (m *Machine) enterDefense(ctx context.Context, sess *Session, accused model.ConnectionID) {
	st := sess.state
	player := st.GetPlayer(accused)
	if player == nil {
		return
	}

	m.scheduler.Cancel(st.ID, timer.PurposeDayTimeout)
	st.Accused = &accused

	token := m.scheduler.Schedule(st.ID, timer.PurposeDefenseDelay, m.config.DefenseDelay,
		m.onTimer(sess, model.PhaseDefense, func(ctx context.Context) {
			m.enterFinalVote(ctx, sess)
		}),
	)
	if !m.transition(sess, model.PhaseDefense, token.Deadline) {
		m.scheduler.Cancel(st.ID, timer.PurposeDefenseDelay)
		return
	}

	m.publish(sess, model.NotifyDefensePhase, model.DefensePhasePayload{
		Accused:  player.Public(),
		Deadline: deadlinePtr(token.Deadline),
	})
}

func (m *Machine) enterFinalVote(ctx context.Context, sess *Session) {
	st := sess.state
	var accused *model.Player
	if st.Accused != nil {
		accused = st.GetPlayer(*st.Accused)
	}
	if accused == nil {
		m.enterDay(ctx, sess)
		return
	}

	if !m.transition(sess, model.PhaseFinalVote, time.Time{}) {
		return
	}
	m.publish(sess, model.NotifyFinalVotePhase, model.FinalVotePhasePayload{
		Accused: accused.Public(),
		Needed:  st.AliveCount(),
	})
}

// resolveVerdict settles the trial once every living player has cast a verdict
func (m *Machine) resolveVerdict(ctx context.Context, sess *Session) {
	st := sess.state
	alive := st.AliveCount()
	if !tally.Complete(st.FinalVotes, alive) {
		return
	}

	var accused *model.Player
	if st.Accused != nil {
		accused = st.GetPlayer(*st.Accused)
	}
	if accused == nil {
		m.enterDay(ctx, sess)
		return
	}

	outcome := tally.Verdict(st.FinalVotes, alive)
	payload := model.VerdictPayload{
		Player:   accused.Public(),
		Guilty:   outcome.Guilty,
		Innocent: outcome.Innocent,
	}
	if outcome.Execute {
		m.eliminate(sess, accused, model.CauseExecuted)
		m.publish(sess, model.NotifyExecuted, payload)
	} else {
		m.publish(sess, model.NotifySpared, payload)
	}

	st.Accused = nil
	st.ResetVotes()

	if m.checkWin(ctx, sess) {
		return
	}
	m.enterDay(ctx, sess)
}

func (m *Machine) eliminate(sess *Session, player *model.Player, cause model.EliminationCause) {
	st := sess.state
	player.Alive = false
	st.Eliminations = append(st.Eliminations, model.Elimination{
		PlayerID: player.ID,
		Nickname: player.Nickname,
		Role:     player.Role,
		Cause:    cause,
		Round:    st.Round,
	})
}

// checkWin ends the game if either faction has no living members, reporting whether it did
func (m *Machine) checkWin(ctx context.Context, sess *Session) bool {
	st := sess.state
	if !st.Phase.InProgress() {
		return false
	}

	switch {
	case st.LivingWithRole(model.RoleGhoul) == 0:
		m.endGame(ctx, sess, model.FactionVillagers)
		return true
	case st.LivingWithRole(model.RoleVillager) == 0:
		m.endGame(ctx, sess, model.FactionGhoul)
		return true
	}
	return false
}

func (m *Machine) endGame(ctx context.Context, sess *Session, winner model.Faction) {
	st := sess.state
	m.scheduler.CancelSession(st.ID)
	st.Winner = winner
	st.DayTimerPaused = false
	m.transition(sess, model.PhaseGameOver, time.Time{})

	var ghoul model.PublicPlayer
	reveals := make([]model.RoleReveal, 0, len(sess.cast))
	for _, p := range sess.cast {
		reveals = append(reveals, model.RoleReveal{Player: p.Public(), Role: p.Role, Alive: p.Alive})
		if p.Role == model.RoleGhoul {
			ghoul = p.Public()
		}
	}

	gameID := m.archive(ctx, sess)

	m.publish(sess, model.NotifyGameOver, model.GameOverPayload{
		Winner: winner,
		Ghoul:  ghoul,
		Roles:  reveals,
		GameID: gameID,
	})

	m.logger.Info("game over",
		slog.String("session_id", string(st.ID)),
		slog.String("winner", string(winner)),
		slog.Int("rounds", st.Round),
	)
}

// archiveTimeout bounds the archive write, which runs under the session lock
const archiveTimeout = 5 * time.Second

// archive stores the finished game, returning its ID or "" if it could not be saved
func (m *Machine) archive(ctx context.Context, sess *Session) model.GameID {
	st := sess.state
	record := &model.GameRecord{
		ID:           model.GameID(uuid.NewString()),
		SessionID:    st.ID,
		SessionName:  st.Name,
		Winner:       st.Winner,
		Rounds:       st.Round,
		Players:      make([]model.RecordPlayer, 0, len(sess.cast)),
		Eliminations: append([]model.Elimination(nil), st.Eliminations...),
		StartedAt:    st.StartedAt,
		EndedAt:      m.clock.Now(),
	}
	for _, p := range sess.cast {
		record.Players = append(record.Players, model.RecordPlayer{
			Nickname: p.Nickname,
			Avatar:   p.Avatar,
			Role:     p.Role,
			Survived: p.Alive,
		})
	}

	// The game is over whether or not the triggering request is still around
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := m.storage.SaveGameRecord(saveCtx, record); err != nil {
		m.logger.Error("failed to archive game",
			slog.String("session_id", string(st.ID)),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return record.ID
}
