package session

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/tally"
	"github.com/mcoot/ghoulgame/internal/services/timer"
)

// Start deals roles and opens the first night. Owner only.
func (m *Machine) Start(ctx context.Context, sess *Session, conn model.ConnectionID) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := m.member(sess, conn); err != nil {
		return err
	}
	st := sess.state
	switch {
	case st.Phase == model.PhaseGameOver:
		return model.ErrWrongPhase
	case st.Phase != model.PhaseWaiting:
		return model.ErrAlreadyStarted
	case !st.IsOwner(conn):
		return model.ErrNotOwner
	case len(st.Players) < m.config.MinPlayers:
		return model.ErrInsufficientPlayers
	}

	ghoul, _, err := m.assigner.Assign(st.Players)
	if err != nil {
		return err
	}

	now := m.clock.Now()
	st.GhoulID = ghoul.ID
	st.StartedAt = now
	st.UpdatedAt = now
	for _, p := range st.Players {
		p.Alive = true
	}
	sess.cast = slices.Clone(st.Players)

	players := make([]model.PublicPlayer, 0, len(st.Players))
	for _, p := range st.Players {
		m.send(sess, p.ID, model.NotifyRoleAssigned, model.RoleAssignedPayload{Role: p.Role})
		players = append(players, p.Public())
	}
	m.publish(sess, model.NotifyGameStarted, model.GameStartedPayload{Players: players})

	m.logger.Info("game started",
		slog.String("session_id", string(st.ID)),
		slog.Int("player_count", len(st.Players)),
	)

	m.enterNight(ctx, sess)
	return nil
}

// Kill is the Ghoul's night action
func (m *Machine) Kill(ctx context.Context, sess *Session, conn model.ConnectionID, targetID model.ConnectionID) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	caller, err := m.member(sess, conn)
	if err != nil {
		return err
	}
	st := sess.state
	if st.Phase != model.PhaseNight {
		return model.ErrWrongPhase
	}
	if !st.IsGhoul(conn) {
		return model.ErrNotGhoul
	}
	if !caller.Alive {
		return model.ErrNotAlive
	}
	target := st.GetPlayer(targetID)
	if target == nil {
		return model.ErrUnknownTarget
	}
	if target.ID == conn {
		return model.ErrInvalidTarget
	}
	if !target.Alive {
		return model.ErrTargetNotAlive
	}

	m.scheduler.Cancel(st.ID, timer.PurposeNightTimeout)
	m.eliminate(sess, target, model.CauseKilled)
	m.publish(sess, model.NotifyPlayerDied, model.PlayerDiedPayload{Player: target.Public(), Round: st.Round})
	m.send(sess, target.ID, model.NotifyKilled, model.KilledPayload{Round: st.Round})

	if m.checkWin(ctx, sess) {
		return nil
	}
	m.enterDay(ctx, sess)
	return nil
}

// Vote records a day accusation. Reaching the majority sends the target to trial.
func (m *Machine) Vote(ctx context.Context, sess *Session, conn model.ConnectionID, targetID model.ConnectionID) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	voter, err := m.member(sess, conn)
	if err != nil {
		return err
	}
	st := sess.state
	if st.Phase != model.PhaseDay {
		return model.ErrWrongPhase
	}
	if !voter.Alive {
		return model.ErrNotAlive
	}
	target := st.GetPlayer(targetID)
	if target == nil {
		return model.ErrUnknownTarget
	}
	if !target.Alive {
		return model.ErrTargetNotAlive
	}

	st.CastVote(conn, targetID)
	st.UpdatedAt = m.clock.Now()
	m.publish(sess, model.NotifyVoteCast, model.VoteCastPayload{
		Voter:    conn,
		Target:   targetID,
		Tally:    tally.Count(st.Votes),
		Majority: tally.Majority(st.AliveCount()),
	})

	m.evaluateAccusation(ctx, sess)
	return nil
}

// CastVerdict records one living player's guilty or not-guilty decision on the accused
func (m *Machine) CastVerdict(ctx context.Context, sess *Session, conn model.ConnectionID, guilty bool) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	voter, err := m.member(sess, conn)
	if err != nil {
		return err
	}
	st := sess.state
	if st.Phase != model.PhaseFinalVote {
		return model.ErrWrongPhase
	}
	if !voter.Alive {
		return model.ErrNotAlive
	}
	if st.HasVerdict(conn) {
		return model.ErrAlreadyVoted
	}

	st.FinalVotes = append(st.FinalVotes, model.Verdict{Voter: conn, Guilty: guilty})
	st.UpdatedAt = m.clock.Now()
	m.publish(sess, model.NotifyVerdictCast, model.VerdictCastPayload{
		Cast:   len(st.FinalVotes),
		Needed: st.AliveCount(),
	})

	m.resolveVerdict(ctx, sess)
	return nil
}

// PauseDayTimer stops the current day from ending on its own. Owner only.
func (m *Machine) PauseDayTimer(ctx context.Context, sess *Session, conn model.ConnectionID) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := m.member(sess, conn); err != nil {
		return err
	}
	st := sess.state
	if st.Phase != model.PhaseDay {
		return model.ErrWrongPhase
	}
	if !st.IsOwner(conn) {
		return model.ErrNotOwner
	}
	if st.DayTimerPaused {
		return nil
	}

	m.scheduler.Cancel(st.ID, timer.PurposeDayTimeout)
	st.DayTimerPaused = true
	st.Deadline = time.Time{}
	st.UpdatedAt = m.clock.Now()
	m.publish(sess, model.NotifyDayTimerPaused, model.DayTimerPausedPayload{Round: st.Round})

	return nil
}

// EndPhase lets the owner cut the current day or night short. A night ended this way
// passes without a kill.
func (m *Machine) EndPhase(ctx context.Context, sess *Session, conn model.ConnectionID) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := m.member(sess, conn); err != nil {
		return err
	}
	st := sess.state
	if st.Phase != model.PhaseDay && st.Phase != model.PhaseNight {
		return model.ErrWrongPhase
	}
	if !st.IsOwner(conn) {
		return model.ErrNotOwner
	}

	if st.Phase == model.PhaseDay {
		m.enterNight(ctx, sess)
	} else {
		m.nightWithoutKill(ctx, sess)
	}
	return nil
}
