package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/ghoulgame/internal/dependencies/clock"
	"github.com/mcoot/ghoulgame/internal/dependencies/random"
	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/avatar"
	"github.com/mcoot/ghoulgame/internal/services/roles"
	"github.com/mcoot/ghoulgame/internal/services/timer"
	"github.com/mcoot/ghoulgame/internal/storage"
)

// Machine runs the day/night cycle for every session. It holds no per-session state of its
// own; each operation takes the target Session and runs under that session's lock.
type Machine struct {
	config    Config
	scheduler *timer.Scheduler
	assigner  *roles.Assigner
	storage   storage.Storage
	notifier  Notifier
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

// NewMachine creates a new Machine
func NewMachine(
	config Config,
	scheduler *timer.Scheduler,
	assigner *roles.Assigner,
	storage storage.Storage,
	notifier Notifier,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Machine {
	return &Machine{
		config:    config,
		scheduler: scheduler,
		assigner:  assigner,
		storage:   storage,
		notifier:  notifier,
		clock:     clock,
		random:    random,
		logger:    logger,
	}
}

// NewSession creates a waiting session with the owner as its sole player
func (m *Machine) NewSession(ctx context.Context, id model.SessionID, name, passwordHash string, owner model.ConnectionID, nickname string) (*Session, model.Player) {
	now := m.clock.Now()
	pool := avatar.NewPool(m.random)

	player := &model.Player{
		ID:       owner,
		Nickname: nickname,
		Avatar:   pool.Draw(),
		Alive:    true,
		JoinedAt: now,
	}

	sess := &Session{
		state: &model.Session{
			ID:           id,
			Name:         name,
			OwnerID:      owner,
			Players:      []*model.Player{player},
			Phase:        model.PhaseWaiting,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		pool:         pool,
		id:           id,
		passwordHash: passwordHash,
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	m.welcome(sess, player)

	m.logger.Info("session created",
		slog.String("session_id", string(id)),
		slog.String("owner", string(owner)),
		slog.Bool("private", passwordHash != ""),
	)

	return sess, *player
}

// AddPlayer seats a new player in a waiting session
func (m *Machine) AddPlayer(ctx context.Context, sess *Session, conn model.ConnectionID, nickname string) (model.Player, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return model.Player{}, model.ErrSessionNotFound
	}
	st := sess.state
	if st.IsFull() {
		return model.Player{}, model.ErrSessionFull
	}
	if st.Phase != model.PhaseWaiting {
		return model.Player{}, model.ErrAlreadyStarted
	}
	if st.GetPlayer(conn) != nil {
		return model.Player{}, model.ErrAlreadyInSession
	}

	now := m.clock.Now()
	player := &model.Player{
		ID:       conn,
		Nickname: nickname,
		Avatar:   sess.pool.Draw(),
		Alive:    true,
		JoinedAt: now,
	}
	st.Players = append(st.Players, player)
	st.UpdatedAt = now

	m.welcome(sess, player)

	m.logger.Info("player joined",
		slog.String("session_id", string(st.ID)),
		slog.String("connection_id", string(conn)),
		slog.Int("player_count", len(st.Players)),
	)

	return *player, nil
}

// RemovePlayer takes the connection out of the session, whether by leaving or disconnecting.
// It reports whether the session is now empty, in which case it has been closed and the
// caller must drop it.
func (m *Machine) RemovePlayer(ctx context.Context, sess *Session, conn model.ConnectionID) (bool, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return false, model.ErrSessionNotFound
	}
	st := sess.state
	player := st.RemovePlayer(conn)
	if player == nil {
		return false, model.ErrNotInSession
	}

	sess.pool.Release(player.Avatar)
	m.notifier.Unsubscribe(st.ID, conn)
	st.UpdatedAt = m.clock.Now()

	logger := m.logger.With(
		slog.String("session_id", string(st.ID)),
		slog.String("connection_id", string(conn)),
	)

	if len(st.Players) == 0 {
		sess.closed = true
		m.scheduler.CancelSession(st.ID)
		logger.Info("session closed")
		return true, nil
	}

	if st.OwnerID == conn {
		st.OwnerID = successor(st).ID
		logger.Info("ownership transferred", slog.String("new_owner", string(st.OwnerID)))
	}

	departedAlive := st.Phase.InProgress() && player.Alive
	if departedAlive {
		m.eliminate(sess, player, model.CauseLeft)
		m.publishLog(sess, fmt.Sprintf("%s left the game", player.Nickname))
	}
	m.publishRoster(sess)
	logger.Info("player removed", slog.Int("player_count", len(st.Players)))

	if !departedAlive {
		return false, nil
	}
	if m.checkWin(ctx, sess) {
		return false, nil
	}

	switch st.Phase {
	case model.PhaseDay:
		m.evaluateAccusation(ctx, sess)
	case model.PhaseDefense, model.PhaseFinalVote:
		if st.Accused != nil && *st.Accused == conn {
			m.scheduler.Cancel(st.ID, timer.PurposeDefenseDelay)
			m.publishLog(sess, fmt.Sprintf("%s fled before the verdict", player.Nickname))
			m.enterDay(ctx, sess)
			return false, nil
		}
		if st.Phase == model.PhaseFinalVote {
			m.resolveVerdict(ctx, sess)
		}
	}

	return false, nil
}

// Shutdown tears the session down without eliminating anyone or archiving a result.
// Pending timers are cancelled and every player is dropped from the audience.
func (m *Machine) Shutdown(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return
	}
	sess.closed = true
	st := sess.state
	m.scheduler.CancelSession(st.ID)
	for _, p := range st.Players {
		m.notifier.Unsubscribe(st.ID, p.ID)
	}
	m.logger.Info("session shut down",
		slog.String("session_id", string(st.ID)),
		slog.String("phase", string(st.Phase)),
		slog.Int("player_count", len(st.Players)),
	)
}

// successor picks the next owner: the earliest joiner, skipping the dead while a game runs
func successor(st *model.Session) *model.Player {
	if st.Phase.InProgress() {
		for _, p := range st.Players {
			if p.Alive {
				return p
			}
		}
	}
	return st.Players[0]
}

// welcome subscribes a newly seated player and tells everyone about them
func (m *Machine) welcome(sess *Session, player *model.Player) {
	st := sess.state
	m.notifier.Subscribe(st.ID, player.ID)
	m.send(sess, player.ID, model.NotifySessionJoined, model.SessionJoinedPayload{
		SessionID: st.ID,
		Player:    *player,
		Roster:    st.Roster(),
	})
	m.publishRoster(sess)
}

// member resolves the calling player, failing if the session is gone or they are not in it
func (m *Machine) member(sess *Session, conn model.ConnectionID) (*model.Player, error) {
	if sess.closed {
		return nil, model.ErrSessionNotFound
	}
	player := sess.state.GetPlayer(conn)
	if player == nil {
		return nil, model.ErrNotInSession
	}
	return player, nil
}

func (m *Machine) notification(sess *Session, t model.NotificationType, payload any) model.Notification {
	return model.Notification{
		Type:      t,
		SessionID: sess.state.ID,
		Timestamp: m.clock.Now(),
		Payload:   payload,
	}
}

func (m *Machine) publish(sess *Session, t model.NotificationType, payload any) {
	m.notifier.Publish(sess.state.ID, m.notification(sess, t, payload))
}

func (m *Machine) send(sess *Session, conn model.ConnectionID, t model.NotificationType, payload any) {
	m.notifier.Send(conn, m.notification(sess, t, payload))
}

func (m *Machine) publishLog(sess *Session, message string) {
	m.publish(sess, model.NotifyLog, model.LogPayload{Message: message})
}

func (m *Machine) publishRoster(sess *Session) {
	m.publish(sess, model.NotifyRosterUpdated, model.RosterUpdatedPayload{
		OwnerID: sess.state.OwnerID,
		Roster:  sess.state.Roster(),
	})
}

func deadlinePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
