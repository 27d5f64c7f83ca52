package lobby

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/ghoulgame/internal/dependencies/clock"
	"github.com/mcoot/ghoulgame/internal/dependencies/random"
	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/auth"
	"github.com/mcoot/ghoulgame/internal/services/session"
)

const (
	// SessionCodeLength is the length of generated session codes
	SessionCodeLength = 5
	// SessionCodeAlphabet is the characters used in session codes (avoid confusing chars)
	SessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 32
)

// CreateRequest describes a new session
type CreateRequest struct {
	Name     string
	Nickname string
	Password string
}

// JoinRequest describes a player joining an existing session
type JoinRequest struct {
	Nickname string
	Password string
}

// Registry owns the set of live sessions and the connection-to-session index.
// A connection belongs to at most one session at a time.
type Registry struct {
	machine  *session.Machine
	auth     *auth.Service
	notifier session.Notifier
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[model.SessionID]*session.Session
	byConn   map[model.ConnectionID]model.SessionID
}

// NewRegistry creates an empty Registry
func NewRegistry(
	machine *session.Machine,
	auth *auth.Service,
	notifier session.Notifier,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		machine:  machine,
		auth:     auth,
		notifier: notifier,
		clock:    clock,
		random:   random,
		logger:   logger,
		sessions: make(map[model.SessionID]*session.Session),
		byConn:   make(map[model.ConnectionID]model.SessionID),
	}
}

// Create opens a new session with the caller as owner and sole player
func (r *Registry) Create(ctx context.Context, conn model.ConnectionID, req CreateRequest) (model.SessionView, model.Player, error) {
	nickname, err := normalizeNickname(req.Nickname)
	if err != nil {
		return model.SessionView{}, model.Player{}, err
	}
	name := normalizeSessionName(req.Name, nickname)

	var passwordHash string
	if req.Password != "" {
		passwordHash, err = r.auth.HashPassword(req.Password)
		if err != nil {
			return model.SessionView{}, model.Player{}, err
		}
	}

	r.mu.Lock()
	if _, ok := r.byConn[conn]; ok {
		r.mu.Unlock()
		return model.SessionView{}, model.Player{}, model.ErrAlreadyInSession
	}
	id, err := r.generateCodeLocked()
	if err != nil {
		r.mu.Unlock()
		return model.SessionView{}, model.Player{}, err
	}
	sess, player := r.machine.NewSession(ctx, id, name, passwordHash, conn, nickname)
	r.sessions[id] = sess
	r.byConn[conn] = id
	r.mu.Unlock()

	r.BroadcastSessionList()
	return sess.View(), player, nil
}

// Join seats the caller in an existing waiting session
func (r *Registry) Join(ctx context.Context, id model.SessionID, conn model.ConnectionID, req JoinRequest) (model.Player, error) {
	nickname, err := normalizeNickname(req.Nickname)
	if err != nil {
		return model.Player{}, err
	}
	id = normalizeCode(id)

	r.mu.RLock()
	sess, ok := r.sessions[id]
	_, seated := r.byConn[conn]
	r.mu.RUnlock()
	if !ok {
		return model.Player{}, model.ErrSessionNotFound
	}
	if seated {
		return model.Player{}, model.ErrAlreadyInSession
	}

	// bcrypt is slow, so the password is checked without holding the registry lock
	if err := r.auth.CheckPassword(sess.PasswordHash(), req.Password); err != nil {
		return model.Player{}, err
	}

	r.mu.Lock()
	if r.sessions[id] != sess {
		r.mu.Unlock()
		return model.Player{}, model.ErrSessionNotFound
	}
	if _, seated := r.byConn[conn]; seated {
		r.mu.Unlock()
		return model.Player{}, model.ErrAlreadyInSession
	}
	player, err := r.machine.AddPlayer(ctx, sess, conn, nickname)
	if err != nil {
		r.mu.Unlock()
		return model.Player{}, err
	}
	r.byConn[conn] = id
	r.mu.Unlock()

	r.BroadcastSessionList()
	return player, nil
}

// Leave removes the caller from the named session
func (r *Registry) Leave(ctx context.Context, id model.SessionID, conn model.ConnectionID) error {
	id = normalizeCode(id)

	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return model.ErrSessionNotFound
	}
	if r.byConn[conn] != id {
		r.mu.Unlock()
		return model.ErrNotInSession
	}
	err := r.removeLocked(ctx, sess, conn)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.BroadcastSessionList()
	return nil
}

// Close shuts every session down for server exit. Players are not eliminated and no game
// is archived, so connections dropped afterwards find nothing to leave.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[model.SessionID]*session.Session)
	r.byConn = make(map[model.ConnectionID]model.SessionID)
	r.mu.Unlock()

	for _, sess := range sessions {
		r.machine.Shutdown(sess)
	}
	r.logger.InfoContext(ctx, "registry closed", slog.Int("session_count", len(sessions)))
}

// RemoveConnection drops a closed connection from whatever session it was in. It is a
// no-op for connections that never joined a session.
func (r *Registry) RemoveConnection(ctx context.Context, conn model.ConnectionID) {
	r.mu.Lock()
	id, ok := r.byConn[conn]
	if !ok {
		r.mu.Unlock()
		return
	}
	sess := r.sessions[id]
	if sess == nil {
		delete(r.byConn, conn)
		r.mu.Unlock()
		return
	}
	if err := r.removeLocked(ctx, sess, conn); err != nil {
		r.logger.Warn("failed to remove connection",
			slog.String("session_id", string(id)),
			slog.String("connection_id", string(conn)),
			slog.String("error", err.Error()),
		)
	}
	r.mu.Unlock()

	r.BroadcastSessionList()
}

func (r *Registry) removeLocked(ctx context.Context, sess *session.Session, conn model.ConnectionID) error {
	delete(r.byConn, conn)
	empty, err := r.machine.RemovePlayer(ctx, sess, conn)
	if err != nil {
		return err
	}
	if empty {
		delete(r.sessions, sess.ID())
		r.logger.Info("session destroyed", slog.String("session_id", string(sess.ID())))
	}
	return nil
}

// List returns the sessions still accepting players, oldest first
func (r *Registry) List() []model.SessionSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := []model.SessionSummary{}
	for _, sess := range r.sessions {
		summary, joinable := sess.Summary()
		if joinable {
			summaries = append(summaries, summary)
		}
	}
	slices.SortFunc(summaries, func(a, b model.SessionSummary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return summaries
}

// Get returns the public view of a session
func (r *Registry) Get(id model.SessionID) (model.SessionView, error) {
	sess, err := r.lookup(id)
	if err != nil {
		return model.SessionView{}, err
	}
	return sess.View(), nil
}

// SessionOf returns the session the connection has joined, if any
func (r *Registry) SessionOf(conn model.ConnectionID) (model.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[conn]
	return id, ok
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Start begins the game in the session. Owner only.
func (r *Registry) Start(ctx context.Context, id model.SessionID, conn model.ConnectionID) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	if err := r.machine.Start(ctx, sess, conn); err != nil {
		return err
	}
	// Started sessions drop out of discovery
	r.BroadcastSessionList()
	return nil
}

// Kill is the Ghoul's night action
func (r *Registry) Kill(ctx context.Context, id model.SessionID, conn, target model.ConnectionID) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	return r.machine.Kill(ctx, sess, conn, target)
}

// Vote casts a day accusation
func (r *Registry) Vote(ctx context.Context, id model.SessionID, conn, target model.ConnectionID) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	return r.machine.Vote(ctx, sess, conn, target)
}

// CastVerdict casts a final guilty/not-guilty vote
func (r *Registry) CastVerdict(ctx context.Context, id model.SessionID, conn model.ConnectionID, guilty bool) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	return r.machine.CastVerdict(ctx, sess, conn, guilty)
}

// PauseDayTimer stops the current day from timing out. Owner only.
func (r *Registry) PauseDayTimer(ctx context.Context, id model.SessionID, conn model.ConnectionID) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	return r.machine.PauseDayTimer(ctx, sess, conn)
}

// EndPhase cuts the current day or night short. Owner only.
func (r *Registry) EndPhase(ctx context.Context, id model.SessionID, conn model.ConnectionID) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	return r.machine.EndPhase(ctx, sess, conn)
}

// SendSessionList privately sends the discovery list to one connection
func (r *Registry) SendSessionList(conn model.ConnectionID) {
	r.notifier.Send(conn, r.sessionListNotification())
}

// BroadcastSessionList sends the discovery list to every connection
func (r *Registry) BroadcastSessionList() {
	r.notifier.Broadcast(r.sessionListNotification())
}

func (r *Registry) sessionListNotification() model.Notification {
	return model.Notification{
		Type:      model.NotifySessionList,
		Timestamp: r.clock.Now(),
		Payload:   model.SessionListPayload{Sessions: r.List()},
	}
}

func (r *Registry) lookup(id model.SessionID) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[normalizeCode(id)]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess, nil
}

func (r *Registry) generateCodeLocked() (model.SessionID, error) {
	for range maxCodeAttempts {
		code := model.SessionID(r.random.String(SessionCodeLength, SessionCodeAlphabet))
		if len(code) != SessionCodeLength {
			continue
		}
		if _, exists := r.sessions[code]; !exists {
			return code, nil
		}
	}
	return "", model.ErrCodeGeneration
}

// normalizeCode accepts codes typed in lower case or with surrounding whitespace
func normalizeCode(id model.SessionID) model.SessionID {
	return model.SessionID(strings.ToUpper(strings.TrimSpace(string(id))))
}
