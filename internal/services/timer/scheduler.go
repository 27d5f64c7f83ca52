package timer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/ghoulgame/internal/dependencies/clock"
	"github.com/mcoot/ghoulgame/internal/model"
)

// Purpose distinguishes the timers a session can have pending at once
type Purpose string

const (
	PurposeNightTimeout Purpose = "night_timeout"
	PurposeDefenseDelay Purpose = "defense_delay"
	PurposeDayTimeout   Purpose = "day_timeout"
)

// Token identifies one scheduled timer. A token stays valid until its timer is
// claimed, cancelled, or replaced by a newer timer for the same session and purpose.
type Token struct {
	Session    model.SessionID
	Purpose    Purpose
	Deadline   time.Time
	generation uint64
}

type key struct {
	session model.SessionID
	purpose Purpose
}

type entry struct {
	generation uint64
	timer      clock.Timer
}

// Scheduler keeps at most one pending timer per (session, purpose)
type Scheduler struct {
	clock  clock.Clock
	logger *slog.Logger

	mu         sync.Mutex
	generation uint64
	pending    map[key]entry
}

// NewScheduler creates a new Scheduler
func NewScheduler(clock clock.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:   clock,
		logger:  logger,
		pending: make(map[key]entry),
	}
}

// Schedule arranges for fn to run after delay, replacing any timer already pending
// for the same session and purpose. fn receives the token it was scheduled under and
// must Claim it before acting.
func (s *Scheduler) Schedule(session model.SessionID, purpose Purpose, delay time.Duration, fn func(Token)) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{session: session, purpose: purpose}
	if old, ok := s.pending[k]; ok {
		old.timer.Stop()
	}

	s.generation++
	token := Token{
		Session:    session,
		Purpose:    purpose,
		Deadline:   s.clock.Now().Add(delay),
		generation: s.generation,
	}
	t := s.clock.AfterFunc(delay, func() { fn(token) })
	s.pending[k] = entry{generation: token.generation, timer: t}

	s.logger.Debug("timer scheduled",
		slog.String("session_id", string(session)),
		slog.String("purpose", string(purpose)),
		slog.Duration("delay", delay),
	)

	return token
}

// Claim consumes the token if it is still the current timer for its session and purpose.
// A false result means the timer was cancelled or superseded and its callback must do nothing.
func (s *Scheduler) Claim(token Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{session: token.Session, purpose: token.Purpose}
	e, ok := s.pending[k]
	if !ok || e.generation != token.generation {
		s.logger.Debug("stale timer ignored",
			slog.String("session_id", string(token.Session)),
			slog.String("purpose", string(token.Purpose)),
		)
		return false
	}
	delete(s.pending, k)
	return true
}

// Cancel stops the pending timer for the session and purpose, reporting whether one existed
func (s *Scheduler) Cancel(session model.SessionID, purpose Purpose) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancelLocked(key{session: session, purpose: purpose})
}

// CancelSession stops every pending timer for the session
func (s *Scheduler) CancelSession(session model.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.pending {
		if k.session == session {
			s.cancelLocked(k)
		}
	}
}

// Pending reports whether a timer is outstanding for the session and purpose
func (s *Scheduler) Pending(session model.SessionID, purpose Purpose) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.pending[key{session: session, purpose: purpose}]
	return ok
}

func (s *Scheduler) cancelLocked(k key) bool {
	e, ok := s.pending[k]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.pending, k)

	s.logger.Debug("timer cancelled",
		slog.String("session_id", string(k.session)),
		slog.String("purpose", string(k.purpose)),
	)
	return true
}
