package lobby

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/ghoulgame/internal/dependencies/mocks"
	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/auth"
	"github.com/mcoot/ghoulgame/internal/services/roles"
	"github.com/mcoot/ghoulgame/internal/services/session"
	"github.com/mcoot/ghoulgame/internal/services/timer"
	"github.com/mcoot/ghoulgame/internal/storage/memory"
	"github.com/mcoot/ghoulgame/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	notifier *testutil.RecordingNotifier
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.notifier = testutil.NewRecordingNotifier()

	logger := testutil.NopLogger()
	machine := session.NewMachine(
		session.DefaultConfig(),
		timer.NewScheduler(s.clock, logger),
		roles.NewAssigner(s.random),
		memory.New(),
		s.notifier,
		s.clock,
		s.random,
		logger,
	)
	s.registry = NewRegistry(
		machine,
		auth.New(s.clock, auth.Config{Secret: "test-secret"}),
		s.notifier,
		s.clock,
		s.random,
		logger,
	)
}

func conn(i int) model.ConnectionID {
	return model.ConnectionID(fmt.Sprintf("c%d", i))
}

// create opens a session with the given code owned by conn(0)
func (s *RegistrySuite) create(code string, password string) model.SessionView {
	s.random.QueueString(code)
	view, _, err := s.registry.Create(s.ctx, conn(0), CreateRequest{
		Name:     "Friday",
		Nickname: "Owner",
		Password: password,
	})
	s.Require().NoError(err)
	return view
}

// fill seats players c1..c(n-1) in the session
func (s *RegistrySuite) fill(id model.SessionID, n int) {
	for i := 1; i < n; i++ {
		_, err := s.registry.Join(s.ctx, id, conn(i), JoinRequest{Nickname: fmt.Sprintf("Player%d", i)})
		s.Require().NoError(err)
	}
}

func (s *RegistrySuite) lastBroadcastList() []model.SessionSummary {
	broadcasts := s.notifier.Broadcasts()
	s.Require().NotEmpty(broadcasts)
	last := broadcasts[len(broadcasts)-1]
	s.Require().Equal(model.NotifySessionList, last.Type)
	return last.Payload.(model.SessionListPayload).Sessions
}

func (s *RegistrySuite) TestCreate() {
	view, player, err := s.registry.Create(s.ctx, conn(0), CreateRequest{Nickname: "  Mara "})
	s.Require().Error(err, "no code queued so generation must fail")
	s.ErrorIs(err, model.ErrCodeGeneration)
	s.Empty(view.ID)
	s.Empty(player.ID)

	s.random.QueueString("ABCDE")
	view, player, err = s.registry.Create(s.ctx, conn(0), CreateRequest{Nickname: "  Mara "})
	s.Require().NoError(err)

	s.Equal(model.SessionID("ABCDE"), view.ID)
	s.Equal("Mara's game", view.Name)
	s.Equal(model.PhaseWaiting, view.Phase)
	s.False(view.Private)
	s.Equal("Mara", player.Nickname)
	s.Equal(conn(0), view.Roster[0].ID)
	s.True(view.Roster[0].Owner)

	id, ok := s.registry.SessionOf(conn(0))
	s.True(ok)
	s.Equal(view.ID, id)
	s.Equal(1, s.registry.Count())
	s.True(s.notifier.IsSubscribed(view.ID, conn(0)))
	s.Len(s.notifier.SentOfType(conn(0), model.NotifySessionJoined), 1)

	sessions := s.lastBroadcastList()
	s.Require().Len(sessions, 1)
	s.Equal(view.ID, sessions[0].ID)
}

func (s *RegistrySuite) TestCreateRejectsInvalidNickname() {
	s.random.QueueString("ABCDE")
	_, _, err := s.registry.Create(s.ctx, conn(0), CreateRequest{Nickname: "   "})
	s.ErrorIs(err, model.ErrInvalidNickname)
	s.Equal(0, s.registry.Count())
}

func (s *RegistrySuite) TestCreateWhileInSession() {
	s.create("ABCDE", "")

	s.random.QueueString("FGHJK")
	_, _, err := s.registry.Create(s.ctx, conn(0), CreateRequest{Nickname: "Again"})
	s.ErrorIs(err, model.ErrAlreadyInSession)
	s.Equal(1, s.registry.Count())
}

func (s *RegistrySuite) TestCreateRetriesOnCodeCollision() {
	s.create("ABCDE", "")

	s.random.QueueString("ABCDE", "ABCDE", "FGHJK")
	view, _, err := s.registry.Create(s.ctx, conn(1), CreateRequest{Nickname: "Second"})
	s.Require().NoError(err)
	s.Equal(model.SessionID("FGHJK"), view.ID)
	s.Equal(2, s.registry.Count())
}

func (s *RegistrySuite) TestJoin() {
	view := s.create("ABCDE", "")

	player, err := s.registry.Join(s.ctx, "abcde ", conn(1), JoinRequest{Nickname: "Bram"})
	s.Require().NoError(err)
	s.Equal(conn(1), player.ID)
	s.Equal("Bram", player.Nickname)
	s.True(player.Alive)

	id, ok := s.registry.SessionOf(conn(1))
	s.True(ok)
	s.Equal(view.ID, id)

	sessions := s.lastBroadcastList()
	s.Require().Len(sessions, 1)
	s.Equal(2, sessions[0].PlayerCount)
}

func (s *RegistrySuite) TestJoinErrors() {
	s.create("ABCDE", "")
	s.random.QueueString("FGHJK")
	_, _, err := s.registry.Create(s.ctx, conn(9), CreateRequest{Nickname: "Other"})
	s.Require().NoError(err)

	_, err = s.registry.Join(s.ctx, "ZZZZZ", conn(1), JoinRequest{Nickname: "Bram"})
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.registry.Join(s.ctx, "ABCDE", conn(1), JoinRequest{Nickname: ""})
	s.ErrorIs(err, model.ErrInvalidNickname)

	_, err = s.registry.Join(s.ctx, "ABCDE", conn(9), JoinRequest{Nickname: "Other"})
	s.ErrorIs(err, model.ErrAlreadyInSession)

	_, err = s.registry.Join(s.ctx, "ABCDE", conn(0), JoinRequest{Nickname: "Owner"})
	s.ErrorIs(err, model.ErrAlreadyInSession)
}

func (s *RegistrySuite) TestJoinPrivateSession() {
	view := s.create("ABCDE", "hunter2")
	s.True(view.Private)

	_, err := s.registry.Join(s.ctx, view.ID, conn(1), JoinRequest{Nickname: "Bram"})
	s.ErrorIs(err, model.ErrWrongPassword)

	_, err = s.registry.Join(s.ctx, view.ID, conn(1), JoinRequest{Nickname: "Bram", Password: "wrong"})
	s.ErrorIs(err, model.ErrWrongPassword)
	_, ok := s.registry.SessionOf(conn(1))
	s.False(ok)

	_, err = s.registry.Join(s.ctx, view.ID, conn(1), JoinRequest{Nickname: "Bram", Password: "hunter2"})
	s.NoError(err)

	sessions := s.registry.List()
	s.Require().Len(sessions, 1)
	s.True(sessions[0].Private)
}

func (s *RegistrySuite) TestJoinFullSession() {
	view := s.create("ABCDE", "")
	s.fill(view.ID, model.MaxPlayers)

	_, err := s.registry.Join(s.ctx, view.ID, conn(model.MaxPlayers), JoinRequest{Nickname: "Late"})
	s.ErrorIs(err, model.ErrSessionFull)
	_, ok := s.registry.SessionOf(conn(model.MaxPlayers))
	s.False(ok)
}

func (s *RegistrySuite) TestJoinStartedSession() {
	view := s.create("ABCDE", "")
	s.fill(view.ID, 5)
	s.Require().NoError(s.registry.Start(s.ctx, view.ID, conn(0)))

	_, err := s.registry.Join(s.ctx, view.ID, conn(7), JoinRequest{Nickname: "Late"})
	s.ErrorIs(err, model.ErrAlreadyStarted)
}

func (s *RegistrySuite) TestListShowsOnlyWaitingSessionsOldestFirst() {
	s.Empty(s.registry.List())
	s.NotNil(s.registry.List())

	first := s.create("BBBBB", "")
	s.fill(first.ID, 5)

	s.clock.Advance(time.Minute)
	s.random.QueueString("AAAAA")
	second, _, err := s.registry.Create(s.ctx, conn(10), CreateRequest{Nickname: "Later"})
	s.Require().NoError(err)

	sessions := s.registry.List()
	s.Require().Len(sessions, 2)
	s.Equal(first.ID, sessions[0].ID)
	s.Equal(second.ID, sessions[1].ID)

	s.Require().NoError(s.registry.Start(s.ctx, first.ID, conn(0)))

	sessions = s.registry.List()
	s.Require().Len(sessions, 1)
	s.Equal(second.ID, sessions[0].ID)
	s.Len(s.lastBroadcastList(), 1)
}

func (s *RegistrySuite) TestGet() {
	view := s.create("ABCDE", "")

	got, err := s.registry.Get("abcde")
	s.Require().NoError(err)
	s.Equal(view.ID, got.ID)

	_, err = s.registry.Get("ZZZZZ")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RegistrySuite) TestLeave() {
	view := s.create("ABCDE", "")
	s.fill(view.ID, 2)

	s.ErrorIs(s.registry.Leave(s.ctx, "ZZZZZ", conn(1)), model.ErrSessionNotFound)
	s.ErrorIs(s.registry.Leave(s.ctx, view.ID, conn(5)), model.ErrNotInSession)

	s.Require().NoError(s.registry.Leave(s.ctx, view.ID, conn(0)))
	_, ok := s.registry.SessionOf(conn(0))
	s.False(ok)

	got, err := s.registry.Get(view.ID)
	s.Require().NoError(err)
	s.Equal(conn(1), got.Roster[0].ID)
	s.True(got.Roster[0].Owner, "ownership passes to the next player")

	s.Require().NoError(s.registry.Leave(s.ctx, view.ID, conn(1)))
	s.Equal(0, s.registry.Count())
	_, err = s.registry.Get(view.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.Empty(s.lastBroadcastList())
}

func (s *RegistrySuite) TestLeftPlayerCanJoinAnotherSession() {
	view := s.create("ABCDE", "")
	s.fill(view.ID, 2)
	s.random.QueueString("FGHJK")
	other, _, err := s.registry.Create(s.ctx, conn(5), CreateRequest{Nickname: "Other"})
	s.Require().NoError(err)

	s.Require().NoError(s.registry.Leave(s.ctx, view.ID, conn(1)))
	_, err = s.registry.Join(s.ctx, other.ID, conn(1), JoinRequest{Nickname: "Player1"})
	s.NoError(err)
}

func (s *RegistrySuite) TestRemoveConnection() {
	view := s.create("ABCDE", "")
	s.fill(view.ID, 3)

	s.registry.RemoveConnection(s.ctx, "never-joined")
	s.Equal(1, s.registry.Count())

	s.registry.RemoveConnection(s.ctx, conn(1))
	_, ok := s.registry.SessionOf(conn(1))
	s.False(ok)
	s.False(s.notifier.IsSubscribed(view.ID, conn(1)))

	s.registry.RemoveConnection(s.ctx, conn(0))
	s.registry.RemoveConnection(s.ctx, conn(2))
	s.Equal(0, s.registry.Count())
}

func (s *RegistrySuite) TestRemoveConnectionMidGame() {
	view := s.create("ABCDE", "")
	s.fill(view.ID, 6)
	s.Require().NoError(s.registry.Start(s.ctx, view.ID, conn(0)))

	s.registry.RemoveConnection(s.ctx, conn(3))

	got, err := s.registry.Get(view.ID)
	s.Require().NoError(err)
	s.NotEqual(model.PhaseWaiting, got.Phase)
	for _, slot := range got.Roster {
		s.NotEqual(conn(3), slot.ID)
	}
}

func (s *RegistrySuite) TestConcurrentJoinAndRemoveConnection() {
	view := s.create("ABCDE", "")

	var joined atomic.Int32
	var wg sync.WaitGroup
	join := func(i int) bool {
		_, err := s.registry.Join(s.ctx, view.ID, conn(i), JoinRequest{Nickname: fmt.Sprintf("Player%d", i)})
		if err == nil {
			joined.Add(1)
			return true
		}
		return false
	}
	for i := 1; i < model.MaxPlayers; i++ {
		if i%2 == 1 {
			// Odd connections join then drop straight away
			wg.Add(1)
			go func() {
				defer wg.Done()
				if join(i) {
					s.registry.RemoveConnection(s.ctx, conn(i))
				}
			}()
			continue
		}
		// Even connections try to join twice at once
		wg.Add(2)
		for range 2 {
			go func() {
				defer wg.Done()
				join(i)
			}()
		}
	}
	wg.Wait()

	s.Equal(int32(model.MaxPlayers-1), joined.Load())
	s.Equal(1, s.registry.Count())

	got, err := s.registry.Get(view.ID)
	s.Require().NoError(err)
	seated := map[model.ConnectionID]bool{}
	for _, slot := range got.Roster {
		if !slot.Empty {
			seated[slot.ID] = true
		}
	}
	s.Len(seated, 1+(model.MaxPlayers-1)/2)
	for i := 1; i < model.MaxPlayers; i++ {
		id, ok := s.registry.SessionOf(conn(i))
		s.Equal(i%2 == 0, ok, "connection %d", i)
		s.Equal(i%2 == 0, seated[conn(i)], "connection %d", i)
		if ok {
			s.Equal(view.ID, id)
		}
	}
}

func (s *RegistrySuite) TestCloseEndsSessionsWithoutEliminations() {
	view := s.create("ABCDE", "")
	s.fill(view.ID, 5)
	s.Require().NoError(s.registry.Start(s.ctx, view.ID, conn(0)))
	s.notifier.Reset()

	s.registry.Close(s.ctx)

	s.Zero(s.registry.Count())
	s.Empty(s.registry.List())
	for i := range 5 {
		_, ok := s.registry.SessionOf(conn(i))
		s.False(ok)
		s.False(s.notifier.IsSubscribed(view.ID, conn(i)))
	}
	s.Empty(s.notifier.PublishedOfType(model.NotifyPlayerDied))
	s.Empty(s.notifier.PublishedOfType(model.NotifyGameOver))

	// Connections dropped after shutdown have nothing to leave
	s.registry.RemoveConnection(s.ctx, conn(1))
	s.Empty(s.notifier.PublishedOfType(model.NotifyPlayerDied))
}

func (s *RegistrySuite) TestCommandsRequireKnownSession() {
	s.ErrorIs(s.registry.Start(s.ctx, "ZZZZZ", conn(0)), model.ErrSessionNotFound)
	s.ErrorIs(s.registry.Kill(s.ctx, "ZZZZZ", conn(0), conn(1)), model.ErrSessionNotFound)
	s.ErrorIs(s.registry.Vote(s.ctx, "ZZZZZ", conn(0), conn(1)), model.ErrSessionNotFound)
	s.ErrorIs(s.registry.CastVerdict(s.ctx, "ZZZZZ", conn(0), true), model.ErrSessionNotFound)
	s.ErrorIs(s.registry.PauseDayTimer(s.ctx, "ZZZZZ", conn(0)), model.ErrSessionNotFound)
	s.ErrorIs(s.registry.EndPhase(s.ctx, "ZZZZZ", conn(0)), model.ErrSessionNotFound)
}

func (s *RegistrySuite) TestCommandsReachTheSession() {
	view := s.create("ABCDE", "")
	s.fill(view.ID, 5)

	s.ErrorIs(s.registry.Start(s.ctx, view.ID, conn(1)), model.ErrNotOwner)
	s.Require().NoError(s.registry.Start(s.ctx, view.ID, conn(0)))

	got, err := s.registry.Get(view.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseNight, got.Phase)

	s.ErrorIs(s.registry.Vote(s.ctx, view.ID, conn(2), conn(3)), model.ErrWrongPhase)
	s.Require().NoError(s.registry.EndPhase(s.ctx, view.ID, conn(0)))

	got, err = s.registry.Get(view.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseDay, got.Phase)

	s.Require().NoError(s.registry.PauseDayTimer(s.ctx, view.ID, conn(0)))
	s.NoError(s.registry.Vote(s.ctx, view.ID, conn(2), conn(3)))
	s.ErrorIs(s.registry.CastVerdict(s.ctx, view.ID, conn(2), true), model.ErrWrongPhase)
}

func (s *RegistrySuite) TestSendSessionList() {
	s.create("ABCDE", "")

	s.registry.SendSessionList("watcher")

	sent := s.notifier.SentOfType("watcher", model.NotifySessionList)
	s.Require().Len(sent, 1)
	s.Len(sent[0].Payload.(model.SessionListPayload).Sessions, 1)
}
