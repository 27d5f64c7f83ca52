package roles

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/ghoulgame/internal/dependencies/mocks"
	"github.com/mcoot/ghoulgame/internal/dependencies/random"
	"github.com/mcoot/ghoulgame/internal/model"
)

type AssignerSuite struct {
	suite.Suite
	random   *mocks.MockRandom
	assigner *Assigner
}

func TestAssignerSuite(t *testing.T) {
	suite.Run(t, new(AssignerSuite))
}

func (s *AssignerSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.assigner = NewAssigner(s.random)
}

func makePlayers(n int) []*model.Player {
	players := make([]*model.Player, n)
	for i := range players {
		players[i] = &model.Player{ID: model.ConnectionID(fmt.Sprintf("p%d", i)), Alive: true}
	}
	return players
}

func (s *AssignerSuite) TestEmptyInputFails() {
	ghoul, villagers, err := s.assigner.Assign(nil)

	s.ErrorIs(err, model.ErrInsufficientPlayers)
	s.Nil(ghoul)
	s.Nil(villagers)
}

func (s *AssignerSuite) TestSinglePlayerBecomesGhoul() {
	players := makePlayers(1)

	ghoul, villagers, err := s.assigner.Assign(players)

	s.Require().NoError(err)
	s.Equal(players[0], ghoul)
	s.Empty(villagers)
	s.Equal(model.RoleGhoul, players[0].Role)
}

func (s *AssignerSuite) TestIdentityShuffleMakesFirstPlayerGhoul() {
	players := makePlayers(5)
	s.random.QueueIntn(4, 3, 2, 1)

	ghoul, villagers, err := s.assigner.Assign(players)

	s.Require().NoError(err)
	s.Equal(model.ConnectionID("p0"), ghoul.ID)
	s.Len(villagers, 4)
}

func (s *AssignerSuite) TestShuffleFollowsRandomDraws() {
	players := makePlayers(5)
	// i=4 swaps with 0, then the rest stay put: order p4 p1 p2 p3 p0
	s.random.QueueIntn(0, 3, 2, 1)

	ghoul, _, err := s.assigner.Assign(players)

	s.Require().NoError(err)
	s.Equal(model.ConnectionID("p4"), ghoul.ID)
}

func (s *AssignerSuite) TestExactlyOneGhoul() {
	players := makePlayers(8)

	ghoul, villagers, err := s.assigner.Assign(players)

	s.Require().NoError(err)
	s.Len(villagers, 7)
	ghouls := 0
	for _, p := range players {
		if p.Role == model.RoleGhoul {
			ghouls++
			s.Equal(ghoul, p)
		} else {
			s.Equal(model.RoleVillager, p.Role)
		}
	}
	s.Equal(1, ghouls)
}

func (s *AssignerSuite) TestInputOrderPreserved() {
	players := makePlayers(5)
	s.random.QueueIntn(0, 0, 0, 0)

	_, _, err := s.assigner.Assign(players)

	s.Require().NoError(err)
	for i, p := range players {
		s.Equal(model.ConnectionID(fmt.Sprintf("p%d", i)), p.ID)
	}
}

func TestAssignIsRoughlyUniform(t *testing.T) {
	const players = 5
	const trials = 5000
	assigner := NewAssigner(random.New())
	counts := map[model.ConnectionID]int{}

	for i := 0; i < trials; i++ {
		ghoul, _, err := assigner.Assign(makePlayers(players))
		if err != nil {
			t.Fatal(err)
		}
		counts[ghoul.ID]++
	}

	expected := trials / players
	for id, n := range counts {
		if n < expected*7/10 || n > expected*13/10 {
			t.Errorf("player %s was ghoul %d times, expected about %d", id, n, expected)
		}
	}
	if len(counts) != players {
		t.Errorf("expected every player to be ghoul at least once, got %d", len(counts))
	}
}
