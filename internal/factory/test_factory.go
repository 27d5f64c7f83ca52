package factory

import (
	"time"

	"github.com/mcoot/ghoulgame/internal/dependencies/mocks"
	"github.com/mcoot/ghoulgame/internal/services/auth"
	"github.com/mcoot/ghoulgame/internal/services/session"
	"github.com/mcoot/ghoulgame/internal/storage/memory"
	"github.com/mcoot/ghoulgame/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockRandom  *mocks.MockRandom
	MemoryStore *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, session.DefaultConfig(), auth.Config{Secret: "test-secret"}, testutil.NopLogger())

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		MemoryStore: store,
	}
}

// QueueIdentityShuffle makes the next role deal pick the first player as the Ghoul.
// Call it after every player has joined, since seating draws avatars from the same queue.
func (t *TestApp) QueueIdentityShuffle(players int) {
	for i := players - 1; i > 0; i-- {
		t.MockRandom.QueueIntn(i)
	}
}
