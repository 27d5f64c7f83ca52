package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/ghoulgame/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Timers only fire when Advance moves the clock past their deadline, and they
// fire synchronously on the goroutine calling Advance.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	timers      []*MockTimer
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

// AfterFunc registers f to run once the clock is advanced past now+d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTimer{clock: c, fireAt: c.CurrentTime.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by the given duration, firing due timers in deadline order
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.CurrentTime.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.CurrentTime = target
			c.mu.Unlock()
			return
		}
		if next.fireAt.After(c.CurrentTime) {
			c.CurrentTime = next.fireAt
		}
		next.fired = true
		c.mu.Unlock()

		next.fn()
	}
}

// Set sets the clock to the given time without firing timers
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = t
}

// PendingTimers returns the number of timers that have neither fired nor been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// nextDueLocked returns the earliest live timer due at or before target
func (c *MockClock) nextDueLocked(target time.Time) *MockTimer {
	var next *MockTimer
	live := c.timers[:0]
	for _, t := range c.timers {
		if t.fired || t.stopped {
			continue
		}
		live = append(live, t)
		if t.fireAt.After(target) {
			continue
		}
		if next == nil || t.fireAt.Before(next.fireAt) {
			next = t
		}
	}
	c.timers = live
	return next
}

// MockTimer is a timer created by MockClock.AfterFunc
type MockTimer struct {
	clock   *MockClock
	fireAt  time.Time
	fn      func()
	fired   bool
	stopped bool
}

// Stop cancels the timer
func (t *MockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
