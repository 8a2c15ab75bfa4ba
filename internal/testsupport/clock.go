package testsupport

import (
	"sync"
	"time"
)

// FakeClock is a manual clock. Sleep advances Now by the requested duration
// and then runs OnSleep, which lets tests make files appear mid-poll.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  int
	OnSleep func(n int)
}

// NewFakeClock starts the clock at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps++
	n := c.sleeps
	hook := c.OnSleep
	c.mu.Unlock()
	if hook != nil {
		hook(n)
	}
}

// Sleeps returns how many times Sleep was called.
func (c *FakeClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}
