package testutil

import (
	"sync"
	"time"

	"github.com/roach88/tokendb/internal/tokens"
)

// DefaultEpoch is the first day returned by a DateClock created with a zero
// start.
var DefaultEpoch = tokens.Date(2000, time.January, 1)

// DateClock hands out removal dates one calendar day apart.
//
// Scenarios that omit a date get the next day from the clock, so repeated
// runs produce identical databases.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DateClock struct {
	mu    sync.Mutex
	start time.Time
	days  int
}

// NewDateClock creates a clock whose first Next() returns start, or
// DefaultEpoch if start is zero.
func NewDateClock(start time.Time) *DateClock {
	if start.IsZero() {
		start = DefaultEpoch
	}
	return &DateClock{start: start}
}

// Next returns the current day and advances the clock by one day.
func (c *DateClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.start.AddDate(0, 0, c.days)
	c.days++
	return d
}

// Current returns the day the next call to Next() will return.
func (c *DateClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.AddDate(0, 0, c.days)
}

// Reset rewinds the clock to its start day.
func (c *DateClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.days = 0
}
