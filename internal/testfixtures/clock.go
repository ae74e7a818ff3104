package testfixtures

import (
	"sync"
	"time"

	"github.com/example/focus-ledger/internal/calendar"
)

// ReferenceTime is Monday 2026-03-02 10:00 in the default +05:30 zone.
func ReferenceTime() time.Time {
	return time.Date(2026, time.March, 2, 4, 30, 0, 0, time.UTC)
}

// Clock is a manually driven time source that also knows which local day an
// instant falls on, so tests can walk a user across day boundaries.
type Clock struct {
	mu       sync.RWMutex
	at       time.Time
	bucketer calendar.Bucketer
}

// NewClock starts at start, or at ReferenceTime when start is zero, and
// buckets days with the default offset.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{at: start.UTC(), bucketer: calendar.Default()}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.at
}

// NowFunc is the injectable form of Now. A nil clock yields time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Current reads the clock without moving it.
func (c *Clock) Current() time.Time {
	return c.Now()
}

// Day is the local calendar day of the current instant.
func (c *Clock) Day() string {
	return c.bucketer.Day(c.Now())
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.at = t.UTC()
	c.mu.Unlock()
}

// SetLocal moves the clock to hour:minute of the given local day.
func (c *Clock) SetLocal(day string, hour, minute int) error {
	start, err := c.bucketer.StartOfDay(day)
	if err != nil {
		return err
	}
	c.Set(start.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute))
	return nil
}

func (c *Clock) Advance(d time.Duration) time.Time {
	return c.move(func(t time.Time) time.Time { return t.Add(d) })
}

// AdvanceDays keeps the time of day and moves the date.
func (c *Clock) AdvanceDays(days int) time.Time {
	return c.move(func(t time.Time) time.Time { return t.AddDate(0, 0, days) })
}

func (c *Clock) move(step func(time.Time) time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = step(c.at)
	return c.at
}
