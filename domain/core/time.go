package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// SimClock is the simulation timestamp that bounds all visible data for a
// task. It is fixed when the task is generated and never moves afterwards.
type SimClock Timestamp

// NewSimClock creates a simulation clock from time.Time
func NewSimClock(t time.Time) SimClock { return SimClock(NewTimestamp(t)) }

// Time returns the underlying time.Time
func (c SimClock) Time() time.Time { return Timestamp(c).Time() }

// IsZero checks if the clock is unset
func (c SimClock) IsZero() bool { return Timestamp(c).IsZero() }

// Covers reports whether a record effective at t is visible under this clock.
// The bound is inclusive: effective_time == clock is visible.
func (c SimClock) Covers(t Timestamp) bool {
	return !t.After(Timestamp(c))
}

// String representations
func (c SimClock) String() string { return c.Time().Format(time.RFC3339) }

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

func (c SimClock) MarshalJSON() ([]byte, error) {
	return Timestamp(c).MarshalJSON()
}

func (c *SimClock) UnmarshalJSON(data []byte) error {
	var ts Timestamp
	if err := ts.UnmarshalJSON(data); err != nil {
		return err
	}
	*c = SimClock(ts)
	return nil
}
