package deadline

import (
	"fmt"
	"time"
)

// Deadline is the pick cut-off for one week. IsClosed is an explicit admin
// override; the week is locked when either the cut-off has passed or the
// override is set.
type Deadline struct {
	ID       string
	Week     int
	Time     time.Time
	IsClosed bool
}

func (d Deadline) Validate() error {
	if d.Week < 1 {
		return fmt.Errorf("deadline week must be >= 1")
	}
	if d.Time.IsZero() {
		return fmt.Errorf("deadline time is required")
	}

	return nil
}

// Locked reports whether picks are rejected for this week at the given time.
func (d Deadline) Locked(now time.Time) bool {
	return d.IsClosed || !now.Before(d.Time)
}
