package service

import (
	"time"

	"github.com/benbjohnson/clock"

	"election-backend/storage"
)

// ElectionClock answers whether the voting window is open. It reads the
// configured window from the store on every check so an admin schedule
// change takes effect immediately, and it has no side effects.
type ElectionClock struct {
	store *storage.Store
	clk   clock.Clock
}

func NewElectionClock(store *storage.Store, clk clock.Clock) *ElectionClock {
	return &ElectionClock{store: store, clk: clk}
}

// IsOpen reports whether voting is open right now.
func (c *ElectionClock) IsOpen() bool {
	return c.IsOpenAt(c.clk.Now())
}

// IsOpenAt reports whether now lies within the voting window, boundaries
// included. With no window configured, voting is closed.
func (c *ElectionClock) IsOpenAt(now time.Time) bool {
	w, err := c.store.Window()
	if err != nil {
		return false
	}
	return w.Contains(now)
}

// RegistrationOpenAt reports whether account registration is still open.
// Without a configured window registration stays open, since the roll is
// typically uploaded before the schedule is set.
func (c *ElectionClock) RegistrationOpenAt(now time.Time) bool {
	w, err := c.store.Window()
	if err != nil {
		return true
	}
	if w.RegistrationEnd.IsZero() {
		return true
	}
	return !now.After(w.RegistrationEnd)
}
