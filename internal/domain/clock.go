package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps requests that arrive without a transport timestamp.
// Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the package time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

func now() time.Time {
	return clock.Now().UTC()
}
