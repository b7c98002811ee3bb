// AngelaMos | 2026
// clock.go

package core

import "time"

// Clock is the single source of "now" for lifecycle and access derivations.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reports UTC wall-clock time.
var SystemClock Clock = ClockFunc(func() time.Time {
	return time.Now().UTC()
})
