// AngelaMos | 2026
// window.go

// Package access derives the access window of an approved subscription.
// Expiry is never stored: it is recomputed from the end time on every read.
package access

import (
	"time"

	"github.com/carterperez-dev/templates/wifi-portal/internal/subscription"
)

const expiringSoonThreshold = 48 * time.Hour

type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func IsCurrentlyActive(status string, end *time.Time, now time.Time) bool {
	return status == subscription.StatusActive && end != nil && end.After(now)
}

// CountdownUntil splits max(0, end-now) into whole days, hours and minutes.
func CountdownUntil(end, now time.Time) Countdown {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return Countdown{}
	}

	totalMinutes := int(remaining / time.Minute)
	return Countdown{
		Days:    totalMinutes / (24 * 60),
		Hours:   (totalMinutes / 60) % 24,
		Minutes: totalMinutes % 60,
	}
}

// ExpiringSoon is true while active with under two days left.
func ExpiringSoon(status string, end *time.Time, now time.Time) bool {
	return IsCurrentlyActive(status, end, now) && end.Sub(now) < expiringSoonThreshold
}

// Window is the derived view of one record at one instant.
type Window struct {
	Active       bool       `json:"active"`
	ExpiringSoon bool       `json:"expiring_soon"`
	Countdown    Countdown  `json:"countdown"`
	EndAt        *time.Time `json:"end_at,omitempty"`
	ComputedAt   time.Time  `json:"computed_at"`
}

func WindowOf(sub *subscription.Subscription, now time.Time) Window {
	w := Window{
		Active:       IsCurrentlyActive(sub.Status, sub.EndAt, now),
		ExpiringSoon: ExpiringSoon(sub.Status, sub.EndAt, now),
		EndAt:        sub.EndAt,
		ComputedAt:   now,
	}
	if w.Active {
		w.Countdown = CountdownUntil(*sub.EndAt, now)
	}
	return w
}
