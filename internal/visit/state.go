package visit

import (
	"time"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
)

// Lifecycle: pending -> in_progress -> completed, plus the terminal side
// exits pending -> cancelled and pending -> expired. Terminal states admit
// no further transition.

// CheckIn moves a pending visit to in_progress and stamps the entry time.
// A visit may only be checked in on its scheduled calendar day (UTC).
func CheckIn(v *domain.Visit, now time.Time) error {
	if v.Status != domain.VisitPending {
		return domain.ErrInvalidTransition
	}
	if !sameDay(v.ScheduledDate, now) {
		return domain.ErrOutOfWindow
	}
	v.Status = domain.VisitInProgress
	t := now
	v.EntryTime = &t
	return nil
}

// CheckOut completes an in_progress visit and stamps the exit time.
func CheckOut(v *domain.Visit, now time.Time) error {
	if v.Status != domain.VisitInProgress {
		return domain.ErrInvalidTransition
	}
	v.Status = domain.VisitCompleted
	t := now
	v.ExitTime = &t
	return nil
}

// Cancel is allowed from any non-terminal state. Cancelling an in_progress
// visit intentionally leaves ExitTime unset: an abandoned visit is not a
// completed one.
func Cancel(v *domain.Visit) error {
	if v.Status.Terminal() {
		return domain.ErrInvalidTransition
	}
	v.Status = domain.VisitCancelled
	return nil
}

// Expire marks a pending visit whose scheduled date has passed. In_progress
// visits are never expired: the guard who let someone in completes the cycle.
func Expire(v *domain.Visit, now time.Time) error {
	if v.Status != domain.VisitPending || !v.ScheduledDate.Before(now) {
		return domain.ErrInvalidTransition
	}
	v.Status = domain.VisitExpired
	return nil
}

// sameDay compares calendar dates in UTC, ignoring time of day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
