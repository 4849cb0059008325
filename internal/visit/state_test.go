package visit

import (
	"errors"
	"testing"
	"time"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
)

var day = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func pendingVisit() *domain.Visit {
	return &domain.Visit{
		ID:            1,
		VisitCode:     "V-20240115-ABC123",
		Status:        domain.VisitPending,
		ScheduledDate: day,
	}
}

func TestCheckInSameDay(t *testing.T) {
	v := pendingVisit()
	now := day.Add(2 * time.Hour)

	if err := CheckIn(v, now); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if v.Status != domain.VisitInProgress {
		t.Fatalf("status = %s, want in_progress", v.Status)
	}
	if v.EntryTime == nil || !v.EntryTime.Equal(now) {
		t.Fatalf("entry time = %v, want %v", v.EntryTime, now)
	}
}

func TestCheckInOutsideScheduledDay(t *testing.T) {
	v := pendingVisit()
	nextDay := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

	if err := CheckIn(v, nextDay); !errors.Is(err, domain.ErrOutOfWindow) {
		t.Fatalf("err = %v, want ErrOutOfWindow", err)
	}
	if v.Status != domain.VisitPending || v.EntryTime != nil {
		t.Fatal("rejected check-in must not mutate the visit")
	}
}

func TestCheckInDayWindowIgnoresTimeOfDay(t *testing.T) {
	v := pendingVisit()
	// 23:59 on the scheduled day still counts.
	if err := CheckIn(v, time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)); err != nil {
		t.Fatalf("CheckIn late same day: %v", err)
	}
}

func TestCheckOutOnlyFromInProgress(t *testing.T) {
	v := pendingVisit()
	if err := CheckOut(v, day); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("checkout from pending: err = %v, want ErrInvalidTransition", err)
	}

	if err := CheckIn(v, day); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	out := day.Add(time.Hour)
	if err := CheckOut(v, out); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if v.Status != domain.VisitCompleted || v.ExitTime == nil || !v.ExitTime.Equal(out) {
		t.Fatalf("after checkout: status=%s exit=%v", v.Status, v.ExitTime)
	}
}

func TestCheckOutIdempotenceOfTerminalState(t *testing.T) {
	v := pendingVisit()
	if err := CheckIn(v, day); err != nil {
		t.Fatal(err)
	}
	first := day.Add(time.Hour)
	if err := CheckOut(v, first); err != nil {
		t.Fatal(err)
	}

	if err := CheckOut(v, first.Add(time.Minute)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second checkout: err = %v, want ErrInvalidTransition", err)
	}
	if !v.ExitTime.Equal(first) {
		t.Fatalf("exit time changed by rejected second checkout: %v", v.ExitTime)
	}
}

func TestCancel(t *testing.T) {
	v := pendingVisit()
	if err := Cancel(v); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if v.Status != domain.VisitCancelled {
		t.Fatalf("status = %s", v.Status)
	}

	// Cancelling an in-progress visit is allowed and leaves ExitTime unset.
	v = pendingVisit()
	if err := CheckIn(v, day); err != nil {
		t.Fatal(err)
	}
	if err := Cancel(v); err != nil {
		t.Fatalf("cancel in_progress: %v", err)
	}
	if v.ExitTime != nil {
		t.Fatal("cancel must not stamp an exit time")
	}

	// Never from completed.
	v = pendingVisit()
	_ = CheckIn(v, day)
	_ = CheckOut(v, day.Add(time.Hour))
	if err := Cancel(v); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("cancel completed: err = %v, want ErrInvalidTransition", err)
	}
}

func TestExpire(t *testing.T) {
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	v := pendingVisit()
	if err := Expire(v, now); err != nil {
		t.Fatalf("expire due pending: %v", err)
	}
	if v.Status != domain.VisitExpired {
		t.Fatalf("status = %s", v.Status)
	}

	// Not yet due.
	v = pendingVisit()
	if err := Expire(v, day.Add(-time.Hour)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expire future visit: err = %v", err)
	}

	// In-progress visits are never expired.
	v = pendingVisit()
	_ = CheckIn(v, day)
	if err := Expire(v, now); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expire in_progress: err = %v", err)
	}
}

// Totality: every (state, operation) pair either yields the single defined
// next state or a rejection that leaves the status untouched.
func TestTransitionTotality(t *testing.T) {
	states := []domain.VisitStatus{
		domain.VisitPending, domain.VisitInProgress,
		domain.VisitCompleted, domain.VisitCancelled, domain.VisitExpired,
	}
	ops := map[string]func(*domain.Visit) error{
		"checkin":  func(v *domain.Visit) error { return CheckIn(v, day) },
		"checkout": func(v *domain.Visit) error { return CheckOut(v, day.Add(time.Hour)) },
		"cancel":   func(v *domain.Visit) error { return Cancel(v) },
		"expire":   func(v *domain.Visit) error { return Expire(v, day.Add(48*time.Hour)) },
	}

	for _, st := range states {
		for name, op := range ops {
			v := pendingVisit()
			v.Status = st
			err := op(v)
			if _, ok := domain.ParseVisitStatus(string(v.Status)); !ok {
				t.Fatalf("%s from %s left undefined status %q", name, st, v.Status)
			}
			if err != nil && v.Status != st {
				t.Fatalf("%s from %s failed (%v) but mutated status to %s", name, st, err, v.Status)
			}
		}
	}
}
