package authn

import (
	"time"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
)

// LockoutPolicy holds the tunables for the failed-login guard. Threshold and
// window come from configuration, not hard-coded business law.
type LockoutPolicy struct {
	MaxFailures int
	Window      time.Duration
}

// Guard tracks failed login attempts and lockout windows per account. The
// counter is cleared only by a successful login; a lockout that merely
// elapses leaves the prior count in place, so further failures keep
// accumulating from where they left off.
type Guard struct {
	policy LockoutPolicy
}

func NewGuard(policy LockoutPolicy) *Guard {
	if policy.MaxFailures <= 0 {
		policy.MaxFailures = 5
	}
	if policy.Window <= 0 {
		policy.Window = time.Hour
	}
	return &Guard{policy: policy}
}

// RecordFailure increments the counter and reports whether this failure
// tripped (or re-tripped) the lockout.
func (g *Guard) RecordFailure(acc *domain.Account, now time.Time) bool {
	acc.FailedLoginCount++
	if acc.FailedLoginCount >= g.policy.MaxFailures {
		until := now.Add(g.policy.Window)
		acc.LockoutUntil = &until
		return true
	}
	return false
}

// RecordSuccess resets the counter and clears any lockout. Callers must have
// already checked IsLocked.
func (g *Guard) RecordSuccess(acc *domain.Account) {
	acc.FailedLoginCount = 0
	acc.LockoutUntil = nil
}

// IsLocked reports whether the account is inside an active lockout window.
// An elapsed window is not cleared here; only RecordSuccess does that.
func (g *Guard) IsLocked(acc *domain.Account, now time.Time) bool {
	return acc.LockoutUntil != nil && now.Before(*acc.LockoutUntil)
}
