package r9y

import "time"

// Clock abstracts wall-clock reads so that time-based decisions (breaker
// recovery, probe expiry, total-time budgets) can be tested
// deterministically. Production code uses [RealClock]; tests may substitute
// a fake implementation to control the passage of time.
//
// The engine never sleeps, so there is no timer abstraction: every time
// comparison is a read taken at the moment of the call.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration
}

// RealClock is a zero-value [Clock] backed by the real [time] package.
// It is safe for concurrent use because it holds no mutable state.
type RealClock struct{}

// Now returns the current wall-clock time via [time.Now].
func (RealClock) Now() time.Time { return time.Now() }

// Since returns the time elapsed since t via [time.Since].
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }
