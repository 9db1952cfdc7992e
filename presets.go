package r9y

import "time"

// Pattern: Factory Function — each preset produces a ready-made option
// bundle for a common dependency profile, avoiding boilerplate
// configuration.

// ConservativeHTTPPolicy returns options suitable for a typical HTTP
// dependency: 3 attempts with exponential backoff from 100ms capped at
// 10s, jitter on, retrying connection and timeout kinds, and a breaker
// opening after 5 consecutive failures with 30s recovery.
func ConservativeHTTPPolicy() []PolicyOption {
	return []PolicyOption{
		WithMaxAttempts(3),
		WithStrategy(StrategyExponential),
		WithInitialDelay(100 * time.Millisecond),
		WithMaxDelay(10 * time.Second),
		WithJitter(),
		WithErrorKinds("connection_error", "timeout_error"),
		WithBreaker(
			FailureThreshold(5),
			ResetTimeout(30*time.Second),
		),
	}
}

// AggressiveHTTPPolicy returns options for latency-sensitive HTTP
// dependencies: 5 attempts with linear backoff from 50ms capped at 2s,
// jitter on, a 30s total budget, and a breaker opening after 3
// consecutive failures or a 50% failure rate over 20 requests, with 10s
// recovery.
func AggressiveHTTPPolicy() []PolicyOption {
	return []PolicyOption{
		WithMaxAttempts(5),
		WithStrategy(StrategyLinear),
		WithInitialDelay(50 * time.Millisecond),
		WithMaxDelay(2 * time.Second),
		WithJitter(),
		WithMaxTotalTime(30 * time.Second),
		WithBreaker(
			FailureThreshold(3),
			ResetTimeout(10*time.Second),
			FailureRateThreshold(0.5),
			MinRequests(20),
		),
	}
}

// DatabasePolicy returns options for database reconnect loops: 6 attempts
// with fibonacci backoff from 250ms capped at 30s, retrying connection
// kinds and the usual transient message patterns.
func DatabasePolicy() []PolicyOption {
	return []PolicyOption{
		WithMaxAttempts(6),
		WithStrategy(StrategyFibonacci),
		WithInitialDelay(250 * time.Millisecond),
		WithMaxDelay(30 * time.Second),
		WithErrorKinds("connection_error"),
		WithErrorPatterns(
			"connection refused",
			"connection reset",
			"broken pipe",
		),
	}
}
