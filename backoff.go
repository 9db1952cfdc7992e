package r9y

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Strategy selects the algorithm that computes the delay before a retry
// attempt.
//
// Pattern: Strategy — one pure delay function per variant, dispatched
// exhaustively in delayFor, so each algorithm stays unit-testable without
// subclassing.
type Strategy string

// Supported backoff strategies.
const (
	// StrategyLinear grows the delay linearly: initial delay times the
	// attempt number.
	StrategyLinear Strategy = "linear"
	// StrategyExponential doubles the delay with each attempt:
	// initial delay times 2^(attempt-1).
	StrategyExponential Strategy = "exponential"
	// StrategyFibonacci scales the initial delay by the Fibonacci number
	// of the attempt: 1, 1, 2, 3, 5, ...
	StrategyFibonacci Strategy = "fibonacci"
	// StrategyRandom draws the delay uniformly between the initial and
	// maximum delay.
	StrategyRandom Strategy = "random"
	// StrategyCustom delegates to a caller-supplied [DelayFunc].
	StrategyCustom Strategy = "custom"
)

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyLinear, StrategyExponential, StrategyFibonacci,
		StrategyRandom, StrategyCustom:
		return true
	default:
		return false
	}
}

// ParseStrategy maps a strategy name to a [Strategy], rejecting unknown
// names. Use it when strategy names arrive from config files or flags.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(name)
	if !s.Valid() {
		return "", fmt.Errorf("r9y: unknown strategy %q", name)
	}

	return s, nil
}

// DelayFunc computes an ad-hoc delay for a 1-indexed attempt number.
// It is consulted only by policies using [StrategyCustom].
type DelayFunc func(attempt int) time.Duration

// ---------------------------------------------------------------------------
// Raw delay per strategy
// ---------------------------------------------------------------------------

// linearDelay returns initial * attempt.
func linearDelay(initial time.Duration, attempt int) time.Duration {
	return initial * time.Duration(attempt)
}

// exponentialDelay returns initial * 2^(attempt-1).
func exponentialDelay(initial time.Duration, attempt int) time.Duration {
	return toDelay(float64(initial) * math.Pow(2, float64(attempt-1)))
}

// fibonacciDelay returns initial * fib(attempt), where fib(1) = fib(2) = 1.
// The multiplier saturates once it can no longer grow without overflowing;
// the final clamp in delayFor takes over from there.
func fibonacciDelay(initial time.Duration, attempt int) time.Duration {
	a, b := int64(1), int64(1)
	for i := 3; i <= attempt; i++ {
		a, b = b, a+b
		if b < 0 {
			return time.Duration(math.MaxInt64)
		}
	}

	return toDelay(float64(initial) * float64(b))
}

// randomDelay draws a delay uniformly from [initial, max]. When the bounds
// are inverted or equal, the initial delay wins.
func randomDelay(initial, max time.Duration) time.Duration {
	if max <= initial {
		return initial
	}

	return initial + time.Duration(rand.Int64N(int64(max-initial)+1))
}

// jitterDelay multiplies d by a factor drawn uniformly from [0.8, 1.2].
// This spreads many callers retrying the same dependency across time
// instead of letting them hammer it in lockstep.
func jitterDelay(d time.Duration) time.Duration {
	f := 0.8 + rand.Float64()*0.4

	return toDelay(float64(d) * f)
}

// toDelay converts a nanosecond count computed in float64 to a Duration,
// saturating instead of overflowing on conversion.
func toDelay(f float64) time.Duration {
	if f >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	if f <= 0 {
		return 0
	}

	return time.Duration(f)
}

// ---------------------------------------------------------------------------
// delayFor — strategy dispatch, jitter, final clamp
// ---------------------------------------------------------------------------

// delayFor computes the delay the caller should wait before the given
// 1-indexed attempt. Attempt values below 1 are treated as 1. The
// strategy's raw result is jittered when the policy asks for it, then
// clamped to the policy's maximum delay and floored at zero.
func delayFor(p *Policy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var d time.Duration

	switch p.strategy {
	case StrategyLinear:
		d = linearDelay(p.initialDelay, attempt)
	case StrategyExponential:
		d = exponentialDelay(p.initialDelay, attempt)
	case StrategyFibonacci:
		d = fibonacciDelay(p.initialDelay, attempt)
	case StrategyRandom:
		d = randomDelay(p.initialDelay, p.maxDelay)
	case StrategyCustom:
		d = p.customFn(attempt)
	}

	if p.jitter {
		d = jitterDelay(d)
	}

	if d > p.maxDelay {
		d = p.maxDelay
	}

	if d < 0 {
		d = 0
	}

	return d
}
