package r9y

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func defaultTestParameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	return params
}

func TestProperty_DelayBounds(t *testing.T) {
	params := defaultTestParameters()
	props := gopter.NewProperties(params)

	strategies := []Strategy{
		StrategyLinear, StrategyExponential, StrategyFibonacci, StrategyRandom,
	}

	props.Property("delay_within_zero_and_ceiling", prop.ForAll(
		func(stratIdx, attempt, initialMs, maxMs int) bool {
			maxDelay := time.Duration(initialMs+maxMs) * time.Millisecond
			p := NewPolicy("p",
				WithStrategy(strategies[stratIdx]),
				WithInitialDelay(time.Duration(initialMs)*time.Millisecond),
				WithMaxDelay(maxDelay),
			)

			d := delayFor(p, attempt)
			return d >= 0 && d <= maxDelay
		},
		gen.IntRange(0, len(strategies)-1),
		gen.IntRange(1, 100),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 10000),
	))

	props.Property("jittered_delay_within_zero_and_ceiling", prop.ForAll(
		func(stratIdx, attempt, initialMs, maxMs int) bool {
			maxDelay := time.Duration(initialMs+maxMs) * time.Millisecond
			p := NewPolicy("p",
				WithStrategy(strategies[stratIdx]),
				WithInitialDelay(time.Duration(initialMs)*time.Millisecond),
				WithMaxDelay(maxDelay),
				WithJitter(),
			)

			d := delayFor(p, attempt)
			return d >= 0 && d <= maxDelay
		},
		gen.IntRange(0, len(strategies)-1),
		gen.IntRange(1, 100),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 10000),
	))

	props.Property("negative_attempt_behaves_like_first", prop.ForAll(
		func(attempt, initialMs int) bool {
			p := NewPolicy("p",
				WithStrategy(StrategyLinear),
				WithInitialDelay(time.Duration(initialMs)*time.Millisecond),
				WithMaxDelay(time.Hour),
			)

			return delayFor(p, attempt) == delayFor(p, 1)
		},
		gen.IntRange(-100, 0),
		gen.IntRange(1, 1000),
	))

	props.TestingRun(t)
}

func TestProperty_DelayGrowth(t *testing.T) {
	params := defaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("linear_grows_by_initial_each_attempt", prop.ForAll(
		func(attempt, initialMs int) bool {
			initial := time.Duration(initialMs) * time.Millisecond
			p := NewPolicy("p",
				WithStrategy(StrategyLinear),
				WithInitialDelay(initial),
				WithMaxDelay(time.Duration(1<<62)),
			)

			return delayFor(p, attempt+1)-delayFor(p, attempt) == initial
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 1000),
	))

	props.Property("exponential_doubles_below_ceiling", prop.ForAll(
		func(attempt, initialMs int) bool {
			p := NewPolicy("p",
				WithStrategy(StrategyExponential),
				WithInitialDelay(time.Duration(initialMs)*time.Millisecond),
				WithMaxDelay(time.Duration(1<<62)),
			)

			return delayFor(p, attempt+1) == 2*delayFor(p, attempt)
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 1000),
	))

	props.Property("fibonacci_is_sum_of_predecessors", prop.ForAll(
		func(attempt, initialMs int) bool {
			p := NewPolicy("p",
				WithStrategy(StrategyFibonacci),
				WithInitialDelay(time.Duration(initialMs)*time.Millisecond),
				WithMaxDelay(time.Duration(1<<62)),
			)

			return delayFor(p, attempt) ==
				delayFor(p, attempt-1)+delayFor(p, attempt-2)
		},
		gen.IntRange(3, 30),
		gen.IntRange(1, 1000),
	))

	props.Property("monotone_strategies_never_shrink", prop.ForAll(
		func(stratIdx, attempt, initialMs, maxMs int) bool {
			strategies := []Strategy{
				StrategyLinear, StrategyExponential, StrategyFibonacci,
			}
			p := NewPolicy("p",
				WithStrategy(strategies[stratIdx]),
				WithInitialDelay(time.Duration(initialMs)*time.Millisecond),
				WithMaxDelay(time.Duration(maxMs)*time.Millisecond),
			)

			return delayFor(p, attempt+1) >= delayFor(p, attempt)
		},
		gen.IntRange(0, 2),
		gen.IntRange(1, 200),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 10000),
	))

	props.TestingRun(t)
}

func TestProperty_RandomAndJitterRanges(t *testing.T) {
	params := defaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("random_within_initial_and_max", prop.ForAll(
		func(initialMs, spreadMs int) bool {
			initial := time.Duration(initialMs) * time.Millisecond
			maxDelay := initial + time.Duration(spreadMs)*time.Millisecond
			p := NewPolicy("p",
				WithStrategy(StrategyRandom),
				WithInitialDelay(initial),
				WithMaxDelay(maxDelay),
			)

			d := delayFor(p, 1)
			return d >= initial && d <= maxDelay
		},
		gen.IntRange(1, 1000),
		gen.IntRange(0, 10000),
	))

	props.Property("jitter_stays_within_twenty_percent", prop.ForAll(
		func(attempt, initialMs int) bool {
			initial := time.Duration(initialMs) * time.Millisecond
			plain := NewPolicy("p",
				WithStrategy(StrategyLinear),
				WithInitialDelay(initial),
				WithMaxDelay(time.Duration(1<<62)),
			)
			jittered := NewPolicy("p",
				WithStrategy(StrategyLinear),
				WithInitialDelay(initial),
				WithMaxDelay(time.Duration(1<<62)),
				WithJitter(),
			)

			raw := float64(delayFor(plain, attempt))
			d := float64(delayFor(jittered, attempt))

			// One nanosecond of slack for float truncation.
			return d >= 0.8*raw-1 && d <= 1.2*raw+1
		},
		gen.IntRange(1, 100),
		gen.IntRange(1, 1000),
	))

	props.TestingRun(t)
}
