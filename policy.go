package r9y

import (
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Policy — named retry configuration
// ---------------------------------------------------------------------------

type (
	// Policy is a named retry configuration: a backoff strategy with
	// timing bounds, error-classification rules, an optional total-time
	// budget, and an optional circuit breaker owned by the policy.
	//
	// A Policy is immutable by identity once registered: [Manager.AddPolicy]
	// under the same name replaces the whole policy rather than mutating
	// it. Each Policy value belongs to at most one manager, which
	// materializes the breaker with its own clock and hooks.
	//
	// Pattern: Functional Options — configures Policy via composable
	// option functions with validated defaults.
	Policy struct {
		name          string
		maxAttempts   int
		strategy      Strategy
		initialDelay  time.Duration
		maxDelay      time.Duration
		jitter        bool
		errorKinds    map[string]struct{}
		errorPatterns []string
		maxTotalTime  time.Duration
		customFn      DelayFunc

		hasBreaker  bool
		breakerOpts []BreakerOption
		breaker     *Breaker

		// startTime is stamped on the first ShouldRetry consult and
		// anchors the maxTotalTime budget.
		startOnce sync.Once
		startTime time.Time
	}

	// PolicyOption configures a Policy.
	PolicyOption func(*Policy)
)

// NewPolicy creates a policy with the given name and options. Defaults:
// 3 attempts, exponential backoff from 100ms capped at 30s, no jitter, no
// classification filters (every error retries), no time budget, no
// breaker. Call [Policy.Validate] or register via [Manager.AddPolicy] to
// reject malformed configurations.
func NewPolicy(name string, opts ...PolicyOption) *Policy {
	p := &Policy{
		name:         name,
		maxAttempts:  3,
		strategy:     StrategyExponential,
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		errorKinds:   make(map[string]struct{}),
	}

	for _, o := range opts {
		o(p)
	}

	return p
}

// WithMaxAttempts sets the attempt ceiling. The engine does not count
// attempts itself; callers read the ceiling back and bound their retry
// loops with it.
func WithMaxAttempts(n int) PolicyOption {
	return func(p *Policy) {
		p.maxAttempts = n
	}
}

// WithStrategy selects the backoff strategy.
func WithStrategy(s Strategy) PolicyOption {
	return func(p *Policy) {
		p.strategy = s
	}
}

// WithInitialDelay sets the base delay the strategy scales from.
func WithInitialDelay(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.initialDelay = d
	}
}

// WithMaxDelay sets the hard ceiling applied to every computed delay.
func WithMaxDelay(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.maxDelay = d
	}
}

// WithJitter enables multiplicative jitter: each computed delay is scaled
// by a random factor in [0.8, 1.2] before the ceiling is applied.
func WithJitter() PolicyOption {
	return func(p *Policy) {
		p.jitter = true
	}
}

// WithErrorKinds adds error-kind tags (see [Kind]) to the set of
// retryable kinds.
func WithErrorKinds(kinds ...string) PolicyOption {
	return func(p *Policy) {
		for _, k := range kinds {
			p.errorKinds[k] = struct{}{}
		}
	}
}

// WithErrorPatterns adds substrings matched against failure messages to
// the set of retryable patterns.
func WithErrorPatterns(patterns ...string) PolicyOption {
	return func(p *Policy) {
		p.errorPatterns = append(p.errorPatterns, patterns...)
	}
}

// WithMaxTotalTime sets an overall retry budget. Once the budget has
// elapsed, measured from the policy's first ShouldRetry consult, every
// further retry is denied regardless of the error.
func WithMaxTotalTime(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.maxTotalTime = d
	}
}

// WithDelayFunc supplies the delay function for [StrategyCustom].
func WithDelayFunc(fn DelayFunc) PolicyOption {
	return func(p *Policy) {
		p.customFn = fn
	}
}

// WithBreaker attaches a circuit breaker to the policy. The breaker's
// lifetime equals the policy's: replacing the policy replaces the breaker,
// counters included.
func WithBreaker(opts ...BreakerOption) PolicyOption {
	return func(p *Policy) {
		p.hasBreaker = true
		p.breakerOpts = opts
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate reports the first malformed field as a [*ValidationError], or
// nil when the policy is well formed.
func (p *Policy) Validate() error {
	if p.name == "" {
		return &ValidationError{
			Field:   "name",
			Message: "must not be empty",
		}
	}

	if p.maxAttempts < 1 {
		return &ValidationError{
			Field:   "max_attempts",
			Message: "must be at least 1",
		}
	}

	if !p.strategy.Valid() {
		return &ValidationError{
			Field:   "strategy",
			Message: "must be one of linear, exponential, fibonacci, random, custom",
		}
	}

	if p.initialDelay < 0 {
		return &ValidationError{
			Field:   "initial_delay",
			Message: "must not be negative",
		}
	}

	if p.maxDelay < p.initialDelay {
		return &ValidationError{
			Field:   "max_delay",
			Message: "must not be below initial_delay",
		}
	}

	if p.maxTotalTime < 0 {
		return &ValidationError{
			Field:   "max_total_time",
			Message: "must not be negative",
		}
	}

	if p.strategy == StrategyCustom && p.customFn == nil {
		return &ValidationError{
			Field:   "custom_function",
			Message: "required for the custom strategy",
		}
	}

	if p.strategy != StrategyCustom && p.customFn != nil {
		return &ValidationError{
			Field:   "custom_function",
			Message: "only valid with the custom strategy",
		}
	}

	if p.hasBreaker {
		cfg := defaultBreakerConfig()
		for _, o := range p.breakerOpts {
			o(&cfg)
		}

		if err := cfg.validate(); err != nil {
			return err
		}
	}

	return nil
}

// materialize builds the policy's breaker with the owning manager's clock
// and hooks. Re-registering a policy therefore starts from fresh breaker
// state.
func (p *Policy) materialize(clock Clock, hooks *Hooks) {
	if !p.hasBreaker {
		return
	}

	p.breaker = NewBreaker(p.name, clock, hooks, p.breakerOpts...)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Name returns the policy's name.
func (p *Policy) Name() string { return p.name }

// MaxAttempts returns the advisory attempt ceiling for callers' retry
// loops.
func (p *Policy) MaxAttempts() int { return p.maxAttempts }

// Strategy returns the policy's backoff strategy.
func (p *Policy) Strategy() Strategy { return p.strategy }

// InitialDelay returns the base delay the strategy scales from.
func (p *Policy) InitialDelay() time.Duration { return p.initialDelay }

// MaxDelay returns the ceiling applied to every computed delay.
func (p *Policy) MaxDelay() time.Duration { return p.maxDelay }

// Jitter reports whether computed delays are jittered.
func (p *Policy) Jitter() bool { return p.jitter }

// MaxTotalTime returns the overall retry budget, or zero when none is
// configured.
func (p *Policy) MaxTotalTime() time.Duration { return p.maxTotalTime }

// Breaker returns the policy's circuit breaker, or nil when the policy has
// none or has not been registered with a manager yet. Callers report
// attempt outcomes through it; the engine never mutates it on their
// behalf.
func (p *Policy) Breaker() *Breaker { return p.breaker }
