package r9y

import (
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// States
// ---------------------------------------------------------------------------.

// BreakerState enumerates the circuit breaker states.
type BreakerState int

const (
	// StateClosed admits attempts and counts their outcomes.
	StateClosed BreakerState = iota
	// StateOpen refuses attempts until the reset timeout elapses.
	StateOpen
	// StateHalfOpen admits a single probe whose outcome closes or reopens
	// the breaker.
	StateHalfOpen
)

// String returns the state as a lowercase string: "closed", "open", or
// "half_open".
func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// MarshalText implements [encoding.TextMarshaler] so states render as their
// string form in JSON status output.
func (s BreakerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------.

type (
	breakerConfig struct {
		failureThreshold     int
		resetTimeout         time.Duration
		halfOpenTimeout      time.Duration
		failureRateThreshold float64
		minRequests          int
	}

	// BreakerOption configures a circuit breaker.
	BreakerOption func(*breakerConfig)

	// Breaker tracks the recent failure behavior of one dependency and
	// decides when further attempts should be refused outright.
	//
	// Pattern: Circuit Breaker — trips on a consecutive-failure run or on
	// the failure rate over a minimum sample; recovers through a half-open
	// probe. State is derived lazily from the counters and the wall clock
	// at read time; no background timer runs.
	Breaker struct {
		name  string
		clock Clock
		hooks *Hooks
		cfg   breakerConfig

		mu                  sync.Mutex
		state               BreakerState
		consecutiveFailures int
		totalRequests       int
		totalFailures       int
		lastTransition      time.Time
	}

	// BreakerCounts is a point-in-time snapshot of a breaker's counters.
	BreakerCounts struct {
		ConsecutiveFailures int `json:"consecutive_failures"`
		TotalRequests       int `json:"total_requests"`
		TotalFailures       int `json:"total_failures"`
	}
)

func defaultBreakerConfig() breakerConfig {
	return breakerConfig{
		failureThreshold:     5,
		resetTimeout:         60 * time.Second,
		halfOpenTimeout:      30 * time.Second,
		failureRateThreshold: 0.5,
		minRequests:          10,
	}
}

// validate reports the first malformed breaker configuration field.
func (c breakerConfig) validate() error {
	if c.failureThreshold < 1 {
		return &ValidationError{
			Field:   "failure_threshold",
			Message: "must be at least 1",
		}
	}

	if c.resetTimeout < 0 {
		return &ValidationError{
			Field:   "reset_timeout",
			Message: "must not be negative",
		}
	}

	if c.halfOpenTimeout < 0 {
		return &ValidationError{
			Field:   "half_open_timeout",
			Message: "must not be negative",
		}
	}

	if c.failureRateThreshold < 0 || c.failureRateThreshold > 1 {
		return &ValidationError{
			Field:   "failure_rate_threshold",
			Message: "must be within [0, 1]",
		}
	}

	if c.minRequests < 0 {
		return &ValidationError{
			Field:   "min_requests",
			Message: "must not be negative",
		}
	}

	return nil
}

// FailureThreshold sets the length of the consecutive-failure run that
// trips the breaker.
func FailureThreshold(n int) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.failureThreshold = n
	}
}

// ResetTimeout sets how long the breaker stays open before the next state
// read may report half-open.
func ResetTimeout(d time.Duration) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.resetTimeout = d
	}
}

// HalfOpenTimeout sets how long a half-open probe may stay unresolved
// before the breaker reverts to open.
func HalfOpenTimeout(d time.Duration) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.halfOpenTimeout = d
	}
}

// FailureRateThreshold sets the failure fraction in [0, 1] that trips the
// breaker once the minimum sample size is reached.
func FailureRateThreshold(f float64) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.failureRateThreshold = f
	}
}

// MinRequests sets the minimum number of recorded outcomes before the
// failure-rate rule applies. Below it only the consecutive-failure rule
// can trip the breaker.
func MinRequests(n int) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.minRequests = n
	}
}

// NewBreaker creates a circuit breaker with the given options. The name is
// passed to hooks on every transition. A nil clock falls back to
// [RealClock]; nil hooks disable event emission.
func NewBreaker(
	name string,
	clock Clock,
	hooks *Hooks,
	opts ...BreakerOption,
) *Breaker {
	cfg := defaultBreakerConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if clock == nil {
		clock = RealClock{}
	}

	if hooks == nil {
		hooks = &Hooks{}
	}

	return &Breaker{
		name:           name,
		clock:          clock,
		hooks:          hooks,
		cfg:            cfg,
		state:          StateClosed,
		lastTransition: clock.Now(),
	}
}

// Name returns the name the breaker reports to hooks.
func (b *Breaker) Name() string { return b.name }

// ---------------------------------------------------------------------------
// State reads
// ---------------------------------------------------------------------------.

// State returns the breaker's current state, first applying any lazy
// time-based transition that has come due: open becomes half-open once the
// reset timeout has elapsed, and a half-open probe left unresolved past
// the half-open timeout reverts to open.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.currentState()
}

// Allow reports via error whether an attempt should proceed. It returns
// nil when the breaker is closed or half-open and [ErrBreakerOpen] when it
// is open.
func (b *Breaker) Allow() error {
	if b.State() == StateOpen {
		return ErrBreakerOpen
	}

	return nil
}

// Counts returns a snapshot of the breaker's counters. The counters cover
// the current sampling window, which restarts whenever the breaker closes.
func (b *Breaker) Counts() BreakerCounts {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerCounts{
		ConsecutiveFailures: b.consecutiveFailures,
		TotalRequests:       b.totalRequests,
		TotalFailures:       b.totalFailures,
	}
}

// currentState applies pending lazy transitions and returns the state.
// Callers must hold b.mu.
func (b *Breaker) currentState() BreakerState {
	switch b.state {
	case StateOpen:
		if b.clock.Since(b.lastTransition) >= b.cfg.resetTimeout {
			b.setState(StateHalfOpen)
		}

	case StateHalfOpen:
		if b.clock.Since(b.lastTransition) >= b.cfg.halfOpenTimeout {
			b.setState(StateOpen)
		}

	case StateClosed:
	}

	return b.state
}

// ---------------------------------------------------------------------------
// Outcome recording — the only mutators
// ---------------------------------------------------------------------------.

// RecordSuccess records a successful attempt outcome. In the closed state
// it ends the consecutive-failure run and counts the request; in half-open
// it resolves the probe and closes the breaker, starting a fresh sampling
// window.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case StateClosed:
		b.consecutiveFailures = 0
		b.totalRequests++

	case StateHalfOpen:
		b.setState(StateClosed)

	case StateOpen:
		// Outcomes of attempts that were in flight when the breaker
		// opened carry no signal worth acting on.
	}
}

// RecordFailure records a failed attempt outcome and evaluates both trip
// rules. In half-open any failure reopens the breaker immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case StateClosed:
		b.consecutiveFailures++
		b.totalRequests++
		b.totalFailures++

		if b.tripped() {
			b.setState(StateOpen)
		}

	case StateHalfOpen:
		b.consecutiveFailures++
		b.totalRequests++
		b.totalFailures++
		b.setState(StateOpen)

	case StateOpen:
		// Already open; nothing to trip.
	}
}

// tripped reports whether either closed-to-open rule holds: the
// consecutive-failure run reached the failure threshold, or the failure
// rate reached its threshold over at least minRequests samples. The rate
// rule is inert below the minimum sample size. Callers must hold b.mu.
func (b *Breaker) tripped() bool {
	if b.consecutiveFailures >= b.cfg.failureThreshold {
		return true
	}

	if b.totalRequests >= b.cfg.minRequests && b.totalRequests > 0 {
		rate := float64(b.totalFailures) / float64(b.totalRequests)

		return rate >= b.cfg.failureRateThreshold
	}

	return false
}

// setState transitions to next, stamps the transition time, and fires the
// matching hook. Entering the closed state starts a fresh sampling window.
// Callers must hold b.mu.
func (b *Breaker) setState(next BreakerState) {
	if b.state == next {
		return
	}

	b.state = next
	b.lastTransition = b.clock.Now()

	switch next {
	case StateClosed:
		b.consecutiveFailures = 0
		b.totalRequests = 0
		b.totalFailures = 0
		b.hooks.emitBreakerClose(b.name)

	case StateOpen:
		b.hooks.emitBreakerOpen(b.name)

	case StateHalfOpen:
		b.hooks.emitBreakerHalfOpen(b.name)
	}
}
