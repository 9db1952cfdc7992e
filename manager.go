package r9y

import (
	"fmt"
	"iter"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Manager — the facade callers talk to
// ---------------------------------------------------------------------------

type (
	// Manager owns named retry policies and their attempt histories, and
	// answers the two questions callers ask after a failed attempt: should
	// I retry, and how long should I wait first. It executes nothing and
	// never sleeps; callers drive the attempt loop and wait out returned
	// delays themselves, then report outcomes into the policy's breaker.
	//
	// Construct managers explicitly and pass them to callers; independent
	// configurations can then coexist and be tested in isolation.
	//
	// A Manager is safe for concurrent use. Registration and lookup share
	// one RWMutex; each breaker and the history log carry their own locks
	// so hot paths for unrelated policies do not serialize.
	Manager struct {
		mu       sync.RWMutex
		policies map[string]*Policy

		history *historyLog
		clock   Clock
		hooks   Hooks
	}

	// ManagerOption configures a Manager.
	ManagerOption func(*Manager)
)

// WithClock sets the clock used for breaker timing, retry budgets, and
// record timestamps.
func WithClock(c Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithHooks sets the lifecycle hooks shared by the manager and every
// breaker it materializes.
func WithHooks(h Hooks) ManagerOption {
	return func(m *Manager) {
		m.hooks = h
	}
}

// NewManager creates an empty manager. Without options it uses the real
// clock and no hooks.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		policies: make(map[string]*Policy),
		history:  newHistoryLog(),
		clock:    RealClock{},
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// ---------------------------------------------------------------------------
// Policy registration and lookup
// ---------------------------------------------------------------------------

// AddPolicy validates p and registers it under its name, replacing any
// existing policy with that name. Replacement starts from fresh breaker
// state and deliberately keeps the name's attempt history. The only
// failure mode is malformed input, reported as a [*ValidationError].
func (m *Manager) AddPolicy(p *Policy) error {
	if p == nil {
		return &ValidationError{
			Field:   "policy",
			Message: "must not be nil",
		}
	}

	if err := p.Validate(); err != nil {
		return err
	}

	p.materialize(m.clock, &m.hooks)

	m.mu.Lock()
	m.policies[p.name] = p
	m.mu.Unlock()

	return nil
}

// GetPolicy returns the named policy and true, or nil and false when no
// policy is registered under name.
func (m *Manager) GetPolicy(name string) (*Policy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.policies[name]

	return p, ok
}

// Len returns the number of registered policies.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.policies)
}

// Policies returns an iterator over a snapshot of the registered
// policies, in map order. Policies registered after the call are not
// observed.
func (m *Manager) Policies() iter.Seq[*Policy] {
	m.mu.RLock()

	snap := make([]*Policy, 0, len(m.policies))
	for _, p := range m.policies {
		snap = append(snap, p)
	}

	m.mu.RUnlock()

	return func(yield func(*Policy) bool) {
		for _, p := range snap {
			if !yield(p) {
				return
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Delay computation
// ---------------------------------------------------------------------------

// GetDelay computes the delay the caller should wait before the given
// 1-indexed attempt. Asking for an unregistered policy is an integration
// error and returns [ErrPolicyNotFound]; contrast with
// [Manager.ShouldRetry], whose false answer is an ordinary decision.
func (m *Manager) GetDelay(name string, attempt int) (time.Duration, error) {
	p, ok := m.GetPolicy(name)
	if !ok {
		return 0, fmt.Errorf("r9y: policy %q: %w", name, ErrPolicyNotFound)
	}

	d := delayFor(p, attempt)
	m.hooks.emitDelayComputed(name, attempt, d)

	return d, nil
}

// ---------------------------------------------------------------------------
// Attempt history
// ---------------------------------------------------------------------------

// RecordAttempt appends a record of a failed attempt to the name's
// history, creating the log on first use. The error's kind tag (see
// [Kind]) is captured; the timestamp comes from the manager's clock.
// Records are accepted for any name so a replaced policy's history stays
// continuous.
func (m *Manager) RecordAttempt(
	name string,
	attempt int,
	err error,
	delay time.Duration,
) {
	rec := AttemptRecord{
		Attempt:   attempt,
		ErrorKind: KindOf(err),
		Delay:     delay,
		Timestamp: m.clock.Now(),
	}

	m.history.append(name, rec)
	m.hooks.emitAttemptRecorded(name, rec)
}

// GetAttemptHistory returns a copy of the name's attempt records in
// insertion order, or an empty slice when none exist.
func (m *Manager) GetAttemptHistory(name string) []AttemptRecord {
	return m.history.snapshot(name)
}

// ClearHistory removes the named policy's attempt records.
func (m *Manager) ClearHistory(name string) {
	m.history.clear(name)
}

// ClearAllHistory removes every policy's attempt records.
func (m *Manager) ClearAllHistory() {
	m.history.clearAll()
}
