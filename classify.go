package r9y

import "strings"

// ---------------------------------------------------------------------------
// Should-retry decision
// ---------------------------------------------------------------------------

// ShouldRetry decides whether the caller should attempt again after
// observing err under the named policy. The checks run in a fixed order:
//
//  1. unknown policy: deny, nothing is configured to retry
//  2. the policy's breaker is open: deny without consulting classification
//  3. the total-time budget has expired: deny regardless of the error
//  4. otherwise: allow iff the error's kind tag or message matches the
//     policy's classification rules
//
// A false answer is a normal decision, never an error. Integration
// mistakes such as a misspelled policy name surface through
// [Manager.GetDelay] instead.
func (m *Manager) ShouldRetry(name string, err error) bool {
	p, ok := m.GetPolicy(name)
	if !ok {
		return false
	}

	if p.breaker != nil && p.breaker.State() == StateOpen {
		m.hooks.emitRetryDenied(name, err)

		return false
	}

	if p.budgetExpired(m.clock) {
		m.hooks.emitRetryDenied(name, err)

		return false
	}

	if !p.retryable(err) {
		m.hooks.emitRetryDenied(name, err)

		return false
	}

	m.hooks.emitRetryAllowed(name, err)

	return true
}

// retryable reports whether err matches the policy's classification
// rules: its kind tag (see [Kind]) is one of the policy's error kinds, or
// its message contains one of the policy's patterns as a substring. The
// two mechanisms combine with OR. A policy that declares neither kinds
// nor patterns is permissive and retries every non-nil error.
func (p *Policy) retryable(err error) bool {
	if err == nil {
		return false
	}

	if len(p.errorKinds) == 0 && len(p.errorPatterns) == 0 {
		return true
	}

	if _, ok := p.errorKinds[KindOf(err)]; ok {
		return true
	}

	msg := err.Error()
	for _, pat := range p.errorPatterns {
		if strings.Contains(msg, pat) {
			return true
		}
	}

	return false
}

// budgetExpired reports whether the policy's total-time budget has run
// out. The budget window opens on the policy's first consult and is
// measured against the given clock.
func (p *Policy) budgetExpired(clock Clock) bool {
	if p.maxTotalTime <= 0 {
		return false
	}

	p.startOnce.Do(func() { p.startTime = clock.Now() })

	return clock.Since(p.startTime) > p.maxTotalTime
}
