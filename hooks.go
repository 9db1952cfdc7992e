package r9y

import "time"

// Hooks holds optional callback functions for decision lifecycle events.
// All fields are nil by default; callers set only the hooks they care
// about. Once constructed, a Hooks value must not be mutated — emit methods
// read the function fields without synchronisation, which is safe as long
// as the struct is read-only after initialisation.
//
// Every callback receives the policy name so a single Hooks value can
// observe all policies of a [Manager].
//
// Pattern: Observer — decouples decision event emission from consumers
// (logging, metrics, alerting) without the engine knowing about observers.
type Hooks struct {
	OnRetryAllowed    func(policy string, err error)
	OnRetryDenied     func(policy string, err error)
	OnDelayComputed   func(policy string, attempt int, delay time.Duration)
	OnAttemptRecorded func(policy string, rec AttemptRecord)
	OnBreakerOpen     func(policy string)
	OnBreakerClose    func(policy string)
	OnBreakerHalfOpen func(policy string)
}

func (h *Hooks) emitRetryAllowed(policy string, err error) {
	if h.OnRetryAllowed != nil {
		h.OnRetryAllowed(policy, err)
	}
}

func (h *Hooks) emitRetryDenied(policy string, err error) {
	if h.OnRetryDenied != nil {
		h.OnRetryDenied(policy, err)
	}
}

func (h *Hooks) emitDelayComputed(policy string, attempt int, delay time.Duration) {
	if h.OnDelayComputed != nil {
		h.OnDelayComputed(policy, attempt, delay)
	}
}

func (h *Hooks) emitAttemptRecorded(policy string, rec AttemptRecord) {
	if h.OnAttemptRecorded != nil {
		h.OnAttemptRecorded(policy, rec)
	}
}

func (h *Hooks) emitBreakerOpen(policy string) {
	if h.OnBreakerOpen != nil {
		h.OnBreakerOpen(policy)
	}
}

func (h *Hooks) emitBreakerClose(policy string) {
	if h.OnBreakerClose != nil {
		h.OnBreakerClose(policy)
	}
}

func (h *Hooks) emitBreakerHalfOpen(policy string) {
	if h.OnBreakerHalfOpen != nil {
		h.OnBreakerHalfOpen(policy)
	}
}
