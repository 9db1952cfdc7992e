package r9y

import "errors"

// ---------------------------------------------------------------------------
// Sentinels and error-kind tagging
// ---------------------------------------------------------------------------.

type (
	// ReliabilityError identifies errors produced by the decision engine
	// itself, as opposed to errors from the caller's attempted operation.
	//nolint:iface // exported for use in tests and consumer error
	// classification.
	ReliabilityError interface {
		error
		// IsReliability reports whether this error originates from the
		// decision engine.
		IsReliability() bool
	}

	// kindError attaches an explicit error-kind tag to a wrapped error.
	kindError struct {
		kind string
		err  error
	}

	// reliabilityError is the concrete type backing all sentinel errors.
	reliabilityError string
)

// Sentinel engine errors.
var (
	// ErrPolicyNotFound is returned when an operation references a policy
	// name that was never registered. A false ShouldRetry answer for an
	// unknown name is a normal decision; this sentinel marks integration
	// errors such as GetDelay on a missing policy.
	ErrPolicyNotFound error = reliabilityError("policy not found")
	// ErrBreakerOpen is exposed for callers that surface a circuit-breaker
	// refusal as an error rather than a boolean decision.
	ErrBreakerOpen error = reliabilityError("circuit breaker is open")
)

func (e *kindError) Error() string { return e.kind + ": " + e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

func (e reliabilityError) Error() string { return string(e) }

// IsReliability reports whether the error is an engine infrastructure error.
func (reliabilityError) IsReliability() bool { return true }

// Kind wraps err with an explicit error-kind tag. Policies classify
// failures by these tags (see [WithErrorKinds]) without depending on any
// concrete error type hierarchy; the caller chooses the vocabulary.
// Returns nil if err is nil.
func Kind(err error, kind string) error {
	if err == nil {
		return nil
	}

	return &kindError{kind: kind, err: err}
}

// KindOf returns the kind tag attached to err via [Kind], or the empty
// string when err is nil or carries no tag. When err wraps several tagged
// errors, the outermost tag wins.
func KindOf(err error) string {
	if err == nil {
		return ""
	}

	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}

	return ""
}

// ---------------------------------------------------------------------------
// ValidationError — malformed configuration input
// ---------------------------------------------------------------------------.

// ValidationError reports a malformed policy or breaker configuration
// value. Field names the offending field; Message states the violated
// constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "r9y: invalid " + e.Field + ": " + e.Message
}
