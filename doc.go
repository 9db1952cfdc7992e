// Package r9y provides retry and circuit-breaker decision policies for Go
// applications.
//
// The central type is Manager, which owns named retry policies and answers
// two questions after a failed attempt: should the caller retry, and how
// long should it wait first. The engine never runs the wrapped operation and
// never sleeps; callers drive the attempt loop themselves and report each
// outcome back into the policy's circuit breaker.
package r9y
