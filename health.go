package r9y

import (
	"cmp"
	"slices"
)

// ---------------------------------------------------------------------------
// Status snapshot
// ---------------------------------------------------------------------------.

type (
	// PolicyStatus is a point-in-time view of one policy: its breaker
	// state and counters, and the size of its attempt history. A policy
	// without a breaker is always healthy.
	PolicyStatus struct {
		Name        string         `json:"name"`
		Strategy    Strategy       `json:"strategy"`
		MaxAttempts int            `json:"max_attempts"`
		State       string         `json:"state"`
		Counts      *BreakerCounts `json:"counts,omitempty"`
		Attempts    int            `json:"attempts"`
		Healthy     bool           `json:"healthy"`
	}

	// ManagerStatus aggregates every registered policy's status.
	ManagerStatus struct {
		Policies []PolicyStatus `json:"policies"`
		Healthy  bool           `json:"healthy"`
	}
)

// Status returns a point-in-time snapshot of every registered policy,
// sorted by name. Healthy is false when any policy's breaker is open.
// The snapshot is read-only; [StatusHandler] serves it over HTTP.
func (m *Manager) Status() ManagerStatus {
	status := ManagerStatus{Healthy: true}

	for p := range m.Policies() {
		ps := p.status(m.history)
		status.Policies = append(status.Policies, ps)

		if !ps.Healthy {
			status.Healthy = false
		}
	}

	slices.SortFunc(status.Policies, func(a, b PolicyStatus) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return status
}

// status derives the policy's current status. Reading the breaker state
// may apply a pending lazy transition, so the snapshot reflects
// wall-clock reality at call time.
func (p *Policy) status(h *historyLog) PolicyStatus {
	ps := PolicyStatus{
		Name:        p.name,
		Strategy:    p.strategy,
		MaxAttempts: p.maxAttempts,
		State:       "healthy",
		Attempts:    h.size(p.name),
		Healthy:     true,
	}

	if p.breaker == nil {
		return ps
	}

	counts := p.breaker.Counts()
	ps.Counts = &counts

	switch p.breaker.State() {
	case StateOpen:
		ps.Healthy = false
		ps.State = "circuit_open"

	case StateHalfOpen:
		// Recovering, not unhealthy.
		ps.State = "circuit_half_open"

	case StateClosed:
	}

	return ps
}
