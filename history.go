package r9y

import (
	"sync"
	"time"
)

type (
	// AttemptRecord is one immutable entry in a policy's attempt log:
	// which 1-indexed attempt failed, the kind tag of its error, the delay
	// the caller was told to wait, and when the attempt was recorded.
	AttemptRecord struct {
		Attempt   int           `json:"attempt"`
		ErrorKind string        `json:"error_kind"`
		Delay     time.Duration `json:"delay"`
		Timestamp time.Time     `json:"timestamp"`
	}

	// historyLog stores per-policy attempt records, append-only and in
	// insertion order. It keeps its own lock so history writes never
	// contend with policy lookups, and it deliberately accepts names with
	// no registered policy: replacing a policy keeps its history.
	historyLog struct {
		mu      sync.RWMutex
		records map[string][]AttemptRecord
	}
)

func newHistoryLog() *historyLog {
	return &historyLog{records: make(map[string][]AttemptRecord)}
}

// append adds rec to the named policy's log, creating the log on first
// use.
func (h *historyLog) append(name string, rec AttemptRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[name] = append(h.records[name], rec)
}

// snapshot returns a copy of the named policy's records in insertion
// order, or an empty slice when none exist. Copying keeps callers from
// observing appends that happen after the call.
func (h *historyLog) snapshot(name string) []AttemptRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	recs := h.records[name]

	out := make([]AttemptRecord, len(recs))
	copy(out, recs)

	return out
}

// size returns the number of records held for name.
func (h *historyLog) size(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.records[name])
}

// clear removes the named policy's records.
func (h *historyLog) clear(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.records, name)
}

// clearAll removes every policy's records.
func (h *historyLog) clearAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = make(map[string][]AttemptRecord)
}
