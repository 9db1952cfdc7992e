package r9y

import (
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Append order and snapshot isolation
// ---------------------------------------------------------------------------

func TestHistoryLogAppendOrder(t *testing.T) {
	h := newHistoryLog()

	for i := 1; i <= 3; i++ {
		h.append("api", AttemptRecord{Attempt: i})
	}

	recs := h.snapshot("api")
	if len(recs) != 3 {
		t.Fatalf("len(snapshot) = %d, want 3", len(recs))
	}
	for i, rec := range recs {
		if rec.Attempt != i+1 {
			t.Fatalf("records[%d].Attempt = %d, want %d", i, rec.Attempt, i+1)
		}
	}
}

func TestHistoryLogSnapshotIsACopy(t *testing.T) {
	h := newHistoryLog()
	h.append("api", AttemptRecord{Attempt: 1, ErrorKind: "timeout_error"})

	recs := h.snapshot("api")
	recs[0].ErrorKind = "mutated"

	if got := h.snapshot("api")[0].ErrorKind; got != "timeout_error" {
		t.Fatalf("ErrorKind after mutating snapshot = %q, want %q",
			got, "timeout_error")
	}
}

func TestHistoryLogUnknownNameIsEmpty(t *testing.T) {
	h := newHistoryLog()

	recs := h.snapshot("missing")
	if recs == nil {
		t.Fatal("snapshot(missing) = nil, want empty slice")
	}
	if len(recs) != 0 {
		t.Fatalf("len(snapshot) = %d, want 0", len(recs))
	}
	if h.size("missing") != 0 {
		t.Fatalf("size(missing) = %d, want 0", h.size("missing"))
	}
}

// ---------------------------------------------------------------------------
// Clearing
// ---------------------------------------------------------------------------

func TestHistoryLogClear(t *testing.T) {
	h := newHistoryLog()
	h.append("a", AttemptRecord{Attempt: 1})
	h.append("b", AttemptRecord{Attempt: 1})

	h.clear("a")

	if h.size("a") != 0 {
		t.Fatalf("size(a) after clear = %d, want 0", h.size("a"))
	}
	if h.size("b") != 1 {
		t.Fatalf("size(b) after clearing a = %d, want 1", h.size("b"))
	}
}

func TestHistoryLogClearAll(t *testing.T) {
	h := newHistoryLog()
	h.append("a", AttemptRecord{Attempt: 1})
	h.append("b", AttemptRecord{Attempt: 1})

	h.clearAll()

	if h.size("a") != 0 || h.size("b") != 0 {
		t.Fatalf("sizes after clearAll = %d/%d, want 0/0",
			h.size("a"), h.size("b"))
	}

	// The log keeps accepting appends afterwards.
	h.append("a", AttemptRecord{Attempt: 5})
	if h.size("a") != 1 {
		t.Fatalf("size(a) = %d, want 1", h.size("a"))
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestHistoryLogConcurrentAccess(t *testing.T) {
	h := newHistoryLog()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h.append("api", AttemptRecord{
				Attempt:   n,
				Delay:     time.Duration(n) * time.Millisecond,
				Timestamp: time.Now(),
			})
			_ = h.snapshot("api")
			_ = h.size("api")
		}(i)
	}
	wg.Wait()

	if got := h.size("api"); got != 50 {
		t.Fatalf("size = %d, want 50", got)
	}
}
