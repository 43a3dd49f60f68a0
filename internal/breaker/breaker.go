// Package breaker guards internal/exec's parallel-scan prefetch pipeline:
// a ParallelScanOperator's fetchLoop goroutine is the only caller of a
// RowIterator's Next method, so the natural retry unit to trip a breaker
// on is "one batch fetch", not wall-clock time. Breaker counts failures
// across the most recent fetch attempts and, once tripped, holds the
// pipeline off for a fixed number of further attempts rather than a
// timed cooldown, so a backend that is failing one fetch in three stays
// degraded in proportion to how often it's actually being asked to do
// anything, not to how many seconds happen to pass.
package breaker

import "sync"

// Breaker is a lightweight in-memory, attempt-windowed failure counter.
type Breaker struct {
	mu sync.Mutex

	threshold int // failures within the window that trip the breaker
	window    int // number of most-recent attempts considered
	cooldown  int // attempts the breaker stays open for once tripped

	recent  []bool // true = failed attempt, oldest first, capped at window
	openFor int     // attempts remaining before the breaker closes again
}

// New creates a Breaker that opens once threshold of the last window
// fetch attempts failed, and stays open for the next cooldown attempts
// (successful or not - the point is to stop asking the backend to keep up
// with parallel dispatch, not to probe it).
func New(threshold, window, cooldown int) *Breaker {
	if window < threshold {
		window = threshold
	}
	return &Breaker{threshold: threshold, window: window, cooldown: cooldown}
}

// RecordFailure records a failed fetch attempt.
func (b *Breaker) RecordFailure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(true)
}

// RecordSuccess records a successful fetch attempt.
func (b *Breaker) RecordSuccess() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(false)
}

func (b *Breaker) record(failed bool) {
	b.recent = append(b.recent, failed)
	if len(b.recent) > b.window {
		b.recent = b.recent[len(b.recent)-b.window:]
	}
	if b.openFor > 0 {
		return
	}
	failures := 0
	for _, f := range b.recent {
		if f {
			failures++
		}
	}
	if failures >= b.threshold {
		b.openFor = b.cooldown
		b.recent = b.recent[:0]
	}
}

// IsOpen reports whether the breaker currently blocks parallel dispatch,
// consuming one attempt of the cooldown on every call while open -
// ParallelScanOperator.Next calls it once per batch fetch it would
// otherwise prefetch, so the breaker measures its cooldown in the same
// units it tripped on.
func (b *Breaker) IsOpen() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openFor <= 0 {
		return false
	}
	b.openFor--
	return true
}
