package breaker

import "testing"

func TestBreakerTripsAfterThresholdFailuresInWindow(t *testing.T) {
	b := New(2, 3, 5)
	if b.IsOpen() {
		t.Fatalf("expected a fresh breaker to be closed")
	}
	b.RecordFailure()
	if b.IsOpen() {
		t.Fatalf("expected the breaker to stay closed after one failure")
	}
	b.RecordFailure()
	if !b.IsOpen() {
		t.Fatalf("expected two failures within a window of 3 to trip the breaker")
	}
}

func TestBreakerClosesAfterCooldownAttempts(t *testing.T) {
	b := New(1, 1, 2)
	b.RecordFailure()
	if !b.IsOpen() {
		t.Fatalf("expected a single failure to trip a threshold-1 breaker")
	}
	if !b.IsOpen() {
		t.Fatalf("expected the breaker to still be open on the second of 2 cooldown attempts")
	}
	if b.IsOpen() {
		t.Fatalf("expected the breaker to close once its cooldown attempts are exhausted")
	}
}

func TestBreakerSlidesOldFailuresOutOfWindow(t *testing.T) {
	b := New(2, 2, 5)
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordSuccess()
	if b.IsOpen() {
		t.Fatalf("expected the old failure to have slid out of a window of 2, leaving the breaker closed")
	}
}

func TestNilBreakerIsAlwaysClosed(t *testing.T) {
	var b *Breaker
	b.RecordFailure()
	b.RecordSuccess()
	if b.IsOpen() {
		t.Fatalf("expected a nil breaker (parallel scan built with br=nil) to never block dispatch")
	}
}
