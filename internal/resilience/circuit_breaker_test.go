package resilience

import (
	"errors"
	"testing"
	"time"
)

var errRemote = errors.New("remote failure")

func failNTimes(n int) func() error {
	calls := 0
	return func() error {
		calls++
		if calls <= n {
			return errRemote
		}
		return nil
	}
}

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)

	for i := 0; i < 10; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("Call %d failed: %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected closed state, got %v", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)

	for i := 0; i < 3; i++ {
		cb.Call(func() error { return errRemote })
	}
	if cb.State() != StateOpen {
		t.Fatalf("Expected open state after 3 failures, got %v", cb.State())
	}

	// Open breaker refuses the call without running it.
	ran := false
	err := cb.Call(func() error { ran = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if ran {
		t.Error("Expected function not to run while circuit is open")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)

	cb.Call(func() error { return errRemote })
	cb.Call(func() error { return errRemote })
	cb.Call(func() error { return nil })
	cb.Call(func() error { return errRemote })
	cb.Call(func() error { return errRemote })

	if cb.State() != StateClosed {
		t.Errorf("Expected closed state, interleaved success should reset the streak, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 10*time.Millisecond)

	cb.Call(func() error { return errRemote })
	cb.Call(func() error { return errRemote })
	if cb.State() != StateOpen {
		t.Fatalf("Expected open state, got %v", cb.State())
	}

	time.Sleep(15 * time.Millisecond)

	// Three probe successes close the circuit again.
	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("Probe call %d refused: %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected closed state after recovery, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 10*time.Millisecond)

	cb.Call(func() error { return errRemote })
	cb.Call(func() error { return errRemote })
	time.Sleep(15 * time.Millisecond)

	cb.Call(func() error { return errRemote })
	if cb.State() != StateOpen {
		t.Errorf("Expected reopened circuit after half-open failure, got %v", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)

	cb.Call(func() error { return errRemote })
	if cb.State() != StateOpen {
		t.Fatalf("Expected open state, got %v", cb.State())
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("Expected closed state after Reset, got %v", cb.State())
	}
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Errorf("Expected call to pass after Reset, got %v", err)
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb := NewCircuitBreaker("test", 5, time.Minute)

	cb.Call(failNTimes(2))
	cb.Call(func() error { return nil })
	cb.Call(func() error { return errRemote })

	requests, failures := cb.Stats()
	if requests != 3 {
		t.Errorf("Expected 3 requests, got %d", requests)
	}
	if failures != 2 {
		t.Errorf("Expected 2 failures, got %d", failures)
	}
}
