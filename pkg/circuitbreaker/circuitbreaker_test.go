package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errStoreDown = errors.New("notification store down")

// trippableConfig opens after two failures and recovers quickly, so state
// transitions are observable without long sleeps.
func trippableConfig() Config {
	return Config{
		FailureThreshold:    2,
		SuccessThreshold:    2,
		Timeout:             30 * time.Millisecond,
		MaxRequestsHalfOpen: 3,
	}
}

func trip(t *testing.T, cb *CircuitBreaker) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func() error { return errStoreDown })
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("breaker should be open after repeated failures, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := New(DefaultConfig())

	if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want closed", cb.GetState())
	}
}

func TestCircuitBreaker_CountsFailuresWhileClosed(t *testing.T) {
	cb := New(DefaultConfig())

	err := cb.Execute(context.Background(), func() error { return errStoreDown })
	if err == nil {
		t.Error("the wrapped failure must surface")
	}
	if cb.GetState() != StateClosed {
		t.Errorf("one failure below the threshold must not open the breaker, state = %v", cb.GetState())
	}
	if stats := cb.GetStats(); stats.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", stats.FailureCount)
	}
}

// Once open, the breaker sheds load: the store is not called at all.
func TestCircuitBreaker_OpenShedsLoad(t *testing.T) {
	cb := New(trippableConfig())
	trip(t, cb)

	called := false
	err := cb.Execute(context.Background(), func() error {
		called = true
		return nil
	})

	if err == nil {
		t.Error("open breaker must reject the request")
	}
	if called {
		t.Error("open breaker must not invoke the wrapped call")
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New(trippableConfig())
	trip(t, cb)

	// Past the timeout the breaker probes the store again.
	time.Sleep(40 * time.Millisecond)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err != nil {
			t.Fatalf("probe %d rejected: %v", i+1, err)
		}
	}

	if cb.GetState() != StateClosed {
		t.Errorf("two successful probes should close the breaker, state = %v", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New(trippableConfig())
	trip(t, cb)

	time.Sleep(40 * time.Millisecond)

	_ = cb.Execute(context.Background(), func() error { return errStoreDown })

	if cb.GetState() != StateOpen {
		t.Errorf("a failed probe must reopen the breaker, state = %v", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cfg := trippableConfig()
	cfg.MaxRequestsHalfOpen = 1
	cfg.SuccessThreshold = 3 // keep it half-open through the first probe
	cb := New(cfg)
	trip(t, cb)

	time.Sleep(40 * time.Millisecond)

	// The request that flips the breaker to half-open does not count
	// against the probe budget, so two requests pass before the limit.
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err != nil {
			t.Fatalf("probe %d rejected: %v", i+1, err)
		}
	}
	if err := cb.Execute(ctx, func() error { return nil }); err == nil {
		t.Error("probe budget exhausted, request must be rejected")
	}
}

func TestCircuitBreaker_ExecuteWithResult(t *testing.T) {
	cb := New(trippableConfig())

	got, err := cb.ExecuteWithResult(context.Background(), func() (interface{}, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult() error = %v", err)
	}
	if got != 7 {
		t.Errorf("result = %v, want 7", got)
	}

	trip(t, cb)
	got, err = cb.ExecuteWithResult(context.Background(), func() (interface{}, error) {
		return 7, nil
	})
	if err == nil {
		t.Error("open breaker must reject the request")
	}
	if got != nil {
		t.Errorf("rejected request must return nil, got %v", got)
	}
}

func TestCircuitBreaker_NotifiesStateChanges(t *testing.T) {
	cb := New(trippableConfig())

	var mu sync.Mutex
	seen := make(map[State]bool)
	cb.OnStateChange(func(from, to State) {
		mu.Lock()
		seen[to] = true
		mu.Unlock()
	})

	trip(t, cb)
	time.Sleep(40 * time.Millisecond)
	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func() error { return nil })
	}

	// Callbacks fire asynchronously
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if !seen[StateOpen] {
		t.Error("missing transition to open")
	}
	if !seen[StateClosed] {
		t.Error("missing transition back to closed")
	}
}

func TestCircuitBreaker_ResetForcesClosed(t *testing.T) {
	cb := New(trippableConfig())
	trip(t, cb)

	cb.Reset()

	if cb.GetState() != StateClosed {
		t.Errorf("state after reset = %v, want closed", cb.GetState())
	}
	if stats := cb.GetStats(); stats.FailureCount != 0 {
		t.Errorf("FailureCount after reset = %d, want 0", stats.FailureCount)
	}
}

func TestCircuitBreaker_ConcurrentCallers(t *testing.T) {
	cb := New(DefaultConfig())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = cb.Execute(ctx, func() error { return nil })
			}
		}()
	}
	wg.Wait()

	if cb.GetState() != StateClosed {
		t.Errorf("all-success workload must leave the breaker closed, state = %v", cb.GetState())
	}
	if stats := cb.GetStats(); stats.SuccessCount != 500 {
		t.Errorf("SuccessCount = %d, want 500", stats.SuccessCount)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
