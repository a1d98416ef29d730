package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	errStoreUnavailable = errors.New("notification store unavailable")
	errBadPayload       = errors.New("malformed notification payload")
)

// fastConfig keeps backoff delays short enough for tests.
func fastConfig() Config {
	return Config{
		Enabled:      true,
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// flakyStore fails a fixed number of times before recovering, like a redis
// node coming back after a blip.
type flakyStore struct {
	failures int
	calls    int
}

func (s *flakyStore) save() error {
	s.calls++
	if s.calls <= s.failures {
		return errStoreUnavailable
	}
	return nil
}

func TestRetry_RecoversFromTransientFailures(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantCalls int
		wantErr   bool
	}{
		{"healthy store", 0, 1, false},
		{"one blip", 1, 2, false},
		{"recovers on last attempt", 3, 4, false},
		{"outage outlasts the budget", 10, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &flakyStore{failures: tt.failures}
			err := Retry(context.Background(), fastConfig(), store.save)

			if (err != nil) != tt.wantErr {
				t.Errorf("Retry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if store.calls != tt.wantCalls {
				t.Errorf("store called %d times, want %d", store.calls, tt.wantCalls)
			}
		})
	}
}

func TestRetry_DisabledRunsExactlyOnce(t *testing.T) {
	store := &flakyStore{failures: 5}
	err := Retry(context.Background(), Config{Enabled: false}, store.save)

	if err == nil {
		t.Error("expected the single failure to surface")
	}
	if store.calls != 1 {
		t.Errorf("disabled retry made %d calls, want 1", store.calls)
	}
}

// Validation errors must not be retried: re-sending a malformed notification
// cannot make it well-formed.
func TestRetry_NonRetryableErrorStopsImmediately(t *testing.T) {
	cfg := fastConfig()
	cfg.NonRetryableErrors = []error{errBadPayload}

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return errBadPayload
	})

	if err == nil {
		t.Error("expected the non-retryable error to surface")
	}
	if calls != 1 {
		t.Errorf("non-retryable error triggered %d calls, want 1", calls)
	}
}

func TestRetry_CancelledContextAbortsBackoff(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialDelay = 50 * time.Millisecond
	cfg.MaxAttempts = 10

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := Retry(ctx, cfg, func() error {
		calls++
		return errStoreUnavailable
	})

	if err == nil {
		t.Error("expected cancellation error")
	}
	if calls == 0 {
		t.Error("the first attempt should run before cancellation")
	}
	if calls > 2 {
		t.Errorf("cancellation during backoff should stop retries, got %d calls", calls)
	}
}

func TestRetryWithResult_ReturnsRecoveredValue(t *testing.T) {
	attempts := 0
	count, err := RetryWithResult(context.Background(), fastConfig(), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errStoreUnavailable
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("RetryWithResult() error = %v", err)
	}
	if count != 42 {
		t.Errorf("result = %d, want 42", count)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestRetryWithResult_ZeroValueOnExhaustion(t *testing.T) {
	got, err := RetryWithResult(context.Background(), fastConfig(), func() (string, error) {
		return "partial", errStoreUnavailable
	})

	if err == nil {
		t.Error("expected error after exhausting attempts")
	}
	if got != "" {
		t.Errorf("exhausted retry must return the zero value, got %q", got)
	}
}

func TestCalculateDelay_GrowsAndCaps(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second}, // capped
		{9, time.Second}, // stays capped
	}

	for _, tt := range tests {
		if got := calculateDelay(cfg, tt.attempt); got != tt.want {
			t.Errorf("calculateDelay(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestCalculateDelay_JitterStaysNearBase(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}

	base := 200 * time.Millisecond
	for i := 0; i < 10; i++ {
		delay := calculateDelay(cfg, 1)
		if delay < base-base/4 || delay > base+base/4 {
			t.Errorf("jittered delay %v outside 25%% band around %v", delay, base)
		}
	}
}

func TestDefaultConfig_SaneForNetworkStores(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("default config must be enabled")
	}
	if cfg.MaxAttempts < 1 {
		t.Errorf("MaxAttempts = %d, want at least 1", cfg.MaxAttempts)
	}
	if cfg.InitialDelay <= 0 || cfg.MaxDelay < cfg.InitialDelay {
		t.Errorf("delay bounds inverted: initial %v, max %v", cfg.InitialDelay, cfg.MaxDelay)
	}
	if cfg.Multiplier < 1 {
		t.Errorf("Multiplier = %f, backoff must not shrink", cfg.Multiplier)
	}
}
