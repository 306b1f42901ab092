package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowsBurstImmediately(t *testing.T) {
	l := NewLimiter(1, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx, "https://example.com/a"); err != nil {
			t.Fatalf("Burst request %d should not block: %v", i, err)
		}
	}
}

func TestLimiter_DomainsAreIndependent(t *testing.T) {
	l := NewLimiter(1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://one.example.com/x"); err != nil {
		t.Fatalf("First domain: %v", err)
	}
	// A different domain has its own budget and must not inherit the
	// first domain's exhausted one.
	if err := l.Wait(ctx, "https://two.example.com/x"); err != nil {
		t.Fatalf("Second domain should have fresh budget: %v", err)
	}
}

func TestLimiter_WaitHonoursCancellation(t *testing.T) {
	l := NewLimiter(0.1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://example.com/a"); err != nil {
		t.Fatalf("First request: %v", err)
	}
	// Budget exhausted; the next wait would take ~10s.
	if err := l.Wait(ctx, "https://example.com/b"); err == nil {
		t.Fatal("Expected cancellation error on exhausted budget")
	}
}

func TestLimiter_WaitWithDelayCancellable(t *testing.T) {
	l := NewLimiter(100, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.WaitWithDelay(ctx, "https://example.com/a", 5*time.Second)
	if err == nil {
		t.Fatal("Expected cancellation during delay")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Delay was not cancelled promptly (took %v)", elapsed)
	}
}

func TestLimiter_BadURL(t *testing.T) {
	l := NewLimiter(1, 1)
	if err := l.Wait(context.Background(), "://not-a-url"); err == nil {
		t.Fatal("Expected error for unparseable URL")
	}
}
