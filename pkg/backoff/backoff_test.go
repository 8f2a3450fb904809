package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFirstAttemptDoesNotWait(t *testing.T) {
	b := New(time.Hour, 2*time.Hour)
	start := time.Now()
	err := b.Sleep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > time.Second {
		t.Error("first Sleep should return immediately")
	}
}

func TestDelayClampsAtMax(t *testing.T) {
	b := New(time.Millisecond, 4*time.Millisecond)
	for i := 0; i < 10; i++ {
		b.Failure()
	}
	if b.currentDelay != 4*time.Millisecond {
		t.Errorf("delay %v after many failures, want the %v clamp", b.currentDelay, 4*time.Millisecond)
	}

	// a clamped backoff keeps sleeping instead of giving up
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := b.Sleep(ctx); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if b.Attempts() != 5 {
		t.Errorf("expected 5 attempts, got %d", b.Attempts())
	}
}

func TestCancelledContext(t *testing.T) {
	b := New(time.Minute, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	if err := b.Sleep(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	err := b.Sleep(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDeadlineEndsTheWait(t *testing.T) {
	b := New(time.Minute, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.Sleep(ctx); err != nil {
		t.Fatal(err)
	}
	err := b.Sleep(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestReset(t *testing.T) {
	b := New(time.Millisecond, 10*time.Millisecond)
	b.Failure()
	b.Failure()
	b.Reset()
	if b.currentDelay != time.Millisecond {
		t.Errorf("reset did not restore the minimum delay")
	}
}
