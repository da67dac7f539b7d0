package models

import (
	"context"
	"errors"
	"testing"
)

func TestWithRetry_BoundedAttempts(t *testing.T) {
	r := &sqlReservationRepo{}

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		return ErrBusy
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("want ErrBusy after exhausted retries, got %v", err)
	}
	if calls != reserveAttempts {
		t.Fatalf("transaction ran %d times, want %d", calls, reserveAttempts)
	}
}

func TestWithRetry_RecoversAfterContention(t *testing.T) {
	r := &sqlReservationRepo{}

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return ErrBusy
		}
		return nil
	})
	if err != nil {
		t.Fatalf("want success on second attempt, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("transaction ran %d times, want 2", calls)
	}
}

// Only lock contention is worth rerunning. Domain outcomes like a sold-out
// event will not change on a retry.
func TestWithRetry_DomainErrorsNotRetried(t *testing.T) {
	r := &sqlReservationRepo{}

	for _, want := range []error{ErrSoldOut, ErrAlreadyBooked, ErrNotFound} {
		calls := 0
		err := r.withRetry(context.Background(), func() error {
			calls++
			return want
		})
		if !errors.Is(err, want) {
			t.Fatalf("want %v, got %v", want, err)
		}
		if calls != 1 {
			t.Fatalf("%v: transaction ran %d times, want 1", want, calls)
		}
	}
}

func TestWithRetry_CancelledContextStopsBackoff(t *testing.T) {
	r := &sqlReservationRepo{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.withRetry(ctx, func() error {
		calls++
		return ErrBusy
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("want ErrBusy, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("transaction ran %d times after cancel, want 1", calls)
	}
}
