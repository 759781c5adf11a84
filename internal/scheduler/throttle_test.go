package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestThrottle(t *testing.T) {
	t.Run("blocks_at_per_user_limit", func(t *testing.T) {
		th := NewThrottle(2)
		ctx := context.Background()

		if err := th.Acquire(ctx, "user-a"); err != nil {
			t.Fatalf("first acquire: %v", err)
		}
		if err := th.Acquire(ctx, "user-a"); err != nil {
			t.Fatalf("second acquire: %v", err)
		}

		blocked, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		if err := th.Acquire(blocked, "user-a"); err == nil {
			t.Fatal("expected third acquire to block until timeout")
		}

		th.Release("user-a")
		if err := th.Acquire(ctx, "user-a"); err != nil {
			t.Fatalf("acquire after release: %v", err)
		}
	})

	t.Run("users_are_independent", func(t *testing.T) {
		th := NewThrottle(1)
		ctx := context.Background()

		if err := th.Acquire(ctx, "user-a"); err != nil {
			t.Fatalf("acquire user-a: %v", err)
		}
		if err := th.Acquire(ctx, "user-b"); err != nil {
			t.Fatalf("user-b should not be blocked by user-a: %v", err)
		}
	})

	t.Run("zero_limit_is_clamped", func(t *testing.T) {
		th := NewThrottle(0)
		if err := th.Acquire(context.Background(), "user-a"); err != nil {
			t.Fatalf("expected clamped limit of 1, got %v", err)
		}
	})
}
