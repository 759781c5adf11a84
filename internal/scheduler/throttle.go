package scheduler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Throttle limits how many recurring work items may be in flight per user at
// once, so one user with a large backlog cannot starve the others.
type Throttle struct {
	mu    sync.Mutex
	limit int64
	users map[string]*semaphore.Weighted
}

// NewThrottle creates a Throttle allowing limit concurrent items per user.
func NewThrottle(limit int64) *Throttle {
	if limit <= 0 {
		limit = 1
	}
	return &Throttle{
		limit: limit,
		users: make(map[string]*semaphore.Weighted),
	}
}

// Acquire blocks until the user has a free slot or ctx is cancelled.
func (t *Throttle) Acquire(ctx context.Context, userID string) error {
	return t.semFor(userID).Acquire(ctx, 1)
}

// Release frees one of the user's slots. It must follow a successful Acquire.
func (t *Throttle) Release(userID string) {
	t.semFor(userID).Release(1)
}

func (t *Throttle) semFor(userID string) *semaphore.Weighted {
	t.mu.Lock()
	defer t.mu.Unlock()

	sem, ok := t.users[userID]
	if !ok {
		sem = semaphore.NewWeighted(t.limit)
		t.users[userID] = sem
	}
	return sem
}
