package queue

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds how many posts of one platform are in flight. Waiting work is
// admitted in the order it asked.
type Limiter struct {
	sem   *semaphore.Weighted
	limit int
}

func NewLimiter(limit int) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(limit)), limit: limit}
}

func (l *Limiter) Limit() int {
	return l.limit
}

// Go blocks until a slot is free and then runs fn in its own goroutine,
// releasing the slot when fn returns. It fails only when ctx is done first.
func (l *Limiter) Go(ctx context.Context, fn func()) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	go func() {
		defer l.sem.Release(1)
		fn()
	}()
	return nil
}
