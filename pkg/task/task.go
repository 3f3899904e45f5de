// Package task runs background side effects that must not block or fail the
// request that triggered them. Failures are logged and swallowed.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultTimeout = 10 * time.Second

// Runner executes fire-and-forget tasks with panic recovery and a per-task
// timeout. Wait allows graceful shutdown to drain in-flight tasks.
type Runner struct {
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a Runner. A zero timeout falls back to 10 seconds.
func NewRunner(log *slog.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{log: log, timeout: timeout}
}

// Go runs fn in a goroutine detached from the caller's context lifetime.
// The task gets its own deadline so a finished request does not cancel it.
func (r *Runner) Go(name string, fn func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("background task panicked", "task", name, "panic", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			r.log.Error("background task failed", "task", name, "error", err)
		}
	}()
}

// Wait blocks until all running tasks finish or the context expires.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
