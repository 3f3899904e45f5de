package task

import (
	"context"
	"log/slog"
	"time"
)

// Every runs fn on the given interval until the context is canceled.
// Errors are logged and the loop keeps going. Blocks; run in a goroutine.
func Every(ctx context.Context, interval time.Duration, name string, log *slog.Logger, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if rec := recover(); rec != nil {
						log.Error("periodic task panicked", "task", name, "panic", rec)
					}
				}()
				if err := fn(ctx); err != nil {
					log.Error("periodic task failed", "task", name, "error", err)
				}
			}()
		}
	}
}
