package orchestrators

import (
	"context"
	"log/slog"
	"time"
)

// Job is one round of periodic background work.
type Job func(ctx context.Context) error

// StartBackgroundWorker runs job every interval until stopCh is closed. Each
// round gets its own timeout. The returned channel is closed once the
// goroutine has exited.
func StartBackgroundWorker(name string, job Job, interval, timeout time.Duration, stopCh <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				if err := job(ctx); err != nil {
					slog.Error("background_job_failed", "worker", name, "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("background_worker_stopped", "worker", name)
				return
			}
		}
	}()
	return done
}
