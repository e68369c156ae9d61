package workers

import (
	"context"
	"log/slog"
	"time"

	"chathub/runtime"
)

// DeliveryWorker drives the status scheduler from wall-clock time in
// live mode. Tests bypass it and advance the scheduler directly.
type DeliveryWorker struct {
	scheduler *runtime.StatusScheduler
	interval  time.Duration
	log       *slog.Logger
}

func NewDeliveryWorker(scheduler *runtime.StatusScheduler, interval time.Duration, log *slog.Logger) *DeliveryWorker {
	return &DeliveryWorker{scheduler: scheduler, interval: interval, log: log}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting delivery status worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			w.scheduler.Tick(now)
		}
	}
}
