// FILE: internal/worker/sweeper.go
package worker

import (
	"context"
	"time"

	"vip-gatekeeper-be/internal/pkg/logger"
	"vip-gatekeeper-be/internal/service"
)

// Sweeper drives the periodic reconciliation pass. It owns the timer and
// nothing else; all decisions live in the reconcile service, which gets the
// tick time as an argument.
type Sweeper struct {
	reconcile service.IReconcileService
	interval  time.Duration
	log       logger.ILogger
}

func NewSweeper(reconcile service.IReconcileService, interval time.Duration, log logger.ILogger) *Sweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{reconcile: reconcile, interval: interval, log: log}
}

// Run blocks until ctx is cancelled. One pass fires immediately on start so
// a restart after downtime catches up without waiting a full interval.
func (w *Sweeper) Run(ctx context.Context) {
	w.log.Info("sweeper", "started", map[string]interface{}{
		"interval": w.interval.String(),
	})

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("sweeper", "stopped", nil)
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	report, err := w.reconcile.RunSweep(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error("sweeper", "sweep pass failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if report.Failed > 0 {
		w.log.Warn("sweeper", "sweep pass finished with failures", map[string]interface{}{
			"processed": report.Processed,
			"failed":    report.Failed,
		})
	}
}
