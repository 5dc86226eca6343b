package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PollerConfig tunes the polling loop.
type PollerConfig struct {
	Interval time.Duration
	// DrainAndStop stops the loop once the queue is empty instead of
	// polling forever.
	DrainAndStop bool
}

// Poller drives the worker on a timer: run a cycle, sleep, repeat. Cycle
// failures back off exponentially instead of hammering a broken source.
type Poller struct {
	worker *Worker
	cfg    PollerConfig
}

// NewPoller creates a poller around the worker.
func NewPoller(worker *Worker, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Poller{worker: worker, cfg: cfg}
}

// Run polls until the context is cancelled, or until the queue drains when
// DrainAndStop is set. Returns nil on a clean stop.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("poller started", "interval", p.cfg.Interval, "drain_and_stop", p.cfg.DrainAndStop)

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.InitialInterval = p.cfg.Interval
	retryPolicy.MaxInterval = 10 * p.cfg.Interval
	retryPolicy.MaxElapsedTime = 0 // retry until cancelled

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		summary, err := p.worker.RunCycle(ctx)
		switch {
		case errors.Is(err, ErrCycleRunning):
			// Another trigger beat us to it; wait for the next tick
		case err != nil:
			wait := retryPolicy.NextBackOff()
			slog.Error("cycle failed, backing off", "error", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		default:
			retryPolicy.Reset()
			if p.cfg.DrainAndStop && summary.Remaining == 0 {
				slog.Info("queue drained, stopping poller")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			slog.Info("poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}
