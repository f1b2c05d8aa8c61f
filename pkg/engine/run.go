package engine

import (
	"context"
	"sync"
	"time"
)

// Run drives the engine until ctx is cancelled: durations are refreshed every
// TickInterval, stale sessions reaped every ReapInterval and policies
// evaluated every EvaluateInterval. Each pass holds the state lock for its
// whole duration, so passes never overlap. Run returns once every in-flight
// pass has finished.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info().
		Dur("tick_interval", e.cfg.TickInterval).
		Dur("reap_interval", e.cfg.ReapInterval).
		Dur("evaluate_interval", e.cfg.EvaluateInterval).
		Dur("stale_after", e.cfg.StaleAfter).
		Msg("engine started")

	var wg sync.WaitGroup
	loop := func(every time.Duration, pass func(time.Time)) {
		defer wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pass(e.clock.Now())
			}
		}
	}

	wg.Add(3)
	go loop(e.cfg.TickInterval, func(now time.Time) { e.Tick(now) })
	go loop(e.cfg.ReapInterval, func(now time.Time) { e.Reap(now) })
	go loop(e.cfg.EvaluateInterval, func(now time.Time) { e.Evaluate(now) })
	wg.Wait()

	e.logger.Info().Msg("engine stopped")
	return nil
}
