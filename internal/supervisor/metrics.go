package supervisor

import (
	"context"
	"fmt"
	"time"

	"oddsctl/internal/services"
	"oddsctl/pkg/logging"
)

// metricsLoop periodically collects aggregate metrics for logging
// until the shutdown signal fires.
func (s *Supervisor) metricsLoop(ctx context.Context) {
	defer s.loopWG.Done()

	interval := clampInterval(s.cfg.MetricsInterval)
	logging.Debug("Supervisor", "metrics loop started (interval %s)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("Supervisor", "metrics loop stopped")
			return
		case <-ticker.C:
			metrics := s.GetAggregateMetrics()
			logging.Debug("Supervisor", "metrics: %d services, uptime %.0fs",
				metrics["services_total"], metrics["uptime_seconds"])
		}
	}
}

// GetAggregateMetrics returns a snapshot of supervisor-wide metrics:
//
//	{
//	  "services_total": <count>,
//	  "uptime_seconds": <float>,
//	  "per_service": {name: {"stats": <map>}},
//	}
//
// GetStats is only called on running, enabled services; everything
// else reports empty stats. A stats call that errors, panics, or hangs
// past the per-call timeout increments that service's error count and
// reports empty stats rather than failing the whole collection. The
// supervisor lock is never held across a GetStats call.
func (s *Supervisor) GetAggregateMetrics() map[string]any {
	s.mu.RLock()
	entries := s.snapshotLocked()
	s.mu.RUnlock()

	perService := make(map[string]any, len(entries))
	for _, e := range entries {
		stats := map[string]any{}
		if e.cfg.Enabled && e.svc != nil && safeIsRunning(e.svc) {
			collected, err := collectStats(e.svc)
			if err != nil {
				s.withState(e.name, func(st *ServiceState) {
					st.ErrorCount++
					st.LastError = err
				})
				logging.Warn("Supervisor", "stats collection failed for %s: %v", e.name, err)
			} else if collected != nil {
				stats = collected
			}
		}
		perService[e.name] = map[string]any{"stats": stats}
	}

	return map[string]any{
		"services_total": len(entries),
		"uptime_seconds": s.UptimeSeconds(),
		"per_service":    perService,
	}
}

// collectStats calls GetStats with a bounded timeout. A service that
// hangs past the timeout leaks its collection goroutine; the loop
// moves on to the remaining services.
func collectStats(svc services.Service) (map[string]any, error) {
	type result struct {
		stats map[string]any
		err   error
	}
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("stats collection panicked: %v", r)}
			}
		}()
		ch <- result{stats: svc.GetStats()}
	}()

	select {
	case r := <-ch:
		return r.stats, r.err
	case <-time.After(statsTimeout):
		return nil, fmt.Errorf("stats collection timed out after %s", statsTimeout)
	}
}
