package supervisor

import (
	"context"
	"fmt"
	"time"

	"oddsctl/pkg/logging"
)

// healthLoop probes every registered service once per tick until the
// shutdown signal fires. An in-flight tick runs to completion.
func (s *Supervisor) healthLoop(ctx context.Context) {
	defer s.loopWG.Done()

	interval := clampInterval(s.cfg.HealthCheckInterval)
	logging.Debug("Supervisor", "health loop started (interval %s)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("Supervisor", "health loop stopped")
			return
		case <-ticker.C:
			s.checkAllServices(ctx)
		}
	}
}

// checkAllServices runs one health tick. The registry is snapshotted
// up front, so services are probed in insertion order and a service
// added mid-tick shows up in the next tick.
func (s *Supervisor) checkAllServices(ctx context.Context) {
	s.mu.RLock()
	entries := s.snapshotLocked()
	s.mu.RUnlock()

	for _, e := range entries {
		s.checkServiceHealth(ctx, e)
	}
}

// checkServiceHealth probes one service and drives the retry/restart
// state machine. Disabled or absent services are skipped.
func (s *Supervisor) checkServiceHealth(ctx context.Context, e stateEntry) {
	if !e.cfg.Enabled || e.svc == nil {
		return
	}

	if safeIsRunning(e.svc) {
		s.withState(e.name, func(st *ServiceState) {
			st.ConsecutiveFailures = 0
			st.Healthy = true
			st.LastChecked = time.Now()
		})
		return
	}

	var failures int
	if ok := s.withState(e.name, func(st *ServiceState) {
		st.ConsecutiveFailures++
		st.ErrorCount++
		st.Healthy = false
		st.LastChecked = time.Now()
		failures = st.ConsecutiveFailures
	}); !ok {
		// Removed mid-tick; nothing to track or restart.
		return
	}

	logging.Warn("Supervisor", "service %s failed health check (%d consecutive)", e.name, failures)

	if failures < e.cfg.MaxRetries {
		return
	}

	logging.Info("Supervisor", "restarting service %s after %d consecutive failures", e.name, failures)

	// Best-effort stop; the service is already considered down.
	if err := s.stopService(ctx, e.svc); err != nil {
		logging.Debug("Supervisor", "stop during restart of %s: %v", e.name, err)
	}

	if err := s.startService(ctx, e.svc); err != nil {
		logging.Error("Supervisor", err, "restart of service %s failed", e.name)
		s.withState(e.name, func(st *ServiceState) {
			st.LastError = err
		})
		s.triggerAlert(e.name,
			fmt.Sprintf("restart failed after %d consecutive health-check failures", failures),
			map[string]any{
				"consecutive_failures": failures,
				"error":                err.Error(),
			})
		return
	}

	s.withState(e.name, func(st *ServiceState) {
		st.RestartCount++
		st.ConsecutiveFailures = 0
		st.Healthy = true
	})
	logging.Info("Supervisor", "service %s restarted", e.name)
}
