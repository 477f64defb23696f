package supervisor

import (
	"context"
	"slices"
	"sync"
	"time"

	"oddsctl/internal/config"
	"oddsctl/internal/env"
	"oddsctl/internal/services"
	"oddsctl/pkg/logging"
)

const (
	// minLoopInterval is the floor applied to configured loop
	// intervals. Zero and negative intervals are legal in config but
	// must not turn the background loops into busy loops.
	minLoopInterval = time.Second

	// lifecycleTimeout bounds a single Start or Stop call so a hanging
	// worker can delay, but not indefinitely block, the rest of a
	// collective operation.
	lifecycleTimeout = 10 * time.Second

	// statsTimeout bounds a single GetStats call during metrics
	// collection.
	statsTimeout = 5 * time.Second
)

// Supervisor manages the lifecycle of a set of long-running services.
// All state is instance-scoped; multiple supervisors may coexist in
// one process.
type Supervisor struct {
	cfg config.RunnerConfig

	mu     sync.RWMutex // Protects states, order, alerts, and run/loop flags
	states map[string]*ServiceState
	order  []string
	alerts []AlertFunc

	running   bool
	startedAt time.Time

	loopsRunning bool
	loopCancel   context.CancelFunc
	loopWG       sync.WaitGroup
}

// New creates a supervisor for the given runner configuration. No
// services are started; register them with AddService and call
// StartAll.
func New(cfg config.RunnerConfig) *Supervisor {
	if cfg.Services == nil {
		cfg.Services = make(map[string]config.ServiceConfig)
	}
	return &Supervisor{
		cfg:    cfg,
		states: make(map[string]*ServiceState),
	}
}

// Environment returns the deployment environment this supervisor was
// configured with.
func (s *Supervisor) Environment() env.Environment {
	return s.cfg.Environment
}

// AddService registers a service under name, replacing any existing
// entry in place. A replaced instance that is still running is stopped
// first. The new service is not started.
func (s *Supervisor) AddService(name string, svc services.Service, sc config.ServiceConfig) {
	if sc.Name == "" {
		sc.Name = name
	}

	s.mu.Lock()
	prev, existed := s.states[name]
	s.states[name] = &ServiceState{
		Service: svc,
		Config:  sc,
		Healthy: true,
	}
	if !existed {
		s.order = append(s.order, name)
	}
	s.cfg.AddService(sc)
	s.mu.Unlock()

	if existed && prev.Service != nil && safeIsRunning(prev.Service) {
		if err := s.stopService(context.Background(), prev.Service); err != nil {
			logging.Warn("Supervisor", "error stopping replaced service %s: %v", name, err)
		}
	}

	logging.Debug("Supervisor", "registered service %s (enabled=%t, maxRetries=%d)", name, sc.Enabled, sc.MaxRetries)
}

// RemoveService stops and deregisters the named service. Returns false
// with no side effect when the name is not registered. Stop errors are
// swallowed: the entry is gone either way.
func (s *Supervisor) RemoveService(name string) bool {
	s.mu.Lock()
	st, ok := s.states[name]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.states, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	delete(s.cfg.Services, name)
	s.mu.Unlock()

	if st.Service != nil {
		if err := s.stopService(context.Background(), st.Service); err != nil {
			logging.Warn("Supervisor", "error stopping removed service %s: %v", name, err)
		}
	}

	logging.Debug("Supervisor", "removed service %s", name)
	return true
}

// StartAll starts every registered, enabled service and launches the
// background health and metrics loops. One service failing to start
// never blocks the rest; the failure is recorded in that service's
// state. Idempotent: a second call re-attempts Start on services that
// are not yet running without duplicating the loops.
func (s *Supervisor) StartAll(ctx context.Context) {
	s.mu.RLock()
	entries := s.snapshotLocked()
	s.mu.RUnlock()

	for _, e := range entries {
		if !e.cfg.Enabled {
			logging.Debug("Supervisor", "service %s disabled, not starting", e.name)
			continue
		}
		if e.svc == nil {
			continue
		}
		if safeIsRunning(e.svc) {
			continue
		}

		err := s.startService(ctx, e.svc)
		s.withState(e.name, func(st *ServiceState) {
			if err != nil {
				st.Healthy = false
				st.ConsecutiveFailures++
				st.ErrorCount++
				st.LastError = err
			} else {
				st.Healthy = true
				st.ConsecutiveFailures = 0
			}
		})
		if err != nil {
			logging.Error("Supervisor", err, "failed to start service %s", e.name)
		} else {
			logging.Info("Supervisor", "started service %s", e.name)
		}
	}

	s.mu.Lock()
	s.running = true
	s.startedAt = time.Now()
	if !s.loopsRunning {
		loopCtx, cancel := context.WithCancel(ctx)
		s.loopCancel = cancel
		s.loopsRunning = true
		s.loopWG.Add(2)
		go s.healthLoop(loopCtx)
		go s.metricsLoop(loopCtx)
	}
	s.mu.Unlock()
}

// StopAll signals the background loops to exit, waits for them, then
// stops every registered service. Stop errors are recorded and logged
// but never propagate. Safe to call without a prior StartAll and safe
// to call repeatedly.
func (s *Supervisor) StopAll(ctx context.Context) {
	s.TriggerShutdown()
	s.loopWG.Wait()

	s.mu.RLock()
	entries := s.snapshotLocked()
	s.mu.RUnlock()

	for _, e := range entries {
		if e.svc == nil {
			continue
		}
		if err := s.stopService(ctx, e.svc); err != nil {
			s.withState(e.name, func(st *ServiceState) {
				st.ErrorCount++
				st.LastError = err
			})
			logging.Error("Supervisor", err, "error stopping service %s", e.name)
		} else {
			logging.Info("Supervisor", "stopped service %s", e.name)
		}
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// TriggerShutdown requests cooperative termination of the background
// loops. Idempotent under concurrent repeated calls. It does not stop
// the managed services; that is StopAll's job.
func (s *Supervisor) TriggerShutdown() {
	s.mu.Lock()
	cancel := s.loopCancel
	s.loopCancel = nil
	s.loopsRunning = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// IsRunning reports whether the supervisor is between a StartAll and a
// completed StopAll.
func (s *Supervisor) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the elapsed time since the most recent StartAll, or
// zero before the first start.
func (s *Supervisor) Uptime() time.Duration {
	s.mu.RLock()
	startedAt := s.startedAt
	s.mu.RUnlock()

	if startedAt.IsZero() {
		return 0
	}
	return time.Since(startedAt)
}

// UptimeSeconds returns Uptime in seconds.
func (s *Supervisor) UptimeSeconds() float64 {
	return s.Uptime().Seconds()
}

// ServicesTotal returns the number of currently registered services.
func (s *Supervisor) ServicesTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// ServiceNames returns the registered service names in insertion
// order.
func (s *Supervisor) ServiceNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// GetServiceState returns a copy of the runtime record for name.
func (s *Supervisor) GetServiceState(name string) (ServiceState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[name]
	if !ok {
		return ServiceState{}, false
	}
	return *st, true
}

// clampInterval converts a configured interval in seconds to a
// duration no shorter than minLoopInterval.
func clampInterval(seconds int) time.Duration {
	d := time.Duration(seconds) * time.Second
	if d < minLoopInterval {
		return minLoopInterval
	}
	return d
}
