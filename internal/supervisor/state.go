package supervisor

import (
	"time"

	"oddsctl/internal/config"
	"oddsctl/internal/services"
)

// ServiceState is the mutable runtime record for one managed service.
// It is owned by exactly one Supervisor; all reads and writes happen
// under that supervisor's lock. The record itself holds no lock.
//
// The supervisor does not own the service's resources; Service is a
// borrowed reference managed through the lifecycle contract only.
type ServiceState struct {
	Service services.Service
	Config  config.ServiceConfig

	// Healthy is the result of the most recent liveness probe or
	// lifecycle call. New records start healthy.
	Healthy bool

	// ConsecutiveFailures counts health-check failures since the last
	// success; reaching Config.MaxRetries triggers a restart attempt.
	ConsecutiveFailures int

	// ErrorCount accumulates every failed start, stop, probe, and
	// stats collection over the record's lifetime.
	ErrorCount int

	// RestartCount counts successful health-triggered restarts. It is
	// only incremented on that path, never by StartAll.
	RestartCount int

	LastError   error
	LastChecked time.Time
}

// stateEntry is an immutable snapshot taken under the lock so service
// calls can happen outside it.
type stateEntry struct {
	name string
	svc  services.Service
	cfg  config.ServiceConfig
}

// snapshotLocked returns the registered services in insertion order.
// Callers must hold s.mu.
func (s *Supervisor) snapshotLocked() []stateEntry {
	entries := make([]stateEntry, 0, len(s.order))
	for _, name := range s.order {
		st, ok := s.states[name]
		if !ok {
			continue
		}
		entries = append(entries, stateEntry{name: name, svc: st.Service, cfg: st.Config})
	}
	return entries
}

// withState runs fn on the record for name under the lock. Returns
// false when the service is no longer registered, in which case fn is
// not called. Mutations always go through a fresh lookup so a record
// replaced or removed mid-tick is never touched.
func (s *Supervisor) withState(name string, fn func(st *ServiceState)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[name]
	if !ok {
		return false
	}
	fn(st)
	return true
}
