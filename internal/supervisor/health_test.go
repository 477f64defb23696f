package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tick runs a single synchronous health pass, the same code path the
// background loop executes on each ticker fire.
func tick(s *Supervisor) {
	s.checkAllServices(context.Background())
}

func TestHealthCheck_HealthyServiceResetsFailures(t *testing.T) {
	s := New(testConfig())
	svc := newMockService()
	s.AddService("a", svc, enabledCfg("a"))
	s.StartAll(context.Background())
	defer s.StopAll(context.Background())

	// Inject a prior failure streak, then observe a healthy probe.
	s.withState("a", func(st *ServiceState) {
		st.ConsecutiveFailures = 2
		st.Healthy = false
	})

	tick(s)

	st, found := s.GetServiceState("a")
	require.True(t, found)
	assert.True(t, st.Healthy)
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.False(t, st.LastChecked.IsZero())
}

func TestHealthCheck_DisabledServiceSkipped(t *testing.T) {
	s := New(testConfig())
	svc := newMockService()
	svc.isRunningFunc = func() bool { return false }
	cfg := enabledCfg("a")
	cfg.Enabled = false
	s.AddService("a", svc, cfg)

	tick(s)

	st, found := s.GetServiceState("a")
	require.True(t, found)
	assert.True(t, st.Healthy, "disabled services are never probed")
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.Equal(t, 0, st.ErrorCount)
}

func TestHealthCheck_AbsentServiceSkipped(t *testing.T) {
	s := New(testConfig())
	s.AddService("a", nil, enabledCfg("a"))

	require.NotPanics(t, func() { tick(s) })

	st, found := s.GetServiceState("a")
	require.True(t, found)
	assert.Equal(t, 0, st.ErrorCount)
}

func TestHealthCheck_FailureCountsAccumulate(t *testing.T) {
	s := New(testConfig())
	svc := newMockService()
	svc.isRunningFunc = func() bool { return false }
	cfg := enabledCfg("a")
	cfg.MaxRetries = 10 // stay below the restart threshold
	s.AddService("a", svc, cfg)

	tick(s)
	tick(s)
	tick(s)

	st, found := s.GetServiceState("a")
	require.True(t, found)
	assert.False(t, st.Healthy)
	assert.Equal(t, 3, st.ConsecutiveFailures)
	assert.Equal(t, 3, st.ErrorCount)

	starts, _, _ := svc.counts()
	assert.Equal(t, 0, starts, "no restart below the threshold")
}

func TestHealthCheck_RestartAtThreshold(t *testing.T) {
	s := New(testConfig())

	svc := newMockService()
	down := true
	var mu sync.Mutex
	svc.isRunningFunc = func() bool {
		mu.Lock()
		defer mu.Unlock()
		return !down
	}
	svc.startFunc = func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		down = false
		return nil
	}

	cfg := enabledCfg("a")
	cfg.MaxRetries = 2
	s.AddService("a", svc, cfg)

	// Two consecutive failed ticks reach the threshold.
	tick(s)
	tick(s)

	st, found := s.GetServiceState("a")
	require.True(t, found)
	assert.Equal(t, 1, st.RestartCount)
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.True(t, st.Healthy)

	// Exactly one restart attempt: one stop, one start.
	starts, stops, _ := svc.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
}

func TestHealthCheck_RestartFailureFiresAlert(t *testing.T) {
	s := New(testConfig())

	svc := newMockService()
	svc.isRunningFunc = func() bool { return false }
	svc.startFunc = func(ctx context.Context) error { return errors.New("still broken") }

	cfg := enabledCfg("a")
	cfg.MaxRetries = 1
	s.AddService("a", svc, cfg)

	var mu sync.Mutex
	var alerts []string
	var contexts []map[string]any
	s.RegisterAlertCallback(func(name, message string, alertCtx map[string]any) error {
		mu.Lock()
		defer mu.Unlock()
		alerts = append(alerts, name+": "+message)
		contexts = append(contexts, alertCtx)
		return nil
	})

	tick(s)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "a: restart failed")
	require.Len(t, contexts, 1)
	assert.Equal(t, 1, contexts[0]["consecutive_failures"])
	assert.NotEmpty(t, contexts[0]["alert_id"])

	st, found := s.GetServiceState("a")
	require.True(t, found)
	assert.Equal(t, 0, st.RestartCount, "failed restart must not count")
	assert.Equal(t, 1, st.ConsecutiveFailures, "failure streak stays at the threshold")
}

func TestHealthCheck_PanickingProbeTreatedAsFailure(t *testing.T) {
	s := New(testConfig())

	svc := newMockService()
	svc.isRunningFunc = func() bool { panic("probe panic") }
	cfg := enabledCfg("a")
	cfg.MaxRetries = 10
	s.AddService("a", svc, cfg)

	require.NotPanics(t, func() { tick(s) })

	st, found := s.GetServiceState("a")
	require.True(t, found)
	assert.False(t, st.Healthy)
	assert.Equal(t, 1, st.ConsecutiveFailures)
}

func TestHealthCheck_ServiceRemovedMidTickNotRestarted(t *testing.T) {
	s := New(testConfig())

	svc := newMockService()
	svc.isRunningFunc = func() bool { return false }
	cfg := enabledCfg("a")
	cfg.MaxRetries = 1
	s.AddService("a", svc, cfg)

	// Simulate removal between the snapshot and the state update.
	entry := stateEntry{name: "a", svc: svc, cfg: cfg}
	require.True(t, s.RemoveService("a"))

	s.checkServiceHealth(context.Background(), entry)

	starts, _, _ := svc.counts()
	assert.Equal(t, 0, starts)
}
