package supervisor

import (
	"context"
	"sync"
)

// mockService is a configurable services.Service implementation for
// testing supervisor behavior.
type mockService struct {
	mu sync.Mutex

	running bool

	startCalls int
	stopCalls  int
	statsCalls int

	// Function hooks override the default behavior when set.
	startFunc     func(ctx context.Context) error
	stopFunc      func(ctx context.Context) error
	isRunningFunc func() bool
	statsFunc     func() map[string]any
}

func newMockService() *mockService {
	return &mockService{}
}

func (m *mockService) Start(ctx context.Context) error {
	m.mu.Lock()
	m.startCalls++
	hook := m.startFunc
	m.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}

	m.mu.Lock()
	m.running = true
	m.mu.Unlock()
	return nil
}

func (m *mockService) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopCalls++
	hook := m.stopFunc
	m.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	return nil
}

func (m *mockService) IsRunning() bool {
	m.mu.Lock()
	hook := m.isRunningFunc
	running := m.running
	m.mu.Unlock()

	if hook != nil {
		return hook()
	}
	return running
}

func (m *mockService) GetStats() map[string]any {
	m.mu.Lock()
	m.statsCalls++
	hook := m.statsFunc
	m.mu.Unlock()

	if hook != nil {
		return hook()
	}
	return map[string]any{"ok": true}
}

func (m *mockService) counts() (starts, stops, stats int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls, m.stopCalls, m.statsCalls
}
