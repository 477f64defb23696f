package services

import (
	"context"
)

// Service is the contract every supervised worker must implement. The
// supervisor inspects nothing beyond these four methods.
//
// Start and Stop may be called from any goroutine; implementations are
// responsible for their own internal synchronization. Both take a
// context so a hanging worker can be abandoned by the caller.
type Service interface {
	// Start launches the worker's background activity. It returns once
	// the worker is running; the work itself continues until Stop.
	Start(ctx context.Context) error

	// Stop halts the worker and releases its resources. Stopping an
	// already-stopped worker is a no-op.
	Stop(ctx context.Context) error

	// IsRunning reports whether the worker is currently active. Used
	// as the liveness probe by the supervisor's health loop.
	IsRunning() bool

	// GetStats returns a snapshot of worker-specific counters for
	// aggregate metrics. Only called while the worker is running.
	GetStats() map[string]any
}
