package supervisor

import (
	"context"
	"fmt"

	"oddsctl/internal/services"
)

// Every call into a managed service goes through one of these
// wrappers: failures stay local to the service that caused them, so a
// misbehaving worker (error, panic, or hang past the per-call timeout)
// can never take down the supervisor.

func (s *Supervisor) startService(ctx context.Context, svc services.Service) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("start panicked: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()
	return svc.Start(callCtx)
}

func (s *Supervisor) stopService(ctx context.Context, svc services.Service) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stop panicked: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()
	return svc.Stop(callCtx)
}

// safeIsRunning treats a panicking probe as not running, the same
// negative health signal as a plain false.
func safeIsRunning(svc services.Service) (running bool) {
	defer func() {
		if r := recover(); r != nil {
			running = false
		}
	}()
	return svc.IsRunning()
}
