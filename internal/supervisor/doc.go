// Package supervisor keeps a set of independent, long-running trading
// workers alive, health-checked, auto-restarted, and cleanly shut down.
//
// The supervisor is the central control point for service lifecycle in
// oddsctl. It owns a registry of named services, runs two background
// loops (health checks and metrics collection), and dispatches alerts
// when a service stays broken past its retry budget.
//
// # Failure Isolation
//
// A failure belonging to a managed service never propagates out of the
// supervisor: start and stop errors are caught, counted, and logged;
// a failing liveness probe is a negative health signal; an alert
// callback that errors or panics does not stop the remaining callbacks
// or the health loop. Only boundary misuse (an invalid environment
// string in configuration) surfaces as an error to the caller.
//
// # Health Monitoring
//
// The health loop probes every enabled service once per tick via
// IsRunning. Consecutive failures are tracked per service; once they
// reach the configured MaxRetries the supervisor attempts a restart
// (stop ignoring errors, then start). A successful restart increments
// RestartCount and resets the failure streak; a failed restart fires
// an alert to every registered callback.
//
// # Concurrency
//
// All public operations are safe for concurrent use. One supervisor-
// wide lock guards the services map and callback list; it is held only
// to snapshot-and-release, never across a call into a service, so one
// slow worker cannot stall metrics or health collection for the rest.
// Supervisors are instance-scoped: multiple supervisors with
// independent state may coexist in one process.
//
// # Usage Example
//
//	sup := supervisor.New(config.Defaults())
//	sup.AddService("market-data", poller, config.NewServiceConfig("market-data"))
//	sup.RegisterAlertCallback(func(name, msg string, ctx map[string]any) error {
//		log.Printf("ALERT %s: %s", name, msg)
//		return nil
//	})
//	sup.StartAll(ctx)
//	defer sup.StopAll(context.Background())
package supervisor
