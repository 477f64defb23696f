// Package services defines the contract between the supervisor and the
// long-running workers it manages, plus the concrete worker
// implementations in its subpackages.
//
// # Service Contract
//
// A service is any value implementing the Service interface:
//
//	type Service interface {
//		Start(ctx context.Context) error
//		Stop(ctx context.Context) error
//		IsRunning() bool
//		GetStats() map[string]any
//	}
//
// The supervisor owns no service resources: it starts, stops, and
// probes workers through this interface and nothing else. Errors from
// Start/Stop are counted and logged by the supervisor but never
// propagate out of collective lifecycle operations.
//
// # Workers
//
// Three workers live in subpackages:
//
//   - sportsfeed: polls a sports-scores REST endpoint
//   - marketdata: polls prediction-market prices over REST
//   - marketstream: consumes a market WebSocket feed
//
// Each keeps its own counters behind a mutex and exposes them through
// GetStats for aggregate metrics collection.
package services
