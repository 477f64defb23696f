package supervisor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"oddsctl/pkg/logging"
)

// AlertFunc receives supervisor alerts about persistent service
// failures. Callbacks run in registration order on the health loop
// goroutine; keep them fast. A callback error or panic is logged and
// isolated, never affecting the other callbacks or the health loop.
type AlertFunc func(serviceName, message string, context map[string]any) error

// RegisterAlertCallback appends a callback to the dispatch list. No
// de-duplication is performed.
func (s *Supervisor) RegisterAlertCallback(fn AlertFunc) {
	s.mu.Lock()
	s.alerts = append(s.alerts, fn)
	s.mu.Unlock()
}

// triggerAlert dispatches an alert to every registered callback in
// registration order. Zero callbacks is a no-op.
func (s *Supervisor) triggerAlert(serviceName, message string, alertCtx map[string]any) {
	s.mu.RLock()
	callbacks := make([]AlertFunc, len(s.alerts))
	copy(callbacks, s.alerts)
	s.mu.RUnlock()

	logging.Warn("Supervisor", "alert for %s: %s", serviceName, message)

	if len(callbacks) == 0 {
		return
	}

	if alertCtx == nil {
		alertCtx = make(map[string]any)
	}
	alertCtx["alert_id"] = uuid.NewString()
	alertCtx["environment"] = s.cfg.Environment.String()
	alertCtx["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	for i, cb := range callbacks {
		if err := invokeAlert(cb, serviceName, message, alertCtx); err != nil {
			logging.Error("Supervisor", err, "alert callback %d failed for %s", i, serviceName)
		}
	}
}

func invokeAlert(cb AlertFunc, serviceName, message string, alertCtx map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("alert callback panicked: %v", r)
		}
	}()
	return cb(serviceName, message, alertCtx)
}
