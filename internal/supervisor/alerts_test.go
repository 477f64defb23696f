package supervisor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerAlert_NoCallbacksIsNoOp(t *testing.T) {
	s := New(testConfig())
	require.NotPanics(t, func() {
		s.triggerAlert("a", "something broke", nil)
	})
}

func TestTriggerAlert_InvokesInRegistrationOrder(t *testing.T) {
	s := New(testConfig())

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		s.RegisterAlertCallback(func(name, message string, alertCtx map[string]any) error {
			order = append(order, i)
			return nil
		})
	}

	s.triggerAlert("a", "down", nil)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestTriggerAlert_FailingCallbackIsolated(t *testing.T) {
	s := New(testConfig())

	var invoked []int
	s.RegisterAlertCallback(func(name, message string, alertCtx map[string]any) error {
		invoked = append(invoked, 1)
		return nil
	})
	s.RegisterAlertCallback(func(name, message string, alertCtx map[string]any) error {
		invoked = append(invoked, 2)
		return errors.New("listener broken")
	})
	s.RegisterAlertCallback(func(name, message string, alertCtx map[string]any) error {
		invoked = append(invoked, 3)
		return nil
	})

	require.NotPanics(t, func() {
		s.triggerAlert("a", "down", map[string]any{"detail": "x"})
	})

	// Callback #2 failing does not stop #3.
	assert.Equal(t, []int{1, 2, 3}, invoked)
}

func TestTriggerAlert_PanickingCallbackIsolated(t *testing.T) {
	s := New(testConfig())

	var invoked []int
	s.RegisterAlertCallback(func(name, message string, alertCtx map[string]any) error {
		invoked = append(invoked, 1)
		panic("listener panic")
	})
	s.RegisterAlertCallback(func(name, message string, alertCtx map[string]any) error {
		invoked = append(invoked, 2)
		return nil
	})

	require.NotPanics(t, func() { s.triggerAlert("a", "down", nil) })
	assert.Equal(t, []int{1, 2}, invoked)
}

func TestTriggerAlert_ContextEnrichment(t *testing.T) {
	s := New(testConfig())

	var got map[string]any
	s.RegisterAlertCallback(func(name, message string, alertCtx map[string]any) error {
		got = alertCtx
		return nil
	})

	s.triggerAlert("market-data", "restart failed", map[string]any{"consecutive_failures": 3})

	require.NotNil(t, got)
	assert.Equal(t, 3, got["consecutive_failures"])
	assert.NotEmpty(t, got["alert_id"])
	assert.Equal(t, "test", got["environment"])
	assert.NotEmpty(t, got["timestamp"])
}
