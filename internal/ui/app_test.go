package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/meter"
)

func TestRunningNotification(t *testing.T) {
	stopped := meter.Status{Policy: meter.PolicyOmni}
	running := meter.Status{Running: true, Policy: meter.PolicyOmni}

	t.Run("started", func(t *testing.T) {
		notifyType, detail, ok := runningNotification(stopped, running)
		assert.True(t, ok)
		assert.Equal(t, NotifyMeterStarted, notifyType)
		assert.Contains(t, detail, "omni")
	})

	t.Run("stopped by missing inputs", func(t *testing.T) {
		next := meter.Status{Inputs: meter.Inputs{Attached: true, Connected: true}}
		notifyType, detail, ok := runningNotification(running, next)
		assert.True(t, ok)
		assert.Equal(t, NotifyMeterStopped, notifyType)
		assert.Contains(t, detail, "Waiting for")
	})

	t.Run("no transition", func(t *testing.T) {
		_, _, ok := runningNotification(running, running)
		assert.False(t, ok)
		_, _, ok = runningNotification(stopped, stopped)
		assert.False(t, ok)
	})
}

func TestJoinWords(t *testing.T) {
	assert.Equal(t, "", joinWords(nil))
	assert.Equal(t, "screen", joinWords([]string{"screen"}))
	assert.Equal(t, "screen and network", joinWords([]string{"screen", "network"}))
	assert.Equal(t, "attach, screen and network", joinWords([]string{"attach", "screen", "network"}))
}

func TestStartupInputs(t *testing.T) {
	assert.Equal(t, []meter.Event{meter.InputEvent(meter.EventAttached, true)}, startupInputs(true))

	var gate meter.Gate
	for _, ev := range startupInputs(false) {
		gate.Set(ev.Kind, ev.On, config.ModeAlways, false)
	}
	assert.True(t, gate.Running())
}
