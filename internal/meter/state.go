// Package meter turns cumulative byte counters into a rate readout and
// decides when that readout is shown.
package meter

// State represents the lifecycle state of a Sampler.
type State string

const (
	// StateStopped indicates no ticks are scheduled.
	StateStopped State = "stopped"
	// StateRunning indicates the sampling loop is active.
	StateRunning State = "running"
)

// IsRunning returns true if ticks are being scheduled.
func (s State) IsRunning() bool {
	return s == StateRunning
}

// validTransitions defines the allowed state transitions.
var validTransitions = map[State][]State{
	StateStopped: {StateRunning},
	StateRunning: {StateStopped},
}

// IsValidTransition checks if transitioning from one state to another is allowed.
func IsValidTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Trigger tags why a tick runs.
type Trigger string

const (
	// TriggerPeriodic is the regular interval tick.
	TriggerPeriodic Trigger = "periodic"
	// TriggerForced renders unconditionally, bypassing debounce and change detection.
	TriggerForced Trigger = "forced"
)
