package meter

import (
	"github.com/shini4i/trafficmeter/internal/config"
)

// Inputs are the independent conditions that decide whether the meter runs.
type Inputs struct {
	Attached            bool `json:"attached"`
	ScreenOn            bool `json:"screen_on"`
	Connected           bool `json:"connected"`
	DownloadActive      bool `json:"download_active"`
	ProgressTracking    bool `json:"progress_tracking"`
	MobileDataConnected bool `json:"mobile_data_connected"`
}

// ShouldRun reports whether a meter with the given inputs and activity mode
// should be sampling.
func ShouldRun(in Inputs, mode config.Mode, mobileOnly bool) bool {
	if !in.Attached || !in.ScreenOn || !in.Connected {
		return false
	}

	switch mode {
	case config.ModeOnDownload:
		if !in.DownloadActive {
			return false
		}
	case config.ModeOnProgress:
		if !in.ProgressTracking {
			return false
		}
	}

	return !mobileOnly || in.MobileDataConnected
}

// Transition is the sampler action implied by a gate re-evaluation.
type Transition string

const (
	TransitionNone  Transition = "none"
	TransitionStart Transition = "start"
	TransitionStop  Transition = "stop"
)

// Gate owns the visibility inputs and remembers the last decision so that
// re-evaluations yield edges rather than levels.
type Gate struct {
	inputs  Inputs
	running bool
}

// Inputs returns the current input tuple.
func (g *Gate) Inputs() Inputs {
	return g.inputs
}

// Running reports the last decision.
func (g *Gate) Running() bool {
	return g.running
}

// Set updates the input named by kind and re-evaluates. Kinds that do not
// map to an input only re-evaluate.
func (g *Gate) Set(kind EventKind, on bool, mode config.Mode, mobileOnly bool) Transition {
	switch kind {
	case EventAttached:
		g.inputs.Attached = on
	case EventScreen:
		g.inputs.ScreenOn = on
	case EventConnectivity:
		g.inputs.Connected = on
	case EventDownload:
		g.inputs.DownloadActive = on
	case EventProgress:
		g.inputs.ProgressTracking = on
	case EventMobileData:
		g.inputs.MobileDataConnected = on
	}
	return g.Evaluate(mode, mobileOnly)
}

// Evaluate recomputes the decision and returns the resulting edge.
func (g *Gate) Evaluate(mode config.Mode, mobileOnly bool) Transition {
	run := ShouldRun(g.inputs, mode, mobileOnly)
	switch {
	case run && !g.running:
		g.running = true
		return TransitionStart
	case !run && g.running:
		g.running = false
		return TransitionStop
	default:
		return TransitionNone
	}
}
