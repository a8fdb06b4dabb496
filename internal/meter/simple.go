package meter

import (
	"time"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/stats"
)

// BurstState tracks traffic resumed since the last summary.
type BurstState struct {
	Active     bool
	StartedAt  time.Time
	StartBytes uint64
}

// SimplePolicy renders the receive rate and, when hiding on inactivity,
// optionally summarises each burst before hiding.
type SimplePolicy struct {
	cfg *config.DisplayConfig

	burst            BurstState
	keepVisibleUntil time.Time
	visible          bool
}

// NewSimplePolicy creates a Simple policy reading settings from cfg.
func NewSimplePolicy(cfg *config.DisplayConfig) *SimplePolicy {
	return &SimplePolicy{cfg: cfg}
}

// Name implements Policy.
func (p *SimplePolicy) Name() string { return "simple" }

// FirstTrigger implements Policy.
func (p *SimplePolicy) FirstTrigger() Trigger { return TriggerPeriodic }

// SetConfig replaces the settings used by subsequent ticks.
func (p *SimplePolicy) SetConfig(cfg *config.DisplayConfig) {
	p.cfg = cfg
}

// Burst returns the current burst window.
func (p *SimplePolicy) Burst() BurstState {
	return p.burst
}

// Reset implements Policy.
func (p *SimplePolicy) Reset() {
	p.burst = BurstState{}
	p.keepVisibleUntil = time.Time{}
	p.visible = false
}

// Tick implements Policy. Every sample is consumed.
func (p *SimplePolicy) Tick(d Delta, _ Trigger) ([]Command, bool) {
	hiding := p.cfg.HideMode != config.HideNever

	if !hiding || d.Rx != 0 {
		return p.renderRate(d, hiding), true
	}
	return p.settle(d), true
}

func (p *SimplePolicy) renderRate(d Delta, hiding bool) []Command {
	if hiding && !p.burst.Active {
		p.burst = BurstState{
			Active:     true,
			StartedAt:  d.Prev.At,
			StartBytes: d.Prev.Counters.Rx,
		}
	}

	var cmds []Command
	if ms := d.Elapsed.Milliseconds(); ms > 0 {
		cmds = append(cmds, textCmd(stats.FormatRate(d.Rx*1000/ms, false)))
	}
	if !p.visible {
		p.visible = true
		cmds = append(cmds, visibleCmd(true))
	}
	return cmds
}

// settle handles an idle tick while hiding on inactivity.
func (p *SimplePolicy) settle(d Delta) []Command {
	var cmds []Command
	now := d.Now.At

	if p.burst.Active {
		current := d.Now.Counters.Rx
		if d.Disconnected {
			current = d.Prev.Counters.Rx
		}
		total := int64(current) - int64(p.burst.StartBytes)

		if total > 0 && p.cfg.HideMode == config.HideSummary && p.cfg.SummaryDuration() != 0 {
			cmds = append(cmds, textCmd(stats.FormatTotal(total)))
			p.keepVisibleUntil = now.Add(p.cfg.SummaryDuration())
		}
		p.burst = BurstState{}
	}

	if p.visible && !now.Before(p.keepVisibleUntil) {
		p.visible = false
		cmds = append(cmds, textCmd(""), visibleCmd(false))
	}
	return cmds
}
