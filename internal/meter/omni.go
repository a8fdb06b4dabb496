package meter

import (
	"time"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/stats"
)

const (
	// TextSizeMulti is the font size used when two lines are shown.
	TextSizeMulti = 10.0

	// debounceNum/debounceDen is the fraction of the interval a periodic
	// tick must wait after the last consumed sample.
	debounceNum = 95
	debounceDen = 100
)

// OmniPolicy renders receive and/or transmit rates with an optional
// directional icon and threshold-based auto-hide.
type OmniPolicy struct {
	cfg *config.DisplayConfig

	text    string
	icon    Icon
	visible bool
}

// NewOmniPolicy creates an Omni policy reading settings from cfg.
func NewOmniPolicy(cfg *config.DisplayConfig) *OmniPolicy {
	return &OmniPolicy{cfg: cfg}
}

// Name implements Policy.
func (p *OmniPolicy) Name() string { return "omni" }

// FirstTrigger implements Policy. Omni renders as soon as it starts.
func (p *OmniPolicy) FirstTrigger() Trigger { return TriggerForced }

// SetConfig replaces the settings used by subsequent ticks.
func (p *OmniPolicy) SetConfig(cfg *config.DisplayConfig) {
	p.cfg = cfg
}

// Reset implements Policy.
func (p *OmniPolicy) Reset() {
	p.text = ""
	p.icon = IconNone
	p.visible = false
}

// Tick implements Policy.
func (p *OmniPolicy) Tick(d Delta, trigger Trigger) ([]Command, bool) {
	forced := trigger == TriggerForced
	if !forced && d.Elapsed < p.cfg.Interval*debounceNum/debounceDen {
		return nil, false
	}

	var rxRate, txRate int64
	if d.Elapsed >= time.Millisecond {
		ms := d.Elapsed.Milliseconds()
		rxRate = d.Rx * 1000 / ms
		txRate = d.Tx * 1000 / ms
	}

	var cmds []Command
	if icon := IconFor(p.cfg); forced || icon != p.icon {
		p.icon = icon
		cmds = append(cmds, iconCmd(icon))
	}

	if p.cfg.OmniAutoHide && BelowThreshold(p.cfg, rxRate, txRate) {
		if forced || p.visible || p.text != "" {
			cmds = append(cmds, textCmd(""), visibleCmd(false))
		}
		p.text = ""
		p.visible = false
		return cmds, true
	}

	text, size := p.format(rxRate, txRate)
	if forced || text != p.text {
		p.text = text
		cmds = append(cmds, textSizeCmd(size), textCmd(text))
	}
	if forced || !p.visible {
		p.visible = true
		cmds = append(cmds, visibleCmd(true))
	}
	return cmds, true
}

func (p *OmniPolicy) format(rxRate, txRate int64) (string, float64) {
	unit := p.cfg.OmniSpeedUnit
	switch p.cfg.OmniDirection {
	case config.DirectionIn:
		return stats.FormatSpeed(rxRate, unit), p.cfg.TextSize
	case config.DirectionOut:
		return stats.FormatSpeed(txRate, unit), p.cfg.TextSize
	default:
		return stats.FormatSpeed(txRate, unit) + "\n" + stats.FormatSpeed(rxRate, unit), TextSizeMulti
	}
}

// BelowThreshold reports whether the rates relevant to the configured
// direction are all at or under the auto-hide threshold, in whole KB/s.
func BelowThreshold(cfg *config.DisplayConfig, rxRate, txRate int64) bool {
	limit := int64(cfg.OmniAutoHideThresholdKBps)
	rxLow := rxRate/1024 <= limit
	txLow := txRate/1024 <= limit

	switch cfg.OmniDirection {
	case config.DirectionIn:
		return rxLow
	case config.DirectionOut:
		return txLow
	default:
		return rxLow && txLow
	}
}

// IconFor returns the icon matching the configured direction.
func IconFor(cfg *config.DisplayConfig) Icon {
	if !cfg.OmniShowIcon {
		return IconNone
	}
	switch cfg.OmniDirection {
	case config.DirectionIn:
		return IconDown
	case config.DirectionOut:
		return IconUp
	default:
		return IconUpDown
	}
}
