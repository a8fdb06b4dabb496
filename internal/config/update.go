package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shini4i/trafficmeter/internal/stats"
)

// ErrUnknownKey is returned when an update names a setting that does not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Update is a key-tagged partial configuration change. Nil fields are absent
// and leave the corresponding setting untouched.
type Update struct {
	TextSize                  *float64         `json:"text_size,omitempty" yaml:"text_size,omitempty"`
	Position                  *Position        `json:"position,omitempty" yaml:"position,omitempty"`
	HideMode                  *HideMode        `json:"hide_mode,omitempty" yaml:"hide_mode,omitempty"`
	SummaryDurationMs         *int             `json:"summary_duration_ms,omitempty" yaml:"summary_duration_ms,omitempty"`
	Mode                      *Mode            `json:"mode,omitempty" yaml:"mode,omitempty"`
	MobileOnly                *bool            `json:"mobile_only,omitempty" yaml:"mobile_only,omitempty"`
	OmniDirection             *Direction       `json:"omni_direction,omitempty" yaml:"omni_direction,omitempty"`
	OmniShowIcon              *bool            `json:"omni_show_icon,omitempty" yaml:"omni_show_icon,omitempty"`
	OmniAutoHide              *bool            `json:"omni_autohide,omitempty" yaml:"omni_autohide,omitempty"`
	OmniAutoHideThresholdKBps *int             `json:"omni_autohide_threshold_kbps,omitempty" yaml:"omni_autohide_threshold_kbps,omitempty"`
	OmniSpeedUnit             *stats.SpeedUnit `json:"omni_speed_unit,omitempty" yaml:"omni_speed_unit,omitempty"`
	TextColor                 *string          `json:"text_color,omitempty" yaml:"text_color,omitempty"`
}

// updateKeys lists the keys accepted by ParseAssignments, in declaration order.
var updateKeys = []string{
	"text_size",
	"position",
	"hide_mode",
	"summary_duration_ms",
	"mode",
	"mobile_only",
	"omni_direction",
	"omni_show_icon",
	"omni_autohide",
	"omni_autohide_threshold_kbps",
	"omni_speed_unit",
	"text_color",
}

// Keys returns the names of the settings present in the update.
func (u Update) Keys() []string {
	present := []bool{
		u.TextSize != nil,
		u.Position != nil,
		u.HideMode != nil,
		u.SummaryDurationMs != nil,
		u.Mode != nil,
		u.MobileOnly != nil,
		u.OmniDirection != nil,
		u.OmniShowIcon != nil,
		u.OmniAutoHide != nil,
		u.OmniAutoHideThresholdKBps != nil,
		u.OmniSpeedUnit != nil,
		u.TextColor != nil,
	}

	var keys []string
	for i, ok := range present {
		if ok {
			keys = append(keys, updateKeys[i])
		}
	}
	return keys
}

// IsEmpty reports whether the update carries no settings.
func (u Update) IsEmpty() bool {
	return len(u.Keys()) == 0
}

// AffectsGate reports whether the update can change the run/stop decision.
func (u Update) AffectsGate() bool {
	return u.Mode != nil || u.MobileOnly != nil
}

// Apply returns a copy of cfg with the present fields replaced.
// The result is validated; cfg itself is never modified.
func (u Update) Apply(cfg *DisplayConfig) (*DisplayConfig, error) {
	next := *cfg

	if u.TextSize != nil {
		next.TextSize = *u.TextSize
	}
	if u.Position != nil {
		next.Position = *u.Position
	}
	if u.HideMode != nil {
		next.HideMode = *u.HideMode
	}
	if u.SummaryDurationMs != nil {
		next.SummaryDurationMs = *u.SummaryDurationMs
	}
	if u.Mode != nil {
		next.Mode = *u.Mode
	}
	if u.MobileOnly != nil {
		next.MobileOnly = *u.MobileOnly
	}
	if u.OmniDirection != nil {
		next.OmniDirection = *u.OmniDirection
	}
	if u.OmniShowIcon != nil {
		next.OmniShowIcon = *u.OmniShowIcon
	}
	if u.OmniAutoHide != nil {
		next.OmniAutoHide = *u.OmniAutoHide
	}
	if u.OmniAutoHideThresholdKBps != nil {
		next.OmniAutoHideThresholdKBps = *u.OmniAutoHideThresholdKBps
	}
	if u.OmniSpeedUnit != nil {
		next.OmniSpeedUnit = *u.OmniSpeedUnit
	}
	if u.TextColor != nil {
		next.TextColor = *u.TextColor
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

func isUpdateKey(key string) bool {
	for _, k := range updateKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ParseAssignments builds an Update from "key=value" arguments, resolving
// values the way YAML scalars resolve ("true", "10", "summary").
func ParseAssignments(args []string) (Update, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return Update{}, fmt.Errorf("invalid assignment %q: want key=value", arg)
		}
		if !isUpdateKey(key) {
			return Update{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: strings.TrimSpace(value)},
		)
	}

	var u Update
	if err := doc.Decode(&u); err != nil {
		return Update{}, fmt.Errorf("failed to decode assignments: %w", err)
	}
	return u, nil
}
