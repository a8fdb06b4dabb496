package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shini4i/trafficmeter/internal/stats"
)

func TestUpdate_ApplyOnlyPresentKeys(t *testing.T) {
	base := DefaultConfig()
	base.OmniShowIcon = true

	hide := HideSummary
	duration := 5000
	next, err := Update{HideMode: &hide, SummaryDurationMs: &duration}.Apply(base)
	require.NoError(t, err)

	assert.Equal(t, HideSummary, next.HideMode)
	assert.Equal(t, 5000, next.SummaryDurationMs)
	assert.True(t, next.OmniShowIcon, "absent keys keep their value")
	assert.Equal(t, HideNever, base.HideMode, "the input config is never modified")
}

func TestUpdate_ApplyRejectsInvalid(t *testing.T) {
	dir := Direction("up")
	_, err := Update{OmniDirection: &dir}.Apply(DefaultConfig())
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestUpdate_Keys(t *testing.T) {
	assert.True(t, Update{}.IsEmpty())

	on := true
	unit := stats.UnitBits
	u := Update{MobileOnly: &on, OmniSpeedUnit: &unit}
	assert.Equal(t, []string{"mobile_only", "omni_speed_unit"}, u.Keys())
	assert.False(t, u.IsEmpty())
	assert.True(t, u.AffectsGate())

	assert.False(t, Update{OmniSpeedUnit: &unit}.AffectsGate())
}

func TestUpdate_JSONOmitsAbsentKeys(t *testing.T) {
	mode := ModeOnDownload
	data, err := json.Marshal(Update{Mode: &mode})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"on_download"}`, string(data))

	var decoded Update
	require.NoError(t, json.Unmarshal([]byte(`{"omni_autohide":true}`), &decoded))
	assert.Equal(t, []string{"omni_autohide"}, decoded.Keys())
	assert.True(t, *decoded.OmniAutoHide)
}

func TestParseAssignments(t *testing.T) {
	u, err := ParseAssignments([]string{
		"hide_mode=summary",
		"omni_autohide=true",
		"omni_autohide_threshold_kbps=25",
		"text_size=12",
		"text_color=#00ff00",
		"omni_speed_unit=bits",
	})
	require.NoError(t, err)

	require.NotNil(t, u.HideMode)
	assert.Equal(t, HideSummary, *u.HideMode)
	require.NotNil(t, u.OmniAutoHide)
	assert.True(t, *u.OmniAutoHide)
	require.NotNil(t, u.OmniAutoHideThresholdKBps)
	assert.Equal(t, 25, *u.OmniAutoHideThresholdKBps)
	require.NotNil(t, u.TextSize)
	assert.Equal(t, 12.0, *u.TextSize)
	require.NotNil(t, u.TextColor)
	assert.Equal(t, "#00ff00", *u.TextColor)
	require.NotNil(t, u.OmniSpeedUnit)
	assert.Equal(t, stats.UnitBits, *u.OmniSpeedUnit)
	assert.Nil(t, u.Mode)
}

func TestParseAssignments_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing equals", []string{"hide_mode"}, "want key=value"},
		{"empty key", []string{"=summary"}, "want key=value"},
		{"unknown key", []string{"interval=500"}, "unknown config key"},
		{"wrong type", []string{"omni_autohide_threshold_kbps=lots"}, "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAssignments(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
