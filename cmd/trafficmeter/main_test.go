package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/control/protocol"
	"github.com/shini4i/trafficmeter/internal/meter"
)

func TestEventParams(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		color string
		alpha float64
		want  protocol.EventParams
	}{
		{"input on", []string{"screen", "on"}, "", 1, protocol.EventParams{Kind: "screen", On: true}},
		{"input off", []string{"download", "off"}, "", 1, protocol.EventParams{Kind: "download"}},
		{"input bool", []string{"mobile_data", "true"}, "", 1, protocol.EventParams{Kind: "mobile_data", On: true}},
		{"tint", []string{"tint", "ON"}, "", 1, protocol.EventParams{Kind: "tint", On: true}},
		{"color", []string{"color"}, "#00ff00", 1, protocol.EventParams{Kind: "color", Color: "#00ff00"}},
		{"alpha", []string{"alpha"}, "", 0.4, protocol.EventParams{Kind: "alpha", Alpha: 0.4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eventParams(tt.args, tt.color, tt.alpha)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventParams_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		color   string
		wantErr string
	}{
		{"unknown kind", []string{"volume", "on"}, "", "unknown event kind"},
		{"missing switch", []string{"screen"}, "", "takes on or off"},
		{"bad switch", []string{"screen", "maybe"}, "", "want on or off"},
		{"missing color", []string{"color"}, "", "requires --color"},
		{"config", []string{"config"}, "", "trafficmeter set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eventParams(tt.args, tt.color, 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunOptions_Validate(t *testing.T) {
	opts := &runOptions{policy: "omni", sink: sinkTUI}
	policy, err := opts.validate()
	require.NoError(t, err)
	assert.Equal(t, meter.PolicyOmni, policy)

	_, err = (&runOptions{policy: "fancy", sink: sinkStdout}).validate()
	assert.ErrorContains(t, err, "unknown policy")

	_, err = (&runOptions{policy: "simple", sink: "lcd"}).validate()
	assert.ErrorContains(t, err, "unknown sink")
}

func TestRunOptions_ServiceOptions(t *testing.T) {
	socketPath = "/tmp/meter.sock"
	defer func() { socketPath = "" }()

	opts := &runOptions{config: "/tmp/config.yaml", dbus: true, noControl: true}
	got := opts.serviceOptions(meter.PolicySimple)

	assert.Equal(t, "/tmp/config.yaml", got.ConfigPath)
	assert.Equal(t, "/tmp/meter.sock", got.SocketPath)
	assert.Equal(t, meter.PolicySimple, got.Policy)
	assert.True(t, got.DBus)
	assert.True(t, got.DisableControl)
}

func TestLineSink(t *testing.T) {
	var buf bytes.Buffer
	s := newLineSink(&buf)

	s.SetText("1.5KB/s\n200B/s")
	s.SetVisible(true)
	s.SetText("1.5KB/s\n200B/s")
	s.SetAlpha(0.5)
	s.SetVisible(false)
	s.SetText("")

	assert.Equal(t, "-\n1.5KB/s | 200B/s\n-\n", buf.String())
}

func TestLineSink_ShowPrintsOneLinePerFrame(t *testing.T) {
	var buf bytes.Buffer
	s := newLineSink(&buf)

	s.show("0B/s", true)
	s.show("0B/s", true)
	s.show("", false)

	assert.Equal(t, "0B/s\n-\n", buf.String())
}

func TestFormatStatus(t *testing.T) {
	cfg := config.DefaultConfig()
	result := &protocol.StatusResult{
		Meter: meter.Status{
			ID:      "m1",
			Running: true,
			Policy:  meter.PolicyOmni,
			Text:    "↑ 1KB/s\n↓ 2KB/s",
			Visible: true,
			Backend: "table",
			Inputs:  meter.Inputs{Attached: true, ScreenOn: true},
		},
		Config: *cfg,
	}

	out := formatStatus(result)
	assert.Contains(t, out, "m1 (omni policy, running)")
	assert.Contains(t, out, "Backend:  table")
	assert.Contains(t, out, "Readout:  ↑ 1KB/s | ↓ 2KB/s")
	assert.Contains(t, out, "attached=on screen=on connectivity=off")
	assert.Contains(t, out, "summary=3s")
	assert.Contains(t, out, "direction=in_out unit=bytes")

	result.Meter.Visible = false
	result.Meter.Policy = meter.PolicySimple
	out = formatStatus(result)
	assert.Contains(t, out, "Readout:  (hidden)")
	assert.NotContains(t, out, "Omni:")
}

func parseRunFlags(t *testing.T, args ...string) *runOptions {
	t.Helper()
	opts := &runOptions{}
	cmd := &cobra.Command{}
	opts.bindFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return opts
}

func TestRunOptions_InitialEvents(t *testing.T) {
	opts := parseRunFlags(t)
	assert.Equal(t, []meter.Event{
		meter.InputEvent(meter.EventAttached, true),
		meter.InputEvent(meter.EventScreen, true),
		meter.InputEvent(meter.EventConnectivity, true),
	}, opts.initialEvents())

	opts = parseRunFlags(t, "--connected=false")
	assert.Contains(t, opts.initialEvents(), meter.InputEvent(meter.EventConnectivity, false))

	// The bus reports screen and connectivity itself.
	opts = parseRunFlags(t, "--dbus")
	assert.Equal(t, []meter.Event{meter.InputEvent(meter.EventAttached, true)}, opts.initialEvents())
}

func TestStartService_DefaultsRun(t *testing.T) {
	opts := parseRunFlags(t, "--no-control", "--config", filepath.Join(t.TempDir(), "config.json"))
	policy, err := opts.validate()
	require.NoError(t, err)

	svc, err := startService(context.Background(), opts, policy, newLineSink(io.Discard))
	require.NoError(t, err)
	defer svc.Shutdown()

	st := svc.Status()
	assert.True(t, st.Running)
	assert.Equal(t, meter.Inputs{Attached: true, ScreenOn: true, Connected: true}, st.Inputs)
}
