package protocol

import (
	"encoding/json"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/meter"
)

func TestNewRequest(t *testing.T) {
	tests := []struct {
		name   string
		cmd    Command
		params interface{}
		want   string
	}{
		{"event", CommandEvent, EventParams{Kind: "screen", On: true}, `{"kind":"screen","on":true}`},
		{"status", CommandStatus, StatusParams{}, `{}`},
		{"nil params", CommandStatus, nil, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest("req-1", tt.cmd, tt.params)
			require.NoError(t, err)

			assert.Equal(t, "req-1", req.ID)
			assert.Equal(t, MessageTypeRequest, req.Type)
			assert.Equal(t, tt.cmd, req.Command)
			assert.JSONEq(t, tt.want, string(req.Params))
		})
	}

	_, err := NewRequest("bad", CommandEvent, make(chan int))
	assert.Error(t, err)
}

func TestConfigRequestCarriesOnlyPresentKeys(t *testing.T) {
	hide := config.HideSummary
	req, err := NewRequest("req-2", CommandConfig, config.Update{HideMode: &hide})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hide_mode":"summary"}`, string(req.Params))

	var decoded config.Update
	require.NoError(t, json.Unmarshal(req.Params, &decoded))
	assert.Equal(t, []string{"hide_mode"}, decoded.Keys())
}

func TestResponses(t *testing.T) {
	resp, err := NewSuccessResponse("id-1", FrameData{Text: "1KB/s", Visible: true})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, MessageTypeResponse, resp.Type)
	assert.JSONEq(t, `{"text":"1KB/s","visible":true}`, string(resp.Result))
	assert.Nil(t, resp.Error)

	resp, err = NewSuccessResponse("id-2", nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Result)

	errResp := NewErrorResponse("id-3", ErrCodeInvalidParams, "bad kind")
	assert.False(t, errResp.Success)
	require.NotNil(t, errResp.Error)
	assert.Equal(t, ErrCodeInvalidParams, errResp.Error.Code)

	data, err := json.Marshal(errResp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"result"`)
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(EventFrame, FrameData{Text: "", Visible: false})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeEvent, ev.Type)
	assert.Equal(t, EventFrame, ev.Name)
	assert.JSONEq(t, `{"text":"","visible":false}`, string(ev.Data))
}

func TestEventParams_ToEvent(t *testing.T) {
	tests := []struct {
		name    string
		params  EventParams
		want    meter.Event
		wantErr string
	}{
		{
			name:   "input",
			params: EventParams{Kind: "download", On: true},
			want:   meter.InputEvent(meter.EventDownload, true),
		},
		{
			name:   "color",
			params: EventParams{Kind: "color", Color: "#00ff80"},
			want:   meter.Event{Kind: meter.EventColor, Color: color.RGBA{G: 255, B: 128, A: 255}},
		},
		{
			name:   "alpha",
			params: EventParams{Kind: "alpha", Alpha: 0.5},
			want:   meter.Event{Kind: meter.EventAlpha, Alpha: 0.5},
		},
		{
			name:    "bad color",
			params:  EventParams{Kind: "color", Color: "blue"},
			wantErr: "#rrggbb",
		},
		{
			name:    "unknown kind",
			params:  EventParams{Kind: "wifi"},
			wantErr: "unknown event kind",
		},
		{
			name:    "config through event command",
			params:  EventParams{Kind: "config"},
			wantErr: "config updates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := tt.params.ToEvent()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestStatusResultJSON(t *testing.T) {
	result := StatusResult{
		Meter: meter.Status{
			ID:      "m-1",
			Running: true,
			Inputs:  meter.Inputs{Attached: true, ScreenOn: true, Connected: true},
			Text:    "500KB/s",
			Visible: true,
			Policy:  meter.PolicySimple,
		},
		Config: *config.DefaultConfig(),
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded StatusResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.Meter, decoded.Meter)
	assert.Equal(t, config.HideNever, decoded.Config.HideMode)
	assert.Contains(t, string(data), `"screen_on":true`)
}
