package events

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/shini4i/trafficmeter/internal/meter"
)

func TestIsConnected(t *testing.T) {
	tests := []struct {
		state uint32
		want  bool
	}{
		{0, false},  // unknown
		{20, false}, // disconnected
		{40, false}, // connecting
		{50, false}, // local only
		{60, true},  // site
		{70, true},  // global
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsConnected(tt.state), "state %d", tt.state)
	}
}

func TestIsMobileConnectionType(t *testing.T) {
	assert.True(t, IsMobileConnectionType("gsm"))
	assert.True(t, IsMobileConnectionType("cdma"))
	assert.False(t, IsMobileConnectionType("802-11-wireless"))
	assert.False(t, IsMobileConnectionType("802-3-ethernet"))
	assert.False(t, IsMobileConnectionType(""))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		sig  *dbus.Signal
		want []meter.Event
	}{
		{
			name: "properties changed with state and type",
			sig: &dbus.Signal{
				Path: nmPath,
				Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
				Body: []interface{}{
					"org.freedesktop.NetworkManager",
					map[string]dbus.Variant{
						"State":                 dbus.MakeVariant(uint32(70)),
						"PrimaryConnectionType": dbus.MakeVariant("gsm"),
					},
					[]string{},
				},
			},
			want: []meter.Event{
				meter.InputEvent(meter.EventConnectivity, true),
				meter.InputEvent(meter.EventMobileData, true),
			},
		},
		{
			name: "properties changed on another interface",
			sig: &dbus.Signal{
				Path: nmPath,
				Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
				Body: []interface{}{
					"org.freedesktop.NetworkManager.Device",
					map[string]dbus.Variant{"State": dbus.MakeVariant(uint32(70))},
					[]string{},
				},
			},
		},
		{
			name: "properties changed on another path",
			sig: &dbus.Signal{
				Path: "/org/freedesktop/NetworkManager/Devices/1",
				Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
				Body: []interface{}{
					"org.freedesktop.NetworkManager",
					map[string]dbus.Variant{"State": dbus.MakeVariant(uint32(70))},
					[]string{},
				},
			},
		},
		{
			name: "legacy state changed",
			sig: &dbus.Signal{
				Path: nmPath,
				Name: "org.freedesktop.NetworkManager.StateChanged",
				Body: []interface{}{uint32(20)},
			},
			want: []meter.Event{meter.InputEvent(meter.EventConnectivity, false)},
		},
		{
			name: "screen saver activated",
			sig: &dbus.Signal{
				Path: screenSaverPath,
				Name: "org.freedesktop.ScreenSaver.ActiveChanged",
				Body: []interface{}{true},
			},
			want: []meter.Event{meter.InputEvent(meter.EventScreen, false)},
		},
		{
			name: "screen saver deactivated",
			sig: &dbus.Signal{
				Path: screenSaverPath,
				Name: "org.freedesktop.ScreenSaver.ActiveChanged",
				Body: []interface{}{false},
			},
			want: []meter.Event{meter.InputEvent(meter.EventScreen, true)},
		},
		{
			name: "malformed body",
			sig: &dbus.Signal{
				Name: "org.freedesktop.ScreenSaver.ActiveChanged",
				Body: []interface{}{"yes"},
			},
		},
		{
			name: "unrelated signal",
			sig:  &dbus.Signal{Name: "org.freedesktop.login1.Manager.PrepareForSleep", Body: []interface{}{true}},
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Translate(tt.sig))
		})
	}
}

type recordingHandler struct {
	events []meter.Event
	err    error
}

func (h *recordingHandler) Handle(ev meter.Event) error {
	h.events = append(h.events, ev)
	return h.err
}

func TestSource_Emit(t *testing.T) {
	h := &recordingHandler{}
	s := NewSource(h)

	s.emit(meter.InputEvent(meter.EventScreen, true))
	h.err = assert.AnError
	s.emit(meter.InputEvent(meter.EventConnectivity, false))

	assert.Len(t, h.events, 2)
}

func TestTranslateNMProperties_WrongTypes(t *testing.T) {
	events := translateNMProperties(map[string]dbus.Variant{
		"State":                 dbus.MakeVariant("connected"),
		"PrimaryConnectionType": dbus.MakeVariant(uint32(1)),
	})
	assert.Empty(t, events)
}
