// Package events translates desktop D-Bus signals into meter events.
//
// Connectivity and mobile data come from NetworkManager on the system bus;
// screen on/off comes from the freedesktop ScreenSaver on the session bus.
package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/shini4i/trafficmeter/internal/meter"
)

const (
	nmDest  = "org.freedesktop.NetworkManager"
	nmPath  = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmIface = "org.freedesktop.NetworkManager"

	screenSaverDest  = "org.freedesktop.ScreenSaver"
	screenSaverPath  = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverIface = "org.freedesktop.ScreenSaver"

	propertiesIface = "org.freedesktop.DBus.Properties"

	memberPropertiesChanged = "PropertiesChanged"
	memberStateChanged      = "StateChanged"
	memberActiveChanged     = "ActiveChanged"

	// nmStateConnectedSite is NM_STATE_CONNECTED_SITE; anything at or above
	// it has a route beyond the local link.
	nmStateConnectedSite uint32 = 60

	signalBuffer = 16
)

// mobileConnectionTypes are NetworkManager connection types carried over a
// cellular modem.
var mobileConnectionTypes = map[string]bool{
	"gsm":       true,
	"cdma":      true,
	"bluetooth": true,
	"wwan":      true,
}

// Handler receives translated events. *meter.Meter implements it.
type Handler interface {
	Handle(ev meter.Event) error
}

// IsConnected reports whether a NetworkManager state value means connected.
func IsConnected(state uint32) bool {
	return state >= nmStateConnectedSite
}

// IsMobileConnectionType reports whether the primary connection type is cellular.
func IsMobileConnectionType(connType string) bool {
	return mobileConnectionTypes[connType]
}

// Translate maps one D-Bus signal to the events it implies.
// Unrelated or malformed signals yield nothing.
func Translate(sig *dbus.Signal) []meter.Event {
	if sig == nil {
		return nil
	}

	switch sig.Name {
	case propertiesIface + "." + memberPropertiesChanged:
		if sig.Path != nmPath || len(sig.Body) < 2 {
			return nil
		}
		if iface, ok := sig.Body[0].(string); !ok || iface != nmIface {
			return nil
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return nil
		}
		return translateNMProperties(changed)

	case nmIface + "." + memberStateChanged:
		if len(sig.Body) < 1 {
			return nil
		}
		state, ok := sig.Body[0].(uint32)
		if !ok {
			return nil
		}
		return []meter.Event{meter.InputEvent(meter.EventConnectivity, IsConnected(state))}

	case screenSaverIface + "." + memberActiveChanged:
		if len(sig.Body) < 1 {
			return nil
		}
		active, ok := sig.Body[0].(bool)
		if !ok {
			return nil
		}
		return []meter.Event{meter.InputEvent(meter.EventScreen, !active)}
	}
	return nil
}

func translateNMProperties(changed map[string]dbus.Variant) []meter.Event {
	var out []meter.Event
	if v, ok := changed["State"]; ok {
		if state, ok := v.Value().(uint32); ok {
			out = append(out, meter.InputEvent(meter.EventConnectivity, IsConnected(state)))
		}
	}
	if v, ok := changed["PrimaryConnectionType"]; ok {
		if connType, ok := v.Value().(string); ok {
			out = append(out, meter.InputEvent(meter.EventMobileData, IsMobileConnectionType(connType)))
		}
	}
	return out
}

// Source watches the system and session buses and forwards events to a Handler.
type Source struct {
	handler Handler
}

// NewSource creates a Source delivering to handler.
func NewSource(handler Handler) *Source {
	return &Source{handler: handler}
}

// Run connects to the buses, emits the current state and then forwards
// signals until ctx is cancelled. The system bus is required; without a
// session bus the screen is assumed on.
func (s *Source) Run(ctx context.Context) error {
	system, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer func() { _ = system.Close() }()

	signals := make(chan *dbus.Signal, signalBuffer)

	if err := watchNetworkManager(system); err != nil {
		return err
	}
	system.Signal(signals)
	s.emitNetworkState(system)

	session, err := dbus.ConnectSessionBus()
	if err != nil {
		slog.Warn("Session bus unavailable, assuming screen is on", "error", err)
		s.emit(meter.InputEvent(meter.EventScreen, true))
	} else {
		defer func() { _ = session.Close() }()
		if err := watchScreenSaver(session); err != nil {
			slog.Warn("Cannot watch screen saver, assuming screen is on", "error", err)
		}
		session.Signal(signals)
		s.emitScreenState(session)
	}

	slog.Info("D-Bus event source started")

	for {
		select {
		case <-ctx.Done():
			slog.Debug("D-Bus event source stopped")
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			for _, ev := range Translate(sig) {
				s.emit(ev)
			}
		}
	}
}

func watchNetworkManager(conn *dbus.Conn) error {
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(nmPath),
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember(memberPropertiesChanged),
	); err != nil {
		return fmt.Errorf("failed to watch NetworkManager properties: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(nmPath),
		dbus.WithMatchInterface(nmIface),
		dbus.WithMatchMember(memberStateChanged),
	); err != nil {
		return fmt.Errorf("failed to watch NetworkManager state: %w", err)
	}
	return nil
}

func watchScreenSaver(conn *dbus.Conn) error {
	return conn.AddMatchSignal(
		dbus.WithMatchInterface(screenSaverIface),
		dbus.WithMatchMember(memberActiveChanged),
	)
}

func (s *Source) emitNetworkState(conn *dbus.Conn) {
	obj := conn.Object(nmDest, nmPath)

	props := map[string]dbus.Variant{}
	for _, name := range []string{"State", "PrimaryConnectionType"} {
		v, err := obj.GetProperty(nmIface + "." + name)
		if err != nil {
			slog.Warn("Failed to read NetworkManager property", "property", name, "error", err)
			continue
		}
		props[name] = v
	}
	for _, ev := range translateNMProperties(props) {
		s.emit(ev)
	}
}

func (s *Source) emitScreenState(conn *dbus.Conn) {
	var active bool
	err := conn.Object(screenSaverDest, screenSaverPath).Call(screenSaverIface+".GetActive", 0).Store(&active)
	if err != nil {
		slog.Debug("Screen saver state unknown, assuming screen is on", "error", err)
		active = false
	}
	s.emit(meter.InputEvent(meter.EventScreen, !active))
}

func (s *Source) emit(ev meter.Event) {
	if err := s.handler.Handle(ev); err != nil {
		slog.Warn("Failed to handle event", "kind", ev.Kind, "error", err)
		return
	}
	slog.Debug("Event delivered", "kind", ev.Kind, "on", ev.On)
}
