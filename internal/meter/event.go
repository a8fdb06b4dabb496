package meter

import (
	"fmt"
	"image/color"

	"github.com/shini4i/trafficmeter/internal/config"
)

// EventKind identifies an inbound event.
type EventKind string

const (
	// EventAttached reports the readout being attached to or detached from its host.
	EventAttached EventKind = "attached"
	// EventScreen reports the screen turning on or off.
	EventScreen EventKind = "screen"
	// EventConnectivity reports network connectivity.
	EventConnectivity EventKind = "connectivity"
	// EventDownload reports whether a download is in progress.
	EventDownload EventKind = "download"
	// EventProgress reports progress tracking starting or stopping.
	EventProgress EventKind = "progress"
	// EventMobileData reports whether the active connection is mobile data.
	EventMobileData EventKind = "mobile_data"

	// EventConfig carries a partial configuration update.
	EventConfig EventKind = "config"
	// EventColor carries a new tint color.
	EventColor EventKind = "color"
	// EventTint enables or disables tinting.
	EventTint EventKind = "tint"
	// EventAlpha carries the overall opacity.
	EventAlpha EventKind = "alpha"
)

// IsInput returns true if the kind updates one of the gate inputs.
func (k EventKind) IsInput() bool {
	switch k {
	case EventAttached, EventScreen, EventConnectivity, EventDownload, EventProgress, EventMobileData:
		return true
	}
	return false
}

// AllEventKinds returns every known event kind.
func AllEventKinds() []EventKind {
	return []EventKind{
		EventAttached,
		EventScreen,
		EventConnectivity,
		EventDownload,
		EventProgress,
		EventMobileData,
		EventConfig,
		EventColor,
		EventTint,
		EventAlpha,
	}
}

// ParseEventKind resolves a kind by name.
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range AllEventKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// Event is the single inbound message type consumed by a Meter.
// Only the fields relevant to Kind are read.
type Event struct {
	Kind   EventKind
	On     bool
	Color  color.RGBA
	Alpha  float64
	Update config.Update
}

// InputEvent builds an event that sets one gate input.
func InputEvent(kind EventKind, on bool) Event {
	return Event{Kind: kind, On: on}
}

// ConfigEvent builds a configuration update event.
func ConfigEvent(u config.Update) Event {
	return Event{Kind: EventConfig, Update: u}
}
