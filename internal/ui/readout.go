package ui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/meter"
)

// dimmedOpacity is used for secondary labels.
const dimmedOpacity = 0.7

// readout is the rendered state of a LabelSink.
type readout struct {
	text     string
	visible  bool
	color    color.RGBA
	icon     meter.Icon
	iconTint color.RGBA
	size     float64
	alpha    float64
}

// iconGlyph returns the arrow drawn in front of the readout text.
func iconGlyph(icon meter.Icon) string {
	switch icon {
	case meter.IconUp:
		return "↑"
	case meter.IconDown:
		return "↓"
	case meter.IconUpDown:
		return "⇅"
	default:
		return ""
	}
}

// markup renders the readout as Pango markup. Sizes are in points.
func (r readout) markup() string {
	size := int(r.size * 1024)

	var b strings.Builder
	if glyph := iconGlyph(r.icon); glyph != "" {
		fmt.Fprintf(&b, `<span foreground="%s" size="%d">%s</span> `,
			config.FormatColor(r.iconTint), size, glyph)
	}
	fmt.Fprintf(&b, `<span foreground="%s" size="%d">%s</span>`,
		config.FormatColor(r.color), size, glib.MarkupEscapeText(r.text, -1))
	return b.String()
}
