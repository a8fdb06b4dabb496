package ui

import (
	"image/color"
	"testing"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/stretchr/testify/assert"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/meter"
)

func TestReadout_Markup(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	red := color.RGBA{255, 0, 0, 255}

	tests := []struct {
		name string
		r    readout
		want string
	}{
		{
			name: "text only",
			r:    readout{text: "500KB/s", color: white, size: 14},
			want: `<span foreground="#ffffff" size="14336">500KB/s</span>`,
		},
		{
			name: "icon tinted separately",
			r:    readout{text: "1.5kB/s", color: white, icon: meter.IconDown, iconTint: red, size: 10},
			want: `<span foreground="#ff0000" size="10240">↓</span> <span foreground="#ffffff" size="10240">1.5kB/s</span>`,
		},
		{
			name: "two lines",
			r:    readout{text: "0B/s\n0B/s", color: white, icon: meter.IconUpDown, iconTint: white, size: 10},
			want: `<span foreground="#ffffff" size="10240">⇅</span> <span foreground="#ffffff" size="10240">0B/s` + "\n" + `0B/s</span>`,
		},
		{
			name: "escaped",
			r:    readout{text: "<a&b>", color: white, size: 1},
			want: `<span foreground="#ffffff" size="1024">&lt;a&amp;b&gt;</span>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.markup())
		})
	}
}

func TestIconGlyph(t *testing.T) {
	assert.Equal(t, "↑", iconGlyph(meter.IconUp))
	assert.Equal(t, "↓", iconGlyph(meter.IconDown))
	assert.Equal(t, "⇅", iconGlyph(meter.IconUpDown))
	assert.Empty(t, iconGlyph(meter.IconNone))
}

func TestPositionLayout(t *testing.T) {
	tests := []struct {
		position config.Position
		align    gtk.Align
		justify  gtk.Justification
	}{
		{config.PositionLeft, gtk.AlignStart, gtk.JustifyLeft},
		{config.PositionCenter, gtk.AlignCenter, gtk.JustifyCenter},
		{config.PositionRight, gtk.AlignEnd, gtk.JustifyRight},
		{"", gtk.AlignCenter, gtk.JustifyCenter},
	}

	for _, tt := range tests {
		t.Run(string(tt.position), func(t *testing.T) {
			align, justify := positionLayout(tt.position)
			assert.Equal(t, tt.align, align)
			assert.Equal(t, tt.justify, justify)
		})
	}
}
