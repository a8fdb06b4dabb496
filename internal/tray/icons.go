package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/shini4i/trafficmeter/internal/meter"
)

// Icon dimensions for system tray.
const iconSize = 22

// idleColor is used for the tray icon while the readout is hidden.
var idleColor = color.RGBA{128, 128, 128, 255}

// generateArrowIcon draws the direction arrows for icon in the given tint.
// IconNone yields a small dot so the tray entry never disappears.
// Alpha scales the opacity of every drawn pixel.
func generateArrowIcon(icon meter.Icon, tint color.RGBA, alpha float64) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	c := withAlpha(tint, alpha)

	switch icon {
	case meter.IconUp:
		drawArrow(img, 11, true, c)
	case meter.IconDown:
		drawArrow(img, 11, false, c)
	case meter.IconUpDown:
		drawArrow(img, 6, true, c)
		drawArrow(img, 15, false, c)
	default:
		for y := 9; y <= 12; y++ {
			for x := 9; x <= 12; x++ {
				img.Set(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// drawArrow draws a vertical arrow centred on column cx.
func drawArrow(img *image.RGBA, cx int, up bool, c color.RGBA) {
	const (
		top        = 3
		bottom     = 18
		headHeight = 6
		shaftHalf  = 1
	)

	// Head: a triangle widening away from the tip
	for i := 0; i < headHeight; i++ {
		y := top + i
		if !up {
			y = bottom - i
		}
		for x := cx - i; x <= cx+i; x++ {
			img.Set(x, y, c)
		}
	}

	// Shaft
	shaftTop, shaftBottom := top+headHeight, bottom
	if !up {
		shaftTop, shaftBottom = top, bottom-headHeight
	}
	for y := shaftTop; y <= shaftBottom; y++ {
		for x := cx - shaftHalf; x <= cx+shaftHalf; x++ {
			img.Set(x, y, c)
		}
	}
}

func withAlpha(c color.RGBA, alpha float64) color.RGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	// image.RGBA stores premultiplied colors.
	scale := func(v uint8) uint8 { return uint8(float64(v)*alpha + 0.5) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: scale(c.A)}
}
