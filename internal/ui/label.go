package ui

import (
	"image/color"

	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/meter"
)

// LabelSink shows the readout in a GTK label.
// Every update is marshalled onto the GTK main loop, so it may be called
// from the sampling goroutine.
type LabelSink struct {
	widget *gtk.Box
	label  *gtk.Label

	// state and position are only touched on the main loop.
	state    readout
	position config.Position
}

// NewLabelSink creates the readout widget. It must be called on the main loop.
func NewLabelSink() *LabelSink {
	ls := &LabelSink{
		state: readout{
			color:    color.RGBA{255, 255, 255, 255},
			iconTint: color.RGBA{255, 255, 255, 255},
			size:     14,
			alpha:    1,
		},
		position: config.PositionCenter,
	}
	ls.setupWidget()
	return ls
}

func (ls *LabelSink) setupWidget() {
	ls.widget = gtk.NewBox(gtk.OrientationHorizontal, 0)
	ls.widget.SetMarginTop(12)
	ls.widget.SetMarginBottom(12)
	ls.widget.SetVisible(false) // Hidden until the meter renders

	ls.label = gtk.NewLabel("")
	ls.widget.Append(ls.label)
	ls.applyPosition()
}

// update mutates the state on the main loop and redraws.
func (ls *LabelSink) update(mutate func(r *readout)) {
	glib.IdleAdd(func() {
		mutate(&ls.state)
		ls.render()
	})
}

func (ls *LabelSink) render() {
	ls.label.SetMarkup(ls.state.markup())
	ls.widget.SetOpacity(ls.state.alpha)
	ls.widget.SetVisible(ls.state.visible)
}

func (ls *LabelSink) SetText(text string)       { ls.update(func(r *readout) { r.text = text }) }
func (ls *LabelSink) SetVisible(visible bool)   { ls.update(func(r *readout) { r.visible = visible }) }
func (ls *LabelSink) SetTextColor(c color.RGBA) { ls.update(func(r *readout) { r.color = c }) }
func (ls *LabelSink) SetIcon(icon meter.Icon)   { ls.update(func(r *readout) { r.icon = icon }) }
func (ls *LabelSink) SetIconTint(c color.RGBA)  { ls.update(func(r *readout) { r.iconTint = c }) }
func (ls *LabelSink) SetTextSize(size float64)  { ls.update(func(r *readout) { r.size = size }) }
func (ls *LabelSink) SetAlpha(alpha float64)    { ls.update(func(r *readout) { r.alpha = alpha }) }

// SetPosition places the readout horizontally. It is not part of meter.Sink:
// the position is a layout setting read from the configuration.
func (ls *LabelSink) SetPosition(p config.Position) {
	glib.IdleAdd(func() {
		if p == ls.position {
			return
		}
		ls.position = p
		ls.applyPosition()
	})
}

func (ls *LabelSink) applyPosition() {
	halign, justify := positionLayout(ls.position)
	ls.widget.SetHAlign(halign)
	ls.label.SetJustify(justify)
}

// positionLayout maps the readout position onto GTK alignment and justification.
func positionLayout(p config.Position) (gtk.Align, gtk.Justification) {
	switch p {
	case config.PositionLeft:
		return gtk.AlignStart, gtk.JustifyLeft
	case config.PositionRight:
		return gtk.AlignEnd, gtk.JustifyRight
	default:
		return gtk.AlignCenter, gtk.JustifyCenter
	}
}

// Widget returns the root GTK widget for the readout.
func (ls *LabelSink) Widget() gtk.Widgetter {
	return ls.widget
}

var _ meter.Sink = (*LabelSink)(nil)
