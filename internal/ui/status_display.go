package ui

import (
	"strings"

	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/shini4i/trafficmeter/internal/meter"
)

// StatusDisplay shows whether the meter is sampling and why.
type StatusDisplay struct {
	widget *gtk.Box

	// Status components
	stateLabel   *gtk.Label
	policyLabel  *gtk.Label
	backendLabel *gtk.Label
	blockedLabel *gtk.Label
}

// NewStatusDisplay creates a new status display widget.
func NewStatusDisplay() *StatusDisplay {
	sd := &StatusDisplay{}
	sd.setupWidget()
	return sd
}

// setupWidget creates the compact status display UI.
func (sd *StatusDisplay) setupWidget() {
	sd.widget = gtk.NewBox(gtk.OrientationHorizontal, 12)
	sd.widget.SetHAlign(gtk.AlignCenter)
	sd.widget.SetMarginTop(8)
	sd.widget.SetMarginBottom(8)

	icon := gtk.NewImageFromIconName("network-transmit-receive-symbolic")
	icon.SetPixelSize(20)
	sd.widget.Append(icon)

	sd.stateLabel = gtk.NewLabel("Stopped")
	sd.stateLabel.AddCSSClass("heading")
	sd.widget.Append(sd.stateLabel)

	sep := gtk.NewSeparator(gtk.OrientationVertical)
	sep.SetMarginStart(4)
	sep.SetMarginEnd(4)
	sd.widget.Append(sep)

	sd.policyLabel = gtk.NewLabel("")
	sd.policyLabel.SetOpacity(dimmedOpacity)
	sd.widget.Append(sd.policyLabel)

	sd.backendLabel = gtk.NewLabel("")
	sd.backendLabel.SetOpacity(dimmedOpacity)
	sd.backendLabel.SetVisible(false)
	sd.widget.Append(sd.backendLabel)

	sd.blockedLabel = gtk.NewLabel("")
	sd.blockedLabel.SetOpacity(dimmedOpacity)
	sd.blockedLabel.SetVisible(false)
	sd.widget.Append(sd.blockedLabel)
}

// SetStatus updates the display from a meter snapshot.
func (sd *StatusDisplay) SetStatus(st meter.Status) {
	glib.IdleAdd(func() {
		sd.stateLabel.RemoveCSSClass("success")
		if st.Running {
			sd.stateLabel.SetLabel("Running")
			sd.stateLabel.AddCSSClass("success")
		} else {
			sd.stateLabel.SetLabel("Stopped")
		}

		sd.policyLabel.SetLabel(string(st.Policy) + " readout")

		sd.backendLabel.SetLabel("• " + string(st.Backend))
		sd.backendLabel.SetVisible(st.Backend != "")

		blocked := blockingInputs(st.Inputs)
		sd.blockedLabel.SetLabel("• waiting for " + strings.Join(blocked, ", "))
		sd.blockedLabel.SetVisible(!st.Running && len(blocked) > 0)
	})
}

// blockingInputs lists the basic conditions that currently prevent sampling.
func blockingInputs(in meter.Inputs) []string {
	var blocked []string
	if !in.Attached {
		blocked = append(blocked, "attach")
	}
	if !in.ScreenOn {
		blocked = append(blocked, "screen")
	}
	if !in.Connected {
		blocked = append(blocked, "network")
	}
	return blocked
}

// Widget returns the root GTK widget for the status display.
func (sd *StatusDisplay) Widget() gtk.Widgetter {
	return sd.widget
}
