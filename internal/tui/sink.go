package tui

import (
	"context"
	"image/color"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shini4i/trafficmeter/internal/meter"
)

// Frame is everything the meter has rendered so far.
type Frame struct {
	Text     string
	Visible  bool
	Color    color.RGBA
	Icon     meter.Icon
	IconTint color.RGBA
	Size     float64
	Alpha    float64
}

// frameMsg delivers a new Frame to the model.
type frameMsg Frame

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Sink is a meter.Sink that forwards the readout to a bubbletea program.
// Updates are coalesced: the program always receives the latest frame,
// and the meter never blocks on the terminal.
type Sink struct {
	mu      sync.Mutex
	frame   Frame
	changed chan struct{}
}

// NewSink creates a sink. Frames are held until Run delivers them.
func NewSink() *Sink {
	return &Sink{
		frame:   Frame{Alpha: 1},
		changed: make(chan struct{}, 1),
	}
}

// Frame returns the current frame.
func (s *Sink) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Run sends frames to p until ctx is cancelled.
func (s *Sink) Run(ctx context.Context, p Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.changed:
			p.Send(frameMsg(s.Frame()))
		}
	}
}

func (s *Sink) update(mutate func(f *Frame)) {
	s.mu.Lock()
	mutate(&s.frame)
	s.mu.Unlock()

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *Sink) SetText(text string)       { s.update(func(f *Frame) { f.Text = text }) }
func (s *Sink) SetVisible(visible bool)   { s.update(func(f *Frame) { f.Visible = visible }) }
func (s *Sink) SetTextColor(c color.RGBA) { s.update(func(f *Frame) { f.Color = c }) }
func (s *Sink) SetIcon(icon meter.Icon)   { s.update(func(f *Frame) { f.Icon = icon }) }
func (s *Sink) SetIconTint(c color.RGBA)  { s.update(func(f *Frame) { f.IconTint = c }) }
func (s *Sink) SetTextSize(size float64)  { s.update(func(f *Frame) { f.Size = size }) }
func (s *Sink) SetAlpha(alpha float64)    { s.update(func(f *Frame) { f.Alpha = alpha }) }

var _ meter.Sink = (*Sink)(nil)
