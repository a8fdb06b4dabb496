package server

import (
	"image/color"
	"log/slog"
	"sync"

	"github.com/shini4i/trafficmeter/internal/control/protocol"
	"github.com/shini4i/trafficmeter/internal/meter"
)

const frameQueueSize = 32

// FrameSink is a meter.Sink that broadcasts the readout to control clients.
// Frames are queued so the meter never waits on socket I/O; when the queue
// is full the frame is dropped.
type FrameSink struct {
	frames chan protocol.FrameData
	frame  protocol.FrameData // Last published frame, guarded by the meter lock

	done chan struct{}
	once sync.Once
}

// Broadcaster delivers events to every connected client. *Server implements it.
type Broadcaster interface {
	Broadcast(event *protocol.Event)
}

// NewFrameSink creates a sink whose frames queue until Start is called.
func NewFrameSink() *FrameSink {
	return &FrameSink{
		frames: make(chan protocol.FrameData, frameQueueSize),
		done:   make(chan struct{}),
	}
}

// Start broadcasts queued and future frames through b until Close.
func (f *FrameSink) Start(b Broadcaster) {
	go f.run(b)
}

// SetText implements meter.Sink.
func (f *FrameSink) SetText(text string) {
	f.frame.Text = text
	f.publish()
}

// SetVisible implements meter.Sink.
func (f *FrameSink) SetVisible(visible bool) {
	f.frame.Visible = visible
	f.publish()
}

// Styling is not part of a frame.
func (f *FrameSink) SetTextColor(color.RGBA) {}
func (f *FrameSink) SetIcon(meter.Icon)      {}
func (f *FrameSink) SetIconTint(color.RGBA)  {}
func (f *FrameSink) SetTextSize(float64)     {}
func (f *FrameSink) SetAlpha(float64)        {}

// Close stops the broadcaster. Frames still queued are discarded.
func (f *FrameSink) Close() {
	f.once.Do(func() { close(f.done) })
}

func (f *FrameSink) publish() {
	select {
	case f.frames <- f.frame:
	default:
		slog.Debug("Frame dropped, control clients are too slow")
	}
}

func (f *FrameSink) run(b Broadcaster) {
	for {
		select {
		case <-f.done:
			return
		case frame := <-f.frames:
			event, err := protocol.NewEvent(protocol.EventFrame, frame)
			if err != nil {
				slog.Error("Failed to encode frame", "error", err)
				continue
			}
			b.Broadcast(event)
		}
	}
}

var _ meter.Sink = (*FrameSink)(nil)
