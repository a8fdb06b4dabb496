package main

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"strings"

	"github.com/shini4i/trafficmeter/internal/meter"
)

// lineSink prints the readout as a single line whenever what is shown changes.
// Multi-line readouts are joined with " | ". A hidden readout prints "-".
type lineSink struct {
	w       io.Writer
	text    string
	visible bool
	last    string
}

func newLineSink(w io.Writer) *lineSink {
	return &lineSink{w: w}
}

func (s *lineSink) SetText(text string) {
	s.text = text
	s.flush()
}

func (s *lineSink) SetVisible(visible bool) {
	s.visible = visible
	s.flush()
}

// show applies a whole frame at once.
func (s *lineSink) show(text string, visible bool) {
	s.text = text
	s.visible = visible
	s.flush()
}

func (s *lineSink) SetTextColor(color.RGBA) {}
func (s *lineSink) SetIcon(meter.Icon)      {}
func (s *lineSink) SetIconTint(color.RGBA)  {}
func (s *lineSink) SetTextSize(float64)     {}
func (s *lineSink) SetAlpha(float64)        {}

func (s *lineSink) line() string {
	if !s.visible || s.text == "" {
		return "-"
	}
	return strings.ReplaceAll(s.text, "\n", " | ")
}

func (s *lineSink) flush() {
	line := s.line()
	if line == s.last {
		return
	}
	s.last = line
	if _, err := fmt.Fprintln(s.w, line); err != nil {
		slog.Debug("Failed to write readout", "error", err)
	}
}

var _ meter.Sink = (*lineSink)(nil)
