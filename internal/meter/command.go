package meter

import (
	"image/color"
)

// Icon identifies the directional glyph shown next to the readout.
type Icon string

const (
	IconNone   Icon = ""
	IconUp     Icon = "up"
	IconDown   Icon = "down"
	IconUpDown Icon = "up_down"
)

// Sink receives rendering directives. Implementations are called with the
// owning Meter's lock held and must not call back into the Meter.
type Sink interface {
	SetText(text string)
	SetVisible(visible bool)
	SetTextColor(c color.RGBA)
	SetIcon(icon Icon)
	SetIconTint(c color.RGBA)
	SetTextSize(size float64)
	SetAlpha(alpha float64)
}

// CommandKind identifies a sink operation.
type CommandKind string

const (
	CommandText      CommandKind = "text"
	CommandVisible   CommandKind = "visible"
	CommandTextColor CommandKind = "text_color"
	CommandIcon      CommandKind = "icon"
	CommandIconTint  CommandKind = "icon_tint"
	CommandTextSize  CommandKind = "text_size"
	CommandAlpha     CommandKind = "alpha"
)

// Command is one rendering directive produced by a policy or the Meter.
// Only the field matching Kind is meaningful.
type Command struct {
	Kind    CommandKind
	Text    string
	Visible bool
	Color   color.RGBA
	Icon    Icon
	Size    float64
	Alpha   float64
}

func textCmd(s string) Command          { return Command{Kind: CommandText, Text: s} }
func visibleCmd(v bool) Command         { return Command{Kind: CommandVisible, Visible: v} }
func textColorCmd(c color.RGBA) Command { return Command{Kind: CommandTextColor, Color: c} }
func iconCmd(i Icon) Command            { return Command{Kind: CommandIcon, Icon: i} }
func iconTintCmd(c color.RGBA) Command  { return Command{Kind: CommandIconTint, Color: c} }
func textSizeCmd(s float64) Command     { return Command{Kind: CommandTextSize, Size: s} }
func alphaCmd(a float64) Command        { return Command{Kind: CommandAlpha, Alpha: a} }

// ApplyTo forwards the command to the matching sink method.
func (c Command) ApplyTo(s Sink) {
	switch c.Kind {
	case CommandText:
		s.SetText(c.Text)
	case CommandVisible:
		s.SetVisible(c.Visible)
	case CommandTextColor:
		s.SetTextColor(c.Color)
	case CommandIcon:
		s.SetIcon(c.Icon)
	case CommandIconTint:
		s.SetIconTint(c.Color)
	case CommandTextSize:
		s.SetTextSize(c.Size)
	case CommandAlpha:
		s.SetAlpha(c.Alpha)
	}
}

// Apply forwards every command to s in order.
func Apply(s Sink, cmds []Command) {
	for _, c := range cmds {
		c.ApplyTo(s)
	}
}

// Recorder is a Sink that stores every command it receives.
// It is not safe for concurrent use on its own; the Meter lock serializes it.
type Recorder struct {
	Commands []Command
}

func (r *Recorder) SetText(text string)       { r.Commands = append(r.Commands, textCmd(text)) }
func (r *Recorder) SetVisible(visible bool)   { r.Commands = append(r.Commands, visibleCmd(visible)) }
func (r *Recorder) SetTextColor(c color.RGBA) { r.Commands = append(r.Commands, textColorCmd(c)) }
func (r *Recorder) SetIcon(icon Icon)         { r.Commands = append(r.Commands, iconCmd(icon)) }
func (r *Recorder) SetIconTint(c color.RGBA)  { r.Commands = append(r.Commands, iconTintCmd(c)) }
func (r *Recorder) SetTextSize(size float64)  { r.Commands = append(r.Commands, textSizeCmd(size)) }
func (r *Recorder) SetAlpha(alpha float64)    { r.Commands = append(r.Commands, alphaCmd(alpha)) }

// Texts returns the text payloads in the order they were set.
func (r *Recorder) Texts() []string {
	var out []string
	for _, c := range r.Commands {
		if c.Kind == CommandText {
			out = append(out, c.Text)
		}
	}
	return out
}

// Reset discards the recorded commands.
func (r *Recorder) Reset() {
	r.Commands = nil
}

// MultiSink fans every directive out to several sinks.
type MultiSink []Sink

func (m MultiSink) SetText(text string) {
	for _, s := range m {
		s.SetText(text)
	}
}

func (m MultiSink) SetVisible(visible bool) {
	for _, s := range m {
		s.SetVisible(visible)
	}
}

func (m MultiSink) SetTextColor(c color.RGBA) {
	for _, s := range m {
		s.SetTextColor(c)
	}
}

func (m MultiSink) SetIcon(icon Icon) {
	for _, s := range m {
		s.SetIcon(icon)
	}
}

func (m MultiSink) SetIconTint(c color.RGBA) {
	for _, s := range m {
		s.SetIconTint(c)
	}
}

func (m MultiSink) SetTextSize(size float64) {
	for _, s := range m {
		s.SetTextSize(size)
	}
}

func (m MultiSink) SetAlpha(alpha float64) {
	for _, s := range m {
		s.SetAlpha(alpha)
	}
}
