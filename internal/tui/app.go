// Package tui provides a terminal readout for the traffic meter.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/meter"
	"github.com/shini4i/trafficmeter/internal/stats"
)

// readoutWidth is the width of the readout column inside its panel.
const readoutWidth = 24

// Controller is the meter surface driven by the terminal UI.
// *meter.Meter implements it.
type Controller interface {
	Handle(ev meter.Event) error
	Status() meter.Status
	Config() config.DisplayConfig
}

// KeyMap defines the key bindings
type KeyMap struct {
	Quit         key.Binding
	Screen       key.Binding
	Connectivity key.Binding
	Download     key.Binding
	Progress     key.Binding
	MobileData   key.Binding
	Attached     key.Binding
	SpeedUnit    key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Screen:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "screen")),
	Connectivity: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connectivity")),
	Download:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
	Progress:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "progress")),
	MobileData:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mobile data")),
	Attached:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "attach")),
	SpeedUnit:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bytes/bits")),
}

// Messages
type handledMsg struct {
	status meter.Status
	cfg    config.DisplayConfig
	err    error
}

// Model is the terminal UI model.
type Model struct {
	ctrl Controller

	frame  Frame
	status meter.Status
	cfg    config.DisplayConfig

	lastError string
	width     int

	keys KeyMap
}

// New creates a model driving ctrl.
func New(ctrl Controller) Model {
	return Model{
		ctrl:   ctrl,
		frame:  Frame{Alpha: 1},
		status: ctrl.Status(),
		cfg:    ctrl.Config(),
		keys:   DefaultKeyMap,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// handle delivers ev off the UI goroutine; the meter may be rendering into
// the program at the same time.
func (m Model) handle(ev meter.Event) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		err := ctrl.Handle(ev)
		return handledMsg{status: ctrl.Status(), cfg: ctrl.Config(), err: err}
	}
}

func (m Model) toggle(kind meter.EventKind) tea.Cmd {
	return m.handle(meter.InputEvent(kind, !inputValue(m.status.Inputs, kind)))
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		m.frame = Frame(msg)
		// Settings may also change over the control socket.
		m.cfg = m.ctrl.Config()
		return m, nil

	case handledMsg:
		m.status = msg.status
		m.cfg = msg.cfg
		m.lastError = ""
		if msg.err != nil {
			m.lastError = msg.err.Error()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Screen):
		return m, m.toggle(meter.EventScreen)
	case key.Matches(msg, m.keys.Connectivity):
		return m, m.toggle(meter.EventConnectivity)
	case key.Matches(msg, m.keys.Download):
		return m, m.toggle(meter.EventDownload)
	case key.Matches(msg, m.keys.Progress):
		return m, m.toggle(meter.EventProgress)
	case key.Matches(msg, m.keys.MobileData):
		return m, m.toggle(meter.EventMobileData)
	case key.Matches(msg, m.keys.Attached):
		return m, m.toggle(meter.EventAttached)
	case key.Matches(msg, m.keys.SpeedUnit):
		unit := stats.UnitBits
		if m.cfg.OmniSpeedUnit == stats.UnitBits {
			unit = stats.UnitBytes
		}
		return m, m.handle(meter.ConfigEvent(config.Update{OmniSpeedUnit: &unit}))
	}
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	state := OffStyle.Render("stopped")
	if m.status.Running {
		state = OnStyle.Render("running")
	}
	b.WriteString(TitleStyle.Render("trafficmeter"))
	b.WriteString(" ")
	b.WriteString(LabelStyle.Render(fmt.Sprintf("%s policy, ", m.status.Policy)))
	b.WriteString(state)
	b.WriteString("\n\n")

	b.WriteString(PanelStyle.Render(m.viewReadout()))
	b.WriteString("\n")
	b.WriteString(m.viewInputs())
	b.WriteString("\n")

	if m.lastError != "" {
		b.WriteString(ErrorStyle.Render("Error: " + m.lastError))
		b.WriteString("\n")
	}
	b.WriteString(m.viewHelp())
	return b.String()
}

func (m Model) viewReadout() string {
	if !m.frame.Visible {
		return m.placeReadout(HiddenStyle.Render("(hidden)"))
	}

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.FormatColor(m.frame.Color))).
		Bold(true)
	if m.frame.Alpha < 0.5 {
		style = style.Faint(true)
	}

	text := style.Render(m.frame.Text)
	if symbol := iconSymbol(m.frame.Icon); symbol != "" {
		iconStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(config.FormatColor(m.frame.IconTint)))
		text = lipgloss.JoinHorizontal(lipgloss.Center, iconStyle.Render(symbol), " ", text)
	}
	return m.placeReadout(text)
}

// placeReadout aligns the readout inside its panel per the configured position.
func (m Model) placeReadout(text string) string {
	return lipgloss.NewStyle().
		Width(readoutWidth).
		Align(positionAlign(m.cfg.Position)).
		Render(text)
}

// positionAlign maps the readout position onto a horizontal alignment.
func positionAlign(p config.Position) lipgloss.Position {
	switch p {
	case config.PositionLeft:
		return lipgloss.Left
	case config.PositionCenter:
		return lipgloss.Center
	default:
		return lipgloss.Right
	}
}

func (m Model) viewInputs() string {
	in := m.status.Inputs
	items := []struct {
		label string
		on    bool
	}{
		{"attached", in.Attached},
		{"screen", in.ScreenOn},
		{"connected", in.Connected},
		{"download", in.DownloadActive},
		{"progress", in.ProgressTracking},
		{"mobile", in.MobileDataConnected},
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.on {
			parts = append(parts, OnStyle.Render(SymbolOn)+" "+item.label)
		} else {
			parts = append(parts, OffStyle.Render(SymbolOff)+" "+LabelStyle.Render(item.label))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) viewHelp() string {
	bindings := []key.Binding{
		m.keys.Attached, m.keys.Screen, m.keys.Connectivity, m.keys.Download,
		m.keys.Progress, m.keys.MobileData, m.keys.SpeedUnit, m.keys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return HelpStyle.Render(strings.Join(parts, " • "))
}

func iconSymbol(icon meter.Icon) string {
	switch icon {
	case meter.IconUp:
		return SymbolUp
	case meter.IconDown:
		return SymbolDown
	case meter.IconUpDown:
		return SymbolUpDown
	default:
		return ""
	}
}

func inputValue(in meter.Inputs, kind meter.EventKind) bool {
	switch kind {
	case meter.EventAttached:
		return in.Attached
	case meter.EventScreen:
		return in.ScreenOn
	case meter.EventConnectivity:
		return in.Connected
	case meter.EventDownload:
		return in.DownloadActive
	case meter.EventProgress:
		return in.ProgressTracking
	case meter.EventMobileData:
		return in.MobileDataConnected
	default:
		return false
	}
}
