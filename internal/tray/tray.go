// Package tray shows the traffic readout in the system tray.
package tray

import (
	"errors"
	"image/color"
	"log/slog"
	"strings"
	"sync"

	"fyne.io/systray"

	"github.com/shini4i/trafficmeter/internal/meter"
)

var (
	// ErrAlreadyRunning is returned when attempting to modify callbacks after Run() has been called.
	ErrAlreadyRunning = errors.New("cannot modify callbacks after Sink.Run() is called")
	// ErrRunTwice is returned when Run() is called more than once.
	ErrRunTwice = errors.New("Sink.Run() called twice")
	// ErrMissingCallbacks is returned when Run() is called without all required callbacks set.
	ErrMissingCallbacks = errors.New("all callbacks (OnSpeedUnit, OnQuit) must be set before calling Run()")
)

const trayTooltip = "Traffic Meter"

// Sink renders the readout as the system tray title and icon.
// Updates received before the tray is ready are applied in onReady.
type Sink struct {
	mu sync.RWMutex

	// Readout state
	text    string
	visible bool
	icon    meter.Icon
	tint    color.RGBA
	alpha   float64

	// Menu items
	menuReadout   *systray.MenuItem
	menuSpeedUnit *systray.MenuItem
	menuQuit      *systray.MenuItem

	// Callbacks - must be set before Run() is called
	onSpeedUnit func()
	onQuit      func()

	// Done channel to signal goroutine termination
	done chan struct{}

	// Lifecycle flags
	ready     bool
	running   bool
	closeOnce sync.Once
}

// New creates a tray sink showing a hidden readout.
func New() *Sink {
	return &Sink{
		tint:  color.RGBA{255, 255, 255, 255},
		alpha: 1,
		done:  make(chan struct{}),
	}
}

// OnSpeedUnit registers a callback for the bits/bytes menu toggle.
// Must be called before Run(). Returns ErrAlreadyRunning if called after Run().
func (t *Sink) OnSpeedUnit(callback func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return ErrAlreadyRunning
	}
	t.onSpeedUnit = callback
	return nil
}

// OnQuit registers a callback for when Quit is clicked in tray.
// Must be called before Run(). Returns ErrAlreadyRunning if called after Run().
func (t *Sink) OnQuit(callback func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return ErrAlreadyRunning
	}
	t.onQuit = callback
	return nil
}

// SetText implements meter.Sink. Multi-line readouts are joined on one line.
func (t *Sink) SetText(text string) {
	t.mu.Lock()
	t.text = text
	t.mu.Unlock()
	t.updateTitle()
}

// SetVisible implements meter.Sink.
func (t *Sink) SetVisible(visible bool) {
	t.mu.Lock()
	t.visible = visible
	t.mu.Unlock()
	t.updateTitle()
	t.updateIcon()
}

// SetIcon implements meter.Sink.
func (t *Sink) SetIcon(icon meter.Icon) {
	t.mu.Lock()
	t.icon = icon
	t.mu.Unlock()
	t.updateIcon()
}

// SetIconTint implements meter.Sink.
func (t *Sink) SetIconTint(c color.RGBA) {
	t.mu.Lock()
	t.tint = c
	t.mu.Unlock()
	t.updateIcon()
}

// SetAlpha implements meter.Sink.
func (t *Sink) SetAlpha(alpha float64) {
	t.mu.Lock()
	t.alpha = alpha
	t.mu.Unlock()
	t.updateIcon()
}

// The tray title cannot be styled.
func (t *Sink) SetTextColor(color.RGBA) {}
func (t *Sink) SetTextSize(float64)     {}

// Run starts the system tray icon. It blocks until the tray is closed.
// OnSpeedUnit and OnQuit must be registered before calling Run().
// Returns ErrMissingCallbacks if any callback is not set.
// Returns ErrRunTwice if called more than once.
func (t *Sink) Run() error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return ErrRunTwice
	}
	if t.onSpeedUnit == nil || t.onQuit == nil {
		t.mu.Unlock()
		return ErrMissingCallbacks
	}
	t.running = true
	t.mu.Unlock()

	systray.Run(t.onReady, t.onExit)
	return nil
}

// Quit closes the system tray icon and terminates the click handler goroutine.
// Safe to call multiple times.
func (t *Sink) Quit() {
	t.closeOnce.Do(func() {
		close(t.done)
		systray.Quit()
	})
}

func (t *Sink) onReady() {
	systray.SetTooltip(trayTooltip)

	t.menuReadout = systray.AddMenuItem("Idle", "Current traffic rate")
	t.menuReadout.Disable()

	systray.AddSeparator()

	t.menuSpeedUnit = systray.AddMenuItem("Toggle bits/bytes", "Switch the rate unit")
	t.menuQuit = systray.AddMenuItem("Quit", "Quit the application")

	t.mu.Lock()
	t.ready = true
	t.mu.Unlock()

	t.updateTitle()
	t.updateIcon()

	go t.handleMenuClicks()

	slog.Info("System tray initialized")
}

func (t *Sink) onExit() {
	slog.Info("System tray closed")
}

func (t *Sink) handleMenuClicks() {
	for {
		select {
		case <-t.done:
			return
		case _, ok := <-t.menuSpeedUnit.ClickedCh:
			if !ok {
				return
			}
			t.onSpeedUnit()
		case _, ok := <-t.menuQuit.ClickedCh:
			if !ok {
				return
			}
			t.onQuit()
		}
	}
}

// title returns the tray title for the current readout.
func (t *Sink) title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.visible {
		return ""
	}
	return strings.Join(strings.Fields(t.text), " ")
}

// iconPNG returns the tray icon for the current readout.
func (t *Sink) iconPNG() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.visible {
		return generateArrowIcon(meter.IconNone, idleColor, t.alpha)
	}
	return generateArrowIcon(t.icon, t.tint, t.alpha)
}

func (t *Sink) isReady() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

func (t *Sink) updateTitle() {
	if !t.isReady() {
		return
	}
	title := t.title()
	systray.SetTitle(title)

	if title == "" {
		title = "Idle"
	}
	t.menuReadout.SetTitle(title)
}

func (t *Sink) updateIcon() {
	if !t.isReady() {
		return
	}
	systray.SetIcon(t.iconPNG())
}

var _ meter.Sink = (*Sink)(nil)
