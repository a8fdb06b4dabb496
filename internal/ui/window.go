package ui

import (
	"log/slog"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/meter"
)

const (
	windowDefaultWidth  = 420
	windowDefaultHeight = 560
)

// Controller is the meter surface driven by the GTK application.
// *meter.Meter implements it.
type Controller interface {
	Handle(ev meter.Event) error
	Status() meter.Status
	Config() config.DisplayConfig
}

// inputSwitch describes one gate input switch.
type inputSwitch struct {
	kind     meter.EventKind
	title    string
	subtitle string
	get      func(in meter.Inputs) bool
}

var inputSwitches = []inputSwitch{
	{meter.EventAttached, "Attached", "The readout is placed in its host", func(in meter.Inputs) bool { return in.Attached }},
	{meter.EventScreen, "Screen On", "", func(in meter.Inputs) bool { return in.ScreenOn }},
	{meter.EventConnectivity, "Connected", "A network connection is up", func(in meter.Inputs) bool { return in.Connected }},
	{meter.EventDownload, "Download Active", "", func(in meter.Inputs) bool { return in.DownloadActive }},
	{meter.EventProgress, "Progress Tracking", "", func(in meter.Inputs) bool { return in.ProgressTracking }},
	{meter.EventMobileData, "Mobile Data", "The active connection is mobile data", func(in meter.Inputs) bool { return in.MobileDataConnected }},
}

// MainWindowDeps holds the dependencies required by MainWindow.
type MainWindowDeps struct {
	Controller Controller
	Readout    *LabelSink

	// HideOnClose keeps the application running in the tray when the window is closed.
	HideOnClose bool
}

// MainWindow shows the readout, the meter status and the gate inputs.
type MainWindow struct {
	window *adw.ApplicationWindow
	deps   *MainWindowDeps

	// UI components
	statusDisplay *StatusDisplay
	inputRows     map[meter.EventKind]*adw.SwitchRow

	// syncing suppresses events while rows are updated from a status.
	syncing bool

	// Callbacks
	onEventHandled func(err error)
}

// NewMainWindow creates a new main window instance.
func NewMainWindow(app *adw.Application, deps *MainWindowDeps) *MainWindow {
	w := &MainWindow{
		deps:      deps,
		inputRows: make(map[meter.EventKind]*adw.SwitchRow),
	}

	w.setupWindow(app)
	w.setupLayout()
	w.SyncStatus(deps.Controller.Status())

	return w
}

// setupWindow creates and configures the application window.
func (w *MainWindow) setupWindow(app *adw.Application) {
	w.window = adw.NewApplicationWindow(&app.Application)
	w.window.SetTitle("Traffic Meter")
	w.window.SetDefaultSize(windowDefaultWidth, windowDefaultHeight)

	w.window.ConnectCloseRequest(func() bool {
		if !w.deps.HideOnClose {
			return false
		}
		glib.IdleAdd(func() {
			w.window.SetVisible(false)
		})
		return true
	})
}

func (w *MainWindow) setupLayout() {
	headerBar := adw.NewHeaderBar()

	menuButton := gtk.NewMenuButton()
	menuButton.SetIconName("open-menu-symbolic")
	menuButton.SetMenuModel(w.createMainMenu())
	headerBar.PackEnd(menuButton)

	contentBox := gtk.NewBox(gtk.OrientationVertical, 0)

	w.statusDisplay = NewStatusDisplay()
	contentBox.Append(w.statusDisplay.Widget())
	contentBox.Append(gtk.NewSeparator(gtk.OrientationHorizontal))
	contentBox.Append(w.deps.Readout.Widget())

	inputsPage := adw.NewPreferencesPage()
	inputsGroup := adw.NewPreferencesGroup()
	inputsGroup.SetTitle("Inputs")
	inputsGroup.SetDescription("Conditions that decide whether the meter runs")

	for _, sw := range inputSwitches {
		sw := sw
		row := adw.NewSwitchRow()
		row.SetTitle(sw.title)
		if sw.subtitle != "" {
			row.SetSubtitle(sw.subtitle)
		}
		row.NotifyProperty("active", func() {
			if w.syncing {
				return
			}
			w.sendInput(sw.kind, row.Active())
		})
		w.inputRows[sw.kind] = row
		inputsGroup.Add(row)
	}

	inputsPage.Add(inputsGroup)
	inputsPage.SetVExpand(true)
	contentBox.Append(inputsPage)

	toolbarView := adw.NewToolbarView()
	toolbarView.AddTopBar(headerBar)
	toolbarView.SetContent(contentBox)

	w.window.SetContent(toolbarView)
}

// createMainMenu creates the application menu model.
func (w *MainWindow) createMainMenu() *gio.Menu {
	menu := gio.NewMenu()
	menu.Append("Preferences", "app.preferences")
	menu.Append("About", "app.about")
	menu.Append("Quit", "app.quit")
	return menu
}

// sendInput delivers an input change off the main loop; the meter may be
// rendering into the readout at the same time.
func (w *MainWindow) sendInput(kind meter.EventKind, on bool) {
	ctrl := w.deps.Controller
	go func() {
		err := ctrl.Handle(meter.InputEvent(kind, on))
		if err != nil {
			slog.Error("Failed to deliver input", "kind", kind, "error", err)
		}
		status := ctrl.Status()
		glib.IdleAdd(func() {
			w.SyncStatus(status)
			if w.onEventHandled != nil {
				w.onEventHandled(err)
			}
		})
	}()
}

// SyncStatus updates the status display and input switches. Must be called on the main loop.
func (w *MainWindow) SyncStatus(st meter.Status) {
	w.statusDisplay.SetStatus(st)

	w.syncing = true
	defer func() { w.syncing = false }()
	for _, sw := range inputSwitches {
		if row, ok := w.inputRows[sw.kind]; ok {
			row.SetActive(sw.get(st.Inputs))
		}
	}
}

// OnEventHandled registers a callback run on the main loop after an input switch was delivered.
func (w *MainWindow) OnEventHandled(callback func(err error)) {
	w.onEventHandled = callback
}

// Present shows the window.
func (w *MainWindow) Present() {
	w.window.Present()
}
