// Package ui provides the GTK4/libadwaita user interface for the traffic meter.
package ui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/meter"
	"github.com/shini4i/trafficmeter/internal/service"
	"github.com/shini4i/trafficmeter/internal/stats"
	"github.com/shini4i/trafficmeter/internal/tray"
)

const (
	// AppID is the application identifier following reverse DNS notation.
	AppID = "com.github.shini4i.trafficmeter"
)

// Version is the application version, set at build time via ldflags.
var Version = "dev"

// App represents the main application controller.
// It manages the GTK application lifecycle and wires together all components.
type App struct {
	app    *adw.Application
	window *MainWindow
	tray   *tray.Sink

	service  *service.Service
	readout  *LabelSink
	notifier *Notifier
	opts     service.Options

	// lastStatus is the status seen by the previous observer call.
	statusMu   sync.Mutex
	lastStatus meter.Status

	ctx       context.Context
	ctxCancel context.CancelFunc
}

// AppConfig holds configuration for creating a new App instance.
type AppConfig struct {
	// ConfigPath is the display configuration file. Empty selects the XDG default.
	ConfigPath string
	// Policy selects the readout.
	Policy meter.PolicyKind
	// SocketPath is the control socket. Empty selects the default.
	SocketPath string
	// DBus follows NetworkManager and the screensaver.
	DBus bool
	// Tray also shows the readout in the system tray.
	Tray bool
}

// NewApp creates a new application instance with the given configuration.
// The meter itself is created on activation, once GTK is initialized.
func NewApp(cfg *AppConfig) *App {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		opts: service.Options{
			ConfigPath: cfg.ConfigPath,
			Policy:     cfg.Policy,
			SocketPath: cfg.SocketPath,
			DBus:       cfg.DBus,
		},
		ctx:       ctx,
		ctxCancel: cancel,
	}
	if cfg.Tray {
		app.tray = tray.New()
	}
	return app
}

// Run starts the GTK application and blocks until it exits.
// Returns the exit code from the GTK application.
func (a *App) Run(args []string) int {
	a.app = adw.NewApplication(AppID, gio.ApplicationFlagsNone)

	a.app.ConnectActivate(func() {
		a.onActivate()
	})

	a.app.ConnectShutdown(func() {
		a.onShutdown()
	})

	return a.app.Run(args)
}

// onActivate starts the meter on first activation and presents the window.
func (a *App) onActivate() {
	if a.service != nil {
		a.window.Present()
		return
	}

	if err := a.startService(); err != nil {
		slog.Error("Failed to start traffic meter", "error", err)
		a.app.Quit()
		return
	}

	a.registerActions()

	a.window = NewMainWindow(a.app, &MainWindowDeps{
		Controller:  a.service,
		Readout:     a.readout,
		HideOnClose: a.tray != nil,
	})

	if a.tray != nil {
		a.initTray()
		// Keep running with the window hidden.
		a.app.Hold()
	}
	a.window.Present()
}

func (a *App) startService() error {
	a.notifier = NewNotifier(a.app)
	a.readout = NewLabelSink()

	var sink meter.Sink = a.readout
	if a.tray != nil {
		sink = meter.MultiSink{a.readout, a.tray}
	}

	svc, err := service.New(a.opts, sink)
	if err != nil {
		return err
	}
	a.service = svc
	a.lastStatus = svc.Status()
	a.readout.SetPosition(svc.Config().Position)
	svc.OnStatus(a.onStatus)

	if err := svc.Start(a.ctx); err != nil {
		return err
	}

	go func() {
		for _, ev := range startupInputs(a.opts.DBus) {
			if err := svc.Handle(ev); err != nil {
				slog.Error("Failed to seed input", "kind", ev.Kind, "error", err)
			}
		}
	}()
	return nil
}

// startupInputs returns the inputs set when the window starts hosting the
// readout. Without D-Bus the screen and network are assumed up; the input
// switches in the window can change them.
func startupInputs(dbus bool) []meter.Event {
	events := []meter.Event{meter.InputEvent(meter.EventAttached, true)}
	if !dbus {
		events = append(events,
			meter.InputEvent(meter.EventScreen, true),
			meter.InputEvent(meter.EventConnectivity, true),
		)
	}
	return events
}

// onStatus runs after every handled event, on whichever goroutine delivered it.
func (a *App) onStatus(st meter.Status) {
	a.statusMu.Lock()
	prev := a.lastStatus
	a.lastStatus = st
	a.statusMu.Unlock()

	if notifyType, detail, ok := runningNotification(prev, st); ok {
		a.notifier.Notify(notifyType, detail)
	}

	// Config events, including those from the control socket, pass through here.
	a.readout.SetPosition(a.service.Config().Position)

	glib.IdleAdd(func() {
		if a.window != nil {
			a.window.SyncStatus(st)
		}
	})
}

// runningNotification returns the notification for a run/stop transition.
func runningNotification(prev, next meter.Status) (NotificationType, string, bool) {
	switch {
	case !prev.Running && next.Running:
		return NotifyMeterStarted, "Sampling network traffic with the " + string(next.Policy) + " readout", true
	case prev.Running && !next.Running:
		if missing := blockingInputs(next.Inputs); len(missing) > 0 {
			return NotifyMeterStopped, "Waiting for " + joinWords(missing), true
		}
		return NotifyMeterStopped, "The activity mode is not satisfied", true
	}
	return 0, "", false
}

func joinWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}
	out := words[0]
	for _, w := range words[1 : len(words)-1] {
		out += ", " + w
	}
	return out + " and " + words[len(words)-1]
}

// registerActions registers the application-level actions for menu items.
func (a *App) registerActions() {
	aboutAction := gio.NewSimpleAction("about", nil)
	aboutAction.ConnectActivate(func(param *glib.Variant) {
		a.ShowAboutDialog()
	})
	a.app.AddAction(aboutAction)

	prefsAction := gio.NewSimpleAction("preferences", nil)
	prefsAction.ConnectActivate(func(param *glib.Variant) {
		a.ShowPreferencesDialog()
	})
	a.app.AddAction(prefsAction)

	quitAction := gio.NewSimpleAction("quit", nil)
	quitAction.ConnectActivate(func(param *glib.Variant) {
		a.Quit()
	})
	a.app.AddAction(quitAction)

	a.registerAccelerators()
}

// registerAccelerators sets up keyboard shortcuts for common actions.
func (a *App) registerAccelerators() {
	a.app.SetAccelsForAction("app.quit", []string{"<Control>q"})
	a.app.SetAccelsForAction("app.preferences", []string{"<Control>comma"})
}

// Quit terminates the application gracefully.
func (a *App) Quit() {
	if a.app != nil {
		a.app.Quit()
	}
}

// ShowAboutDialog displays the application's about dialog.
func (a *App) ShowAboutDialog() {
	about := adw.NewAboutDialog()
	about.SetApplicationName("Traffic Meter")
	about.SetApplicationIcon("network-transmit-receive-symbolic")
	about.SetDeveloperName("shini4i")
	about.SetVersion(Version)
	about.SetWebsite("https://github.com/shini4i/trafficmeter")
	about.SetIssueURL("https://github.com/shini4i/trafficmeter/issues")
	about.SetLicenseType(gtk.LicenseGPL30)
	about.SetComments("A live network traffic readout")

	about.Present(a.window.window)
}

// ShowPreferencesDialog displays the display settings of the running meter.
func (a *App) ShowPreferencesDialog() {
	prefs := NewPreferencesWindow(a.window)
	prefs.SetConfig(a.service.Config())

	prefs.OnChanged(func(u config.Update) {
		go a.applyConfig(u)
	})

	prefs.Present()
}

func (a *App) applyConfig(u config.Update) {
	if err := a.service.Handle(meter.ConfigEvent(u)); err != nil {
		slog.Error("Failed to apply settings", "keys", u.Keys(), "error", err)
		a.notifier.Notify(NotifyConfigRejected, err.Error())
		return
	}
	slog.Info("Settings changed", "keys", u.Keys())
}

// toggleSpeedUnit flips the Omni readout between bytes and bits per second.
func (a *App) toggleSpeedUnit() {
	unit := stats.UnitBits
	if a.service.Config().OmniSpeedUnit == stats.UnitBits {
		unit = stats.UnitBytes
	}
	a.applyConfig(config.Update{OmniSpeedUnit: &unit})
}

// initTray registers the tray callbacks and starts the tray loop.
func (a *App) initTray() {
	// Errors are logged only; callbacks are always set before Run.
	if err := a.tray.OnSpeedUnit(func() {
		go a.toggleSpeedUnit()
	}); err != nil {
		slog.Error("Failed to register tray OnSpeedUnit callback", "error", err)
	}

	if err := a.tray.OnQuit(func() {
		glib.IdleAdd(func() {
			a.Quit()
		})
	}); err != nil {
		slog.Error("Failed to register tray OnQuit callback", "error", err)
	}

	go func() {
		if err := a.tray.Run(); err != nil {
			slog.Error("Tray icon error", "error", err)
		}
	}()
}

// onShutdown handles application shutdown, cleaning up resources.
func (a *App) onShutdown() {
	slog.Info("Application shutting down")

	if a.ctxCancel != nil {
		a.ctxCancel()
	}

	if a.service != nil {
		a.service.Shutdown()
	}

	if a.tray != nil {
		a.tray.Quit()
	}

	slog.Info("Shutdown complete")
}
