package ui

import (
	"log/slog"
	"sync/atomic"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
)

// NotificationType identifies the type of notification to display.
type NotificationType int

const (
	// NotifyMeterStarted indicates the meter began sampling.
	NotifyMeterStarted NotificationType = iota
	// NotifyMeterStopped indicates the meter stopped sampling.
	NotifyMeterStopped
	// NotifyConfigRejected indicates a settings change was refused.
	NotifyConfigRejected
)

// Notifier manages desktop notifications for meter events.
// All methods are safe for concurrent access.
type Notifier struct {
	app     *adw.Application
	enabled atomic.Bool
}

// NewNotifier creates a new notification manager.
// The app parameter should be a GTK Application that supports sending notifications.
func NewNotifier(app *adw.Application) *Notifier {
	n := &Notifier{
		app: app,
	}
	n.enabled.Store(true)
	return n
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.enabled.Load()
}

// notificationContent returns the title, body and icon for a notification.
// ok is false for unknown types.
func notificationContent(notifyType NotificationType, detail string) (title, body, icon string, ok bool) {
	switch notifyType {
	case NotifyMeterStarted:
		return "Traffic Meter Running", detail, "network-transmit-receive-symbolic", true
	case NotifyMeterStopped:
		return "Traffic Meter Stopped", detail, "network-offline-symbolic", true
	case NotifyConfigRejected:
		return "Settings Not Applied", detail, "dialog-error-symbolic", true
	default:
		return "", "", "", false
	}
}

// Notify sends a desktop notification.
// This method is safe to call from any goroutine - GTK operations are
// dispatched to the main thread via glib.IdleAdd().
func (n *Notifier) Notify(notifyType NotificationType, detail string) {
	if !n.enabled.Load() || n.app == nil {
		return
	}

	title, body, icon, ok := notificationContent(notifyType, detail)
	if !ok {
		return
	}

	// Dispatch GTK operations to main thread - GTK is not thread-safe
	glib.IdleAdd(func() {
		notification := gio.NewNotification(title)
		notification.SetBody(body)
		notification.SetIcon(gio.NewThemedIcon(icon))

		// A single ID so notifications replace each other
		n.app.SendNotification("meter-status", notification)

		slog.Debug("Notification sent", "title", title, "body", body)
	})
}
