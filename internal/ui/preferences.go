package ui

import (
	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/stats"
)

// Combo row options, in display order.
var (
	hideModeOptions  = []config.HideMode{config.HideNever, config.HideInactive, config.HideSummary}
	hideModeLabels   = []string{"Always visible", "Hide when idle", "Show burst summary"}
	modeOptions      = []config.Mode{config.ModeAlways, config.ModeOnDownload, config.ModeOnProgress}
	modeLabels       = []string{"Always", "While downloading", "While tracking progress"}
	directionOptions = []config.Direction{config.DirectionIn, config.DirectionOut, config.DirectionInOut}
	directionLabels  = []string{"Download", "Upload", "Both"}
)

// PreferencesWindow edits the display configuration.
type PreferencesWindow struct {
	window *adw.PreferencesWindow

	// Settings widgets
	hideModeRow   *adw.ComboRow
	summaryRow    *adw.SpinRow
	modeRow       *adw.ComboRow
	mobileOnlyRow *adw.SwitchRow
	directionRow  *adw.ComboRow
	showIconRow   *adw.SwitchRow
	autoHideRow   *adw.SwitchRow
	thresholdRow  *adw.SpinRow
	bitsRow       *adw.SwitchRow

	// Callbacks
	onChanged func(u config.Update)

	// Track previous state to detect changes
	prev config.DisplayConfig
}

// NewPreferencesWindow creates a new preferences window.
func NewPreferencesWindow(parent *MainWindow) *PreferencesWindow {
	pw := &PreferencesWindow{prev: *config.DefaultConfig()}
	pw.setupWindow(parent)
	return pw
}

// setupWindow creates the preferences window UI.
func (pw *PreferencesWindow) setupWindow(parent *MainWindow) {
	pw.window = adw.NewPreferencesWindow()
	pw.window.SetTitle("Preferences")
	pw.window.SetModal(true)
	pw.window.SetDefaultSize(440, 520)

	// Set transient parent
	if parent != nil && parent.window != nil {
		pw.window.SetTransientFor(&parent.window.Window)
	}

	page := adw.NewPreferencesPage()
	page.SetTitle("Readout")
	page.SetIconName("network-transmit-receive-symbolic")

	// Visibility group
	visibilityGroup := adw.NewPreferencesGroup()
	visibilityGroup.SetTitle("Visibility")
	visibilityGroup.SetDescription("When the meter runs and when the readout is shown")

	pw.modeRow = newComboRow("Run", modeLabels)
	visibilityGroup.Add(pw.modeRow)

	pw.mobileOnlyRow = adw.NewSwitchRow()
	pw.mobileOnlyRow.SetTitle("Mobile Data Only")
	pw.mobileOnlyRow.SetSubtitle("Run only while connected over mobile data")
	visibilityGroup.Add(pw.mobileOnlyRow)

	pw.hideModeRow = newComboRow("Simple Readout", hideModeLabels)
	visibilityGroup.Add(pw.hideModeRow)

	pw.summaryRow = adw.NewSpinRowWithRange(0, 60000, 500)
	pw.summaryRow.SetTitle("Summary Duration (ms)")
	visibilityGroup.Add(pw.summaryRow)

	page.Add(visibilityGroup)

	// Omni group
	omniGroup := adw.NewPreferencesGroup()
	omniGroup.SetTitle("Omni Readout")

	pw.directionRow = newComboRow("Direction", directionLabels)
	omniGroup.Add(pw.directionRow)

	pw.showIconRow = adw.NewSwitchRow()
	pw.showIconRow.SetTitle("Show Direction Icon")
	omniGroup.Add(pw.showIconRow)

	pw.autoHideRow = adw.NewSwitchRow()
	pw.autoHideRow.SetTitle("Hide Below Threshold")
	omniGroup.Add(pw.autoHideRow)

	pw.thresholdRow = adw.NewSpinRowWithRange(0, 100000, 1)
	pw.thresholdRow.SetTitle("Threshold (KB/s)")
	omniGroup.Add(pw.thresholdRow)

	pw.bitsRow = adw.NewSwitchRow()
	pw.bitsRow.SetTitle("Bits per Second")
	omniGroup.Add(pw.bitsRow)

	page.Add(omniGroup)
	pw.window.Add(page)

	// Handle window close to trigger callbacks
	pw.window.ConnectCloseRequest(func() bool {
		pw.handleClose()
		return false // Allow close
	})
}

func newComboRow(title string, labels []string) *adw.ComboRow {
	row := adw.NewComboRow()
	row.SetTitle(title)
	row.SetModel(gtk.NewStringList(labels))
	return row
}

// handleClose reports the settings that changed while the window was open.
func (pw *PreferencesWindow) handleClose() {
	next := pw.prev
	next.HideMode = hideModeOptions[clampIndex(pw.hideModeRow.Selected(), len(hideModeOptions))]
	next.SummaryDurationMs = int(pw.summaryRow.Value())
	next.Mode = modeOptions[clampIndex(pw.modeRow.Selected(), len(modeOptions))]
	next.MobileOnly = pw.mobileOnlyRow.Active()
	next.OmniDirection = directionOptions[clampIndex(pw.directionRow.Selected(), len(directionOptions))]
	next.OmniShowIcon = pw.showIconRow.Active()
	next.OmniAutoHide = pw.autoHideRow.Active()
	next.OmniAutoHideThresholdKBps = int(pw.thresholdRow.Value())
	next.OmniSpeedUnit = stats.UnitBytes
	if pw.bitsRow.Active() {
		next.OmniSpeedUnit = stats.UnitBits
	}

	u := diffConfig(pw.prev, next)
	if !u.IsEmpty() && pw.onChanged != nil {
		pw.onChanged(u)
	}
}

// Present shows the preferences window.
func (pw *PreferencesWindow) Present() {
	pw.window.Present()
}

// SetConfig loads cfg into the widgets.
func (pw *PreferencesWindow) SetConfig(cfg config.DisplayConfig) {
	pw.prev = cfg

	pw.hideModeRow.SetSelected(uint(indexOf(hideModeOptions, cfg.HideMode)))
	pw.summaryRow.SetValue(float64(cfg.SummaryDurationMs))
	pw.modeRow.SetSelected(uint(indexOf(modeOptions, cfg.Mode)))
	pw.mobileOnlyRow.SetActive(cfg.MobileOnly)
	pw.directionRow.SetSelected(uint(indexOf(directionOptions, cfg.OmniDirection)))
	pw.showIconRow.SetActive(cfg.OmniShowIcon)
	pw.autoHideRow.SetActive(cfg.OmniAutoHide)
	pw.thresholdRow.SetValue(float64(cfg.OmniAutoHideThresholdKBps))
	pw.bitsRow.SetActive(cfg.OmniSpeedUnit == stats.UnitBits)
}

// OnChanged registers a callback receiving the settings changed on close.
func (pw *PreferencesWindow) OnChanged(callback func(u config.Update)) {
	pw.onChanged = callback
}

func indexOf[T comparable](options []T, v T) int {
	for i, o := range options {
		if o == v {
			return i
		}
	}
	return 0
}

func clampIndex(selected uint, n int) int {
	if int(selected) >= n {
		return 0
	}
	return int(selected)
}

// diffConfig returns an update carrying the editable settings that differ
// between prev and next.
func diffConfig(prev, next config.DisplayConfig) config.Update {
	var u config.Update
	if next.HideMode != prev.HideMode {
		u.HideMode = &next.HideMode
	}
	if next.SummaryDurationMs != prev.SummaryDurationMs {
		u.SummaryDurationMs = &next.SummaryDurationMs
	}
	if next.Mode != prev.Mode {
		u.Mode = &next.Mode
	}
	if next.MobileOnly != prev.MobileOnly {
		u.MobileOnly = &next.MobileOnly
	}
	if next.OmniDirection != prev.OmniDirection {
		u.OmniDirection = &next.OmniDirection
	}
	if next.OmniShowIcon != prev.OmniShowIcon {
		u.OmniShowIcon = &next.OmniShowIcon
	}
	if next.OmniAutoHide != prev.OmniAutoHide {
		u.OmniAutoHide = &next.OmniAutoHide
	}
	if next.OmniAutoHideThresholdKBps != prev.OmniAutoHideThresholdKBps {
		u.OmniAutoHideThresholdKBps = &next.OmniAutoHideThresholdKBps
	}
	if next.OmniSpeedUnit != prev.OmniSpeedUnit {
		u.OmniSpeedUnit = &next.OmniSpeedUnit
	}
	return u
}
