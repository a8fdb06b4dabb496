package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/logging"
	"github.com/shini4i/trafficmeter/internal/meter"
	"github.com/shini4i/trafficmeter/internal/service"
	"github.com/shini4i/trafficmeter/internal/stats"
	"github.com/shini4i/trafficmeter/internal/tray"
	"github.com/shini4i/trafficmeter/internal/tui"
)

const (
	sinkTUI    = "tui"
	sinkTray   = "tray"
	sinkStdout = "stdout"
)

type runOptions struct {
	policy    string
	sink      string
	config    string
	dbus      bool
	noControl bool
	attached  bool
	screen    bool
	connected bool
	logFile   string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a traffic meter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeter(cmd.Context(), opts)
		},
	}
	opts.bindFlags(cmd)

	return cmd
}

func (o *runOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.policy, "policy", string(meter.PolicySimple), "Readout policy (simple, omni)")
	cmd.Flags().StringVar(&o.sink, "sink", sinkStdout, "Where to render (tui, tray, stdout)")
	cmd.Flags().StringVar(&o.config, "config", "", "Config file, .json or .yaml (default: $XDG_CONFIG_HOME/trafficmeter/config.json)")
	cmd.Flags().BoolVar(&o.dbus, "dbus", false, "Follow NetworkManager and the screensaver over D-Bus")
	cmd.Flags().BoolVar(&o.noControl, "no-control", false, "Do not open the control socket")
	cmd.Flags().BoolVar(&o.attached, "attached", true, "Start with the readout attached")
	cmd.Flags().BoolVar(&o.screen, "screen", true, "Start with the screen on (ignored with --dbus)")
	cmd.Flags().BoolVar(&o.connected, "connected", true, "Start with the network connected (ignored with --dbus)")
	cmd.Flags().StringVar(&o.logFile, "log-file", "", "Write logs to this file (the tui sink discards logs otherwise)")
}

func (o *runOptions) validate() (meter.PolicyKind, error) {
	policy := meter.PolicyKind(o.policy)
	switch policy {
	case meter.PolicySimple, meter.PolicyOmni:
	default:
		return "", fmt.Errorf("unknown policy %q: want simple or omni", o.policy)
	}
	switch o.sink {
	case sinkTUI, sinkTray, sinkStdout:
	default:
		return "", fmt.Errorf("unknown sink %q: want tui, tray or stdout", o.sink)
	}
	return policy, nil
}

func (o *runOptions) serviceOptions(policy meter.PolicyKind) service.Options {
	return service.Options{
		ConfigPath:     o.config,
		Policy:         policy,
		SocketPath:     socketPath,
		DisableControl: o.noControl,
		DBus:           o.dbus,
	}
}

// initialEvents seeds the gate inputs that no running source reports.
// With --dbus the screen and connectivity come from the bus instead.
func (o *runOptions) initialEvents() []meter.Event {
	events := []meter.Event{meter.InputEvent(meter.EventAttached, o.attached)}
	if !o.dbus {
		events = append(events,
			meter.InputEvent(meter.EventScreen, o.screen),
			meter.InputEvent(meter.EventConnectivity, o.connected),
		)
	}
	return events
}

// setupLogging routes logs away from the terminal when it is drawn by the TUI.
func (o *runOptions) setupLogging() (io.Closer, error) {
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logging.SetupWriter(f)
		return f, nil
	}
	if o.sink == sinkTUI {
		logging.SetupWriter(io.Discard)
		return nil, nil
	}
	logging.SetupFromEnv()
	return nil, nil
}

func runMeter(ctx context.Context, opts *runOptions) error {
	policy, err := opts.validate()
	if err != nil {
		return err
	}

	closer, err := opts.setupLogging()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch opts.sink {
	case sinkTUI:
		return runTUI(ctx, opts, policy)
	case sinkTray:
		return runTray(ctx, opts, policy)
	default:
		return runStdout(ctx, opts, policy)
	}
}

// startService creates and starts the service and seeds its inputs.
func startService(ctx context.Context, opts *runOptions, policy meter.PolicyKind, sink meter.Sink) (*service.Service, error) {
	svc, err := service.New(opts.serviceOptions(policy), sink)
	if err != nil {
		return nil, err
	}
	if err := svc.Start(ctx); err != nil {
		svc.Shutdown()
		return nil, err
	}
	for _, ev := range opts.initialEvents() {
		if err := svc.Handle(ev); err != nil {
			slog.Warn("Failed to seed input", "kind", ev.Kind, "error", err)
		}
	}
	if !svc.Status().Running {
		slog.Info("Traffic meter waiting for inputs", "inputs", svc.Status().Inputs)
	}
	return svc, nil
}

func runStdout(ctx context.Context, opts *runOptions, policy meter.PolicyKind) error {
	svc, err := startService(ctx, opts, policy, newLineSink(os.Stdout))
	if err != nil {
		return err
	}
	defer svc.Shutdown()

	<-ctx.Done()
	return nil
}

func runTUI(ctx context.Context, opts *runOptions, policy meter.PolicyKind) error {
	sink := tui.NewSink()
	svc, err := startService(ctx, opts, policy, sink)
	if err != nil {
		return err
	}
	defer svc.Shutdown()

	p := tea.NewProgram(tui.New(svc), tea.WithAltScreen(), tea.WithContext(ctx))

	sinkCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sink.Run(sinkCtx, p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

func runTray(ctx context.Context, opts *runOptions, policy meter.PolicyKind) error {
	sink := tray.New()
	svc, err := startService(ctx, opts, policy, sink)
	if err != nil {
		return err
	}
	defer svc.Shutdown()

	if err := sink.OnSpeedUnit(func() { toggleSpeedUnit(svc) }); err != nil {
		return err
	}
	if err := sink.OnQuit(sink.Quit); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		sink.Quit()
	}()

	return sink.Run()
}

// toggleSpeedUnit flips the Omni readout between bytes and bits per second.
func toggleSpeedUnit(svc *service.Service) {
	unit := stats.UnitBits
	if svc.Config().OmniSpeedUnit == stats.UnitBits {
		unit = stats.UnitBytes
	}
	if err := svc.Handle(meter.ConfigEvent(config.Update{OmniSpeedUnit: &unit})); err != nil {
		slog.Error("Failed to change speed unit", "error", err)
	}
}
