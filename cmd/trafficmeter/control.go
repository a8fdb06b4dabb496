package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/control/client"
	"github.com/shini4i/trafficmeter/internal/control/protocol"
	"github.com/shini4i/trafficmeter/internal/meter"
)

func dial() (*client.Client, error) {
	var (
		c   *client.Client
		err error
	)
	if socketPath == "" {
		c, err = client.New()
	} else {
		c, err = client.NewWithPath(socketPath)
	}
	if errors.Is(err, client.ErrMeterNotAvailable) {
		return nil, fmt.Errorf("%w (is \"trafficmeter run\" running?)", err)
	}
	return c, err
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), client.DefaultTimeout)
}

func newSendCmd() *cobra.Command {
	var (
		colorFlag string
		alphaFlag float64
	)

	cmd := &cobra.Command{
		Use:   "send KIND [on|off]",
		Short: "Send an event to a running meter",
		Long: `Send an event to a running meter.

Input events (attached, screen, connectivity, download, progress,
mobile_data) and tint take on or off. color takes --color and alpha
takes --alpha.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := eventParams(args, colorFlag, alphaFlag)
			if err != nil {
				return err
			}

			c, err := dial()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := requestContext()
			defer cancel()

			status, err := c.SendEvent(ctx, params)
			if err != nil {
				return err
			}
			return printStatus(status)
		},
	}

	cmd.Flags().StringVar(&colorFlag, "color", "", "Tint color as #rrggbb (color events)")
	cmd.Flags().Float64Var(&alphaFlag, "alpha", 1, "Opacity between 0 and 1 (alpha events)")
	return cmd
}

// eventParams builds the wire params for "send KIND [on|off]".
func eventParams(args []string, colorFlag string, alpha float64) (protocol.EventParams, error) {
	kind, err := meter.ParseEventKind(args[0])
	if err != nil {
		return protocol.EventParams{}, err
	}
	params := protocol.EventParams{Kind: string(kind)}

	switch {
	case kind.IsInput() || kind == meter.EventTint:
		if len(args) != 2 {
			return protocol.EventParams{}, fmt.Errorf("%s takes on or off", kind)
		}
		params.On, err = parseSwitch(args[1])
		if err != nil {
			return protocol.EventParams{}, err
		}
	case kind == meter.EventColor:
		if colorFlag == "" {
			return protocol.EventParams{}, fmt.Errorf("color requires --color")
		}
		params.Color = colorFlag
	case kind == meter.EventAlpha:
		params.Alpha = alpha
	default:
		return protocol.EventParams{}, fmt.Errorf("%s cannot be sent, use \"trafficmeter set\"", kind)
	}
	return params, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid value %q: want on or off", s)
	}
	return v, nil
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY=VALUE...",
		Short: "Change display settings of a running meter",
		Example: `  trafficmeter set hide_mode=summary summary_duration_ms=5000
  trafficmeter set omni_direction=out omni_speed_unit=bits`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := config.ParseAssignments(args)
			if err != nil {
				return err
			}

			c, err := dial()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := requestContext()
			defer cancel()

			cfg, err := c.ApplyConfig(ctx, update)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s\n", strings.Join(update.Keys(), ", "))
			if outputJSON {
				return printJSON(cfg)
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running meter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := requestContext()
			defer cancel()

			result, err := c.Status(ctx)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(result)
			}
			fmt.Print(formatStatus(result))
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the readout of a running meter as it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			lines := newLineSink(os.Stdout)
			frames := make(chan protocol.FrameData, 16)
			c.OnFrame(func(frame protocol.FrameData) {
				select {
				case frames <- frame:
				default:
				}
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-c.Done():
					return fmt.Errorf("meter closed the connection")
				case frame := <-frames:
					lines.show(frame.Text, frame.Visible)
				}
			}
		},
	}
}

func printStatus(st *meter.Status) error {
	if outputJSON {
		return printJSON(st)
	}
	fmt.Print(formatMeterStatus(*st))
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatMeterStatus(st meter.Status) string {
	var b strings.Builder
	state := "stopped"
	if st.Running {
		state = "running"
	}
	fmt.Fprintf(&b, "Meter:    %s (%s policy, %s)\n", st.ID, st.Policy, state)
	if st.Backend != "" {
		fmt.Fprintf(&b, "Backend:  %s\n", st.Backend)
	}
	readout := "(hidden)"
	if st.Visible {
		readout = strings.ReplaceAll(st.Text, "\n", " | ")
	}
	fmt.Fprintf(&b, "Readout:  %s\n", readout)

	in := st.Inputs
	fmt.Fprintf(&b, "Inputs:   attached=%s screen=%s connectivity=%s download=%s progress=%s mobile_data=%s\n",
		onOff(in.Attached), onOff(in.ScreenOn), onOff(in.Connected),
		onOff(in.DownloadActive), onOff(in.ProgressTracking), onOff(in.MobileDataConnected))
	return b.String()
}

func formatStatus(result *protocol.StatusResult) string {
	cfg := result.Config
	var b strings.Builder
	b.WriteString(formatMeterStatus(result.Meter))
	fmt.Fprintf(&b, "Settings: mode=%s mobile_only=%t hide_mode=%s summary=%s\n",
		cfg.Mode, cfg.MobileOnly, cfg.HideMode, cfg.SummaryDuration().Round(time.Millisecond))
	if result.Meter.Policy == meter.PolicyOmni {
		fmt.Fprintf(&b, "Omni:     direction=%s unit=%s icon=%t autohide=%t threshold=%dKB/s\n",
			cfg.OmniDirection, cfg.OmniSpeedUnit, cfg.OmniShowIcon, cfg.OmniAutoHide, cfg.OmniAutoHideThresholdKBps)
	}
	return b.String()
}
