// Package main provides the entry point for the GTK4/libadwaita traffic meter.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shini4i/trafficmeter/internal/logging"
	"github.com/shini4i/trafficmeter/internal/meter"
	"github.com/shini4i/trafficmeter/internal/ui"
)

func main() {
	cfg := &ui.AppConfig{}
	var policy string

	rootCmd := &cobra.Command{
		Use:          "trafficmeter-gtk",
		Short:        "Live network traffic readout for the desktop",
		Version:      ui.Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Policy = meter.PolicyKind(policy)
			if cfg.Policy != meter.PolicySimple && cfg.Policy != meter.PolicyOmni {
				return fmt.Errorf("unknown policy %q: want simple or omni", policy)
			}

			logging.SetupFromEnv()

			// Flags are consumed here; GTK only sees the program name.
			if code := ui.NewApp(cfg).Run(os.Args[:1]); code > 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&policy, "policy", string(meter.PolicyOmni), "Readout policy (simple, omni)")
	rootCmd.Flags().StringVar(&cfg.ConfigPath, "config", "", "Config file, .json or .yaml")
	rootCmd.Flags().StringVar(&cfg.SocketPath, "socket", "", "Control socket path")
	rootCmd.Flags().BoolVar(&cfg.DBus, "dbus", true, "Follow NetworkManager and the screensaver over D-Bus")
	rootCmd.Flags().BoolVar(&cfg.Tray, "tray", true, "Also show the readout in the system tray")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
