// trafficmeter shows the live network transfer rate and controls a running meter.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	socketPath string
	outputJSON bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trafficmeter",
		Short: "Live network traffic meter",
		Long: `trafficmeter samples the system's cumulative network byte counters
and renders the transfer rate as a compact readout. A running meter
listens on a control socket for events, settings and status queries.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Control socket path (default: $XDG_RUNTIME_DIR/trafficmeter.sock)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(newRunCmd(), newSendCmd(), newSetCmd(), newStatusCmd(), newWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
