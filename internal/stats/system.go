package stats

import (
	"log/slog"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// ioCountersFunc matches gopsutil's net.IOCounters.
type ioCountersFunc func(pernic bool) ([]psnet.IOCountersStat, error)

// SystemBackend reads counters through the operating system's network statistics API.
type SystemBackend struct {
	ioCounters ioCountersFunc
}

// NewSystemBackend creates a backend backed by gopsutil.
func NewSystemBackend() *SystemBackend {
	return &SystemBackend{ioCounters: psnet.IOCounters}
}

// Read sums per-interface totals over countable interfaces.
// Failures are logged at debug level and reported as zero counters.
func (b *SystemBackend) Read() ByteCounters {
	perNIC, err := b.ioCounters(true)
	if err != nil {
		slog.Debug("Failed to read system network counters", "error", err)
		return ByteCounters{}
	}

	var total ByteCounters
	for _, nic := range perNIC {
		if !IsCountable(nic.Name) {
			continue
		}
		total.Rx += nic.BytesRecv
		total.Tx += nic.BytesSent
	}
	return total
}
