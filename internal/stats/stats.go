// Package stats reads cumulative network byte counters and formats traffic rates.
package stats

import (
	"strings"
	"time"
)

// ByteCounters is a snapshot of cumulative received and transmitted bytes
// summed over all countable interfaces since boot (or the last counter reset).
type ByteCounters struct {
	// Rx is the total number of bytes received.
	Rx uint64
	// Tx is the total number of bytes transmitted.
	Tx uint64
}

// Sample is a counter reading tagged with the time it was taken.
// At must come from a monotonic clock so that consecutive samples strictly increase.
type Sample struct {
	Counters ByteCounters
	At       time.Time
}

// CounterSource provides cumulative byte counters.
// Read never fails; a source that cannot obtain counters returns its best effort.
type CounterSource interface {
	Read() ByteCounters
}

const (
	// headerSentinel is the interface name used by the table header line.
	headerSentinel = "ifname"
	// loopbackName is the loopback interface, which never carries real traffic.
	loopbackName = "lo"
	// tunnelPrefix marks tunnel interfaces whose traffic is already counted on the
	// underlying physical interface.
	tunnelPrefix = "tun"
)

// IsCountable reports whether traffic on the named interface contributes to totals.
func IsCountable(name string) bool {
	if name == "" || name == headerSentinel || name == loopbackName {
		return false
	}
	return !strings.HasPrefix(name, tunnelPrefix)
}
