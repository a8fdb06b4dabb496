package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Binary unit multipliers (1024-based).
	kib = 1024
	mib = kib * 1024

	// maxDisplayValue caps the numeric part of a speed at three integer digits.
	maxDisplayValue = 999.9
)

// SpeedUnit selects whether speeds are rendered in bytes or bits per second.
type SpeedUnit string

const (
	// UnitBytes renders speeds in bytes per second with 1024-based magnitudes.
	UnitBytes SpeedUnit = "bytes"
	// UnitBits renders speeds in bits per second with 1000-based magnitudes.
	UnitBits SpeedUnit = "bits"
)

// FormatRate formats a rate for the compact readout.
// Byte rates use the fixed breakpoint table (e.g. "500KB/s", "1.5MB/s");
// bit rates are delegated to FormatSpeed.
func FormatRate(bytesPerSec int64, asBits bool) string {
	if asBits {
		return FormatSpeed(bytesPerSec, UnitBits)
	}
	return formatBytes(bytesPerSec) + "/s"
}

// FormatTotal formats a byte total with the same breakpoints as FormatRate,
// wrapped in parentheses, e.g. "(3.2MB)".
func FormatTotal(bytes int64) string {
	return "(" + formatBytes(bytes) + ")"
}

func formatBytes(b int64) string {
	if b < 0 {
		b = 0
	}

	switch {
	case b > 10*mib:
		return fmt.Sprintf("%dMB", b/mib)
	case b > mib:
		return fmt.Sprintf("%.1fMB", float64(b)/float64(mib))
	case b > 10*kib:
		return fmt.Sprintf("%dKB", b/kib)
	case b > kib:
		return fmt.Sprintf("%.1fKB", float64(b)/float64(kib))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// FormatSpeed formats a speed picking the smallest magnitude (none, k, M, G) the
// value fits under. Bits use powers of 1000, bytes powers of 1024. The number has
// at most one decimal place, without a trailing ".0", and at most three integer
// digits: a value that would round to 1000 or more moves up a magnitude, so
// 1000B/s renders as "1kB/s". Only the G magnitude is clamped to 999.9.
func FormatSpeed(bytesPerSec int64, unit SpeedUnit) string {
	if bytesPerSec < 0 {
		bytesPerSec = 0
	}

	speed := float64(bytesPerSec)
	step := float64(kib)
	symbol := "B/s"
	if unit == UnitBits {
		speed *= 8
		step = 1000
		symbol = "b/s"
	}

	for i, prefix := range speedPrefixes {
		if i == len(speedPrefixes)-1 {
			break
		}
		if roundTenth(speed) < 1000 {
			return formatDecimal(speed) + prefix + symbol
		}
		speed /= step
	}
	return formatDecimal(math.Min(speed, maxDisplayValue)) + speedPrefixes[len(speedPrefixes)-1] + symbol
}

var speedPrefixes = []string{"", "k", "M", "G"}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatDecimal(v float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(v, 'f', 1, 64), ".0")
}
