package stats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultTablePath is the per-interface statistics table exposed by the
// xt_qtaguid netfilter module.
const DefaultTablePath = "/proc/net/xt_qtaguid/iface_stat_fmt"

// maxTableSize bounds a single table read so a sampling tick never blocks on a runaway file.
const maxTableSize = 64 * 1024

var (
	// ErrShortLine is returned when a table line does not carry both rx and tx columns.
	ErrShortLine = errors.New("interface stats line has fewer than 4 fields")
	// ErrTableTooLarge is returned when the table exceeds maxTableSize. The
	// truncated tail could end mid-number, so the read is discarded.
	ErrTableTooLarge = errors.New("interface stats table too large")
)

// IsParseError reports whether err concerns the table content rather than
// access to it. Such errors spoil a single read only.
func IsParseError(err error) bool {
	return errors.Is(err, ErrShortLine) || errors.Is(err, ErrTableTooLarge)
}

// TableBackend reads counters from a line-oriented interface statistics table.
// Each line is "<ifname> <rx_bytes> <rx_packets> <tx_bytes> ...".
type TableBackend struct {
	path string
}

// NewTableBackend creates a backend for the table at path.
// If path is empty, DefaultTablePath is used.
func NewTableBackend(path string) *TableBackend {
	if path == "" {
		path = DefaultTablePath
	}
	return &TableBackend{path: path}
}

// Path returns the table location.
func (b *TableBackend) Path() string {
	return b.path
}

// Available reports whether the table exists and can be opened for reading.
func (b *TableBackend) Available() bool {
	f, err := os.Open(b.path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// Read sums rx and tx over all countable interfaces in the table.
// Malformed or oversized content yields an error for which IsParseError is
// true; any other error is an I/O failure.
func (b *TableBackend) Read() (ByteCounters, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return ByteCounters{}, fmt.Errorf("open interface stats: %w", err)
	}
	defer func() { _ = f.Close() }()

	// One byte past the limit tells a full table from a truncated one.
	data, err := io.ReadAll(io.LimitReader(f, maxTableSize+1))
	if err != nil {
		return ByteCounters{}, fmt.Errorf("read interface stats: %w", err)
	}
	if len(data) > maxTableSize {
		return ByteCounters{}, fmt.Errorf("%w: more than %d bytes", ErrTableTooLarge, maxTableSize)
	}

	return ParseTable(bytes.NewReader(data))
}

// ParseTable sums the rx (field 2) and tx (field 4) columns of every countable interface.
// Blank lines are ignored. Numeric fields that fail to parse count as zero.
func ParseTable(r io.Reader) (ByteCounters, error) {
	var total ByteCounters

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 4 {
			return ByteCounters{}, fmt.Errorf("line %d: %w", lineNo, ErrShortLine)
		}
		if !IsCountable(fields[0]) {
			continue
		}
		total.Rx += parseCounter(fields[1])
		total.Tx += parseCounter(fields[3])
	}
	if err := scanner.Err(); err != nil {
		return ByteCounters{}, fmt.Errorf("scan interface stats: %w", err)
	}

	return total, nil
}

func parseCounter(field string) uint64 {
	v, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
