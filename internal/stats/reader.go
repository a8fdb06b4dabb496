package stats

import (
	"log/slog"
	"sync"
)

// Backend identifies the counter source a Reader has settled on.
type Backend string

const (
	// BackendTable reads the per-interface statistics table.
	BackendTable Backend = "table"
	// BackendSystem queries the operating system's aggregate counters.
	BackendSystem Backend = "system"
)

// Reader is a CounterSource that prefers the statistics table and falls back to the
// system API. The table is probed once; after the first I/O failure the Reader uses
// the system backend for the rest of its life. It is safe for concurrent use.
type Reader struct {
	table  *TableBackend
	system CounterSource

	mu      sync.Mutex
	probed  bool
	backend Backend
}

// NewReader creates a Reader over the given backends.
func NewReader(table *TableBackend, system CounterSource) *Reader {
	return &Reader{
		table:  table,
		system: system,
	}
}

// NewDefaultReader creates a Reader for the table at tablePath backed by gopsutil.
func NewDefaultReader(tablePath string) *Reader {
	return NewReader(NewTableBackend(tablePath), NewSystemBackend())
}

// Backend returns the backend selected for subsequent reads, probing if necessary.
func (r *Reader) Backend() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probeLocked()
	return r.backend
}

// Read returns the current cumulative counters.
func (r *Reader) Read() ByteCounters {
	if r.Backend() == BackendSystem {
		return r.system.Read()
	}

	counters, err := r.table.Read()
	if err == nil {
		return counters
	}

	if IsParseError(err) {
		slog.Debug("Malformed interface stats, using system counters for this read", "path", r.table.Path(), "error", err)
		return r.system.Read()
	}

	r.mu.Lock()
	r.backend = BackendSystem
	r.mu.Unlock()
	slog.Warn("Interface stats table unreadable, switching to system counters", "path", r.table.Path(), "error", err)

	return r.system.Read()
}

func (r *Reader) probeLocked() {
	if r.probed {
		return
	}
	r.probed = true

	if r.table != nil && r.table.Available() {
		r.backend = BackendTable
	} else {
		r.backend = BackendSystem
	}
	slog.Debug("Counter backend selected", "backend", r.backend)
}
