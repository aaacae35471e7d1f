// Package diag samples process memory for the status bar. Nothing in the
// ingestion path depends on it.
package diag

import (
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats is one memory sample.
type Stats struct {
	HeapAlloc  uint64
	HeapInuse  uint64
	Sys        uint64
	NumGC      uint32
	Goroutines int
	SampledAt  time.Time
}

// Sample reads the current runtime memory statistics.
func Sample() Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Stats{
		HeapAlloc:  ms.HeapAlloc,
		HeapInuse:  ms.HeapInuse,
		Sys:        ms.Sys,
		NumGC:      ms.NumGC,
		Goroutines: runtime.NumGoroutine(),
		SampledAt:  time.Now(),
	}
}

// String formats the sample for a one-line readout, e.g. "heap 3.2 MiB".
func (s Stats) String() string {
	return "heap " + humanize.IBytes(s.HeapAlloc)
}

// Detail is the longer form used in the help overlay.
func (s Stats) Detail() string {
	return "heap " + humanize.IBytes(s.HeapAlloc) +
		" / sys " + humanize.IBytes(s.Sys) +
		" / gc " + humanize.Comma(int64(s.NumGC)) +
		" / goroutines " + humanize.Comma(int64(s.Goroutines))
}
