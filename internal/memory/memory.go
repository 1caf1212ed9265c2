// Package memory enforces the heap ceiling shared by both search levels.
package memory

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

const (
	// DefaultLimitMB is the ceiling used when none is configured.
	DefaultLimitMB = 2048
	// CheckInterval is how many loop iterations pass between samples.
	CheckInterval = 128
)

// ErrInvalidLimit is returned for a ceiling that is not a positive number.
var ErrInvalidLimit = errors.New("memory limit must be a positive number of megabytes")

// Probe reports the current live heap in bytes.
type Probe func() uint64

// HeapProbe reads HeapAlloc from the runtime.
func HeapProbe() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Limit is a heap ceiling. A nil *Limit never trips. Limits are safe for
// concurrent use by several searches.
type Limit struct {
	maxBytes uint64
	probe    Probe
	peak     atomic.Uint64
}

// NewLimit returns a ceiling of megabytes MB sampled with probe
// (HeapProbe when nil).
func NewLimit(megabytes float64, probe Probe) (*Limit, error) {
	if math.IsNaN(megabytes) || math.IsInf(megabytes, 0) || megabytes <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLimit, megabytes)
	}
	if probe == nil {
		probe = HeapProbe
	}
	return &Limit{maxBytes: uint64(megabytes * 1024 * 1024), probe: probe}, nil
}

// Exceeded samples the heap and reports whether it is above the ceiling.
func (l *Limit) Exceeded() (uint64, bool) {
	if l == nil {
		return 0, false
	}
	used := l.probe()
	for {
		peak := l.peak.Load()
		if used <= peak || l.peak.CompareAndSwap(peak, used) {
			break
		}
	}
	return used, used > l.maxBytes
}

// Check samples on every CheckInterval-th iteration, starting with 0.
func (l *Limit) Check(iteration int) (uint64, bool) {
	if l == nil || iteration%CheckInterval != 0 {
		return 0, false
	}
	return l.Exceeded()
}

// MaxBytes returns the ceiling in bytes.
func (l *Limit) MaxBytes() uint64 {
	if l == nil {
		return math.MaxUint64
	}
	return l.maxBytes
}

// Peak returns the largest sample seen so far.
func (l *Limit) Peak() uint64 {
	if l == nil {
		return 0
	}
	return l.peak.Load()
}

func (l *Limit) String() string {
	if l == nil {
		return "unlimited"
	}
	return humanize.IBytes(l.maxBytes)
}
