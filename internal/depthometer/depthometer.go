// Package depthometer implements a time-indexed wrapper over an
// NMEA-style depth field source: it snaps a requested timestamp to a
// validity window and averages the N samples collected around the
// snapped time, caching one scalar per (window, filter size, snapped
// time).
package depthometer

import (
	"fmt"
	"sync"

	"hydrocore/internal/cacheport"
	"hydrocore/internal/storeport"
)

// FieldSource is the capability the Depthometer reads from: a
// time-to-index search, a value read by index, and the channel's index
// range. nmea.Reader satisfies this directly.
type FieldSource interface {
	FindData(t int64) (status storeport.FindStatus, lindex, rindex, ltime, rtime int64)
	Value(index int64) (float64, bool)
	Range() (first, last int64, ok bool)
}

// Depthometer is the Depthometer: window-snapped, N-point averaged depth
// lookups over a FieldSource, cached by (token, filter size, window,
// snapped time).
type Depthometer struct {
	mu sync.Mutex

	source     FieldSource
	cache      cacheport.Port
	token      string // identifies source in the cache key
	filterSize int    // N, rounded up to even
	windowUs   int64  // W, minimum 1
}

// New builds a Depthometer over source. filterSize is rounded up to
// the next even number if odd; windowUs is clamped to a minimum of 1.
func New(source FieldSource, cache cacheport.Port, token string, filterSize int, windowUs int64) *Depthometer {
	if filterSize%2 != 0 {
		filterSize++
	}
	if filterSize < 2 {
		filterSize = 2
	}
	if windowUs < 1 {
		windowUs = 1
	}
	return &Depthometer{
		source:     source,
		cache:      cache,
		token:      token,
		filterSize: filterSize,
		windowUs:   windowUs,
	}
}

// snap rounds t to its validity midpoint, ties going up:
// t' = round(t / W) * W.
func (d *Depthometer) snap(t int64) int64 {
	if d.windowUs <= 0 {
		return t
	}
	q, r := t/d.windowUs, t%d.windowUs
	if r < 0 {
		// Go's integer division truncates toward zero; normalize to a
		// floored quotient/remainder pair before applying the tie rule.
		q--
		r += d.windowUs
	}
	if 2*r >= d.windowUs {
		q++
	}
	return q * d.windowUs
}

func (d *Depthometer) cacheKey(snapped int64) string {
	return fmt.Sprintf("depthometer.%s.%d.%d.%d", d.token, d.filterSize, d.windowUs, snapped)
}

// Get resolves the depth at t: snaps to the validity window, serves from
// cache on a hit, and otherwise collects N/2 samples to either side of
// the snapped time's source index (clamped to the source's range) and
// averages them. Returns -1 on any failure (source miss, empty range).
func (d *Depthometer) Get(t int64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	snapped := d.snap(t)
	key := d.cacheKey(snapped)
	if d.cache != nil {
		if data, ok := d.cache.Get(key); ok && len(data) == 8 {
			return decodeFloat64(data)
		}
	}

	value := d.compute(snapped)
	if value == -1 {
		return -1
	}
	if d.cache != nil {
		d.cache.Set(key, encodeFloat64(value))
	}
	return value
}

// Check is a cache-only lookup: it never calls the source and never
// computes. Returns -1 on a miss.
func (d *Depthometer) Check(t int64) float64 {
	if d.cache == nil {
		return -1
	}
	snapped := d.snap(t)
	key := d.cacheKey(snapped)
	data, ok := d.cache.Get(key)
	if !ok || len(data) != 8 {
		return -1
	}
	return decodeFloat64(data)
}

func (d *Depthometer) compute(snapped int64) float64 {
	status, lindex, _, _, _ := d.source.FindData(snapped)
	// Only an in-range hit qualifies: a snapped time before the first
	// record or after the last one has no depth, not a clamped one.
	if !status.InRange() {
		return -1
	}

	first, last, ok := d.source.Range()
	if !ok {
		return -1
	}

	center := lindex

	// N/2 samples at or before the snapped time (the center index
	// included) and N/2 after it.
	half := d.filterSize / 2
	lo := center - int64(half) + 1
	hi := center + int64(half)
	if lo < first {
		lo = first
	}
	if hi > last {
		hi = last
	}
	if hi < lo {
		return -1
	}

	var sum float64
	var count int
	for i := lo; i <= hi; i++ {
		v, ok := d.source.Value(i)
		if !ok {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return -1
	}
	return sum / float64(count)
}
