// Package tiledesc holds the tile descriptor: the immutable request
// parameters for one waterfall tile plus the generator-filled output
// metadata, and the deterministic token format used to build cache
// keys and to coalesce equivalent requests.
package tiledesc

import "fmt"

// Geometry selects how the generator maps raw sample index to
// across-track ground distance.
type Geometry int

const (
	GeometrySlantRange Geometry = iota
	GeometryGroundRange
)

// Flags is a bitfield carried in the token.
type Flags uint32

const (
	FlagGroundRange Flags = 1 << iota
	FlagProfiler
)

// Descriptor is the Tile Descriptor: the immutable request parameters
// for one tile, plus the fields the generator fills in after producing
// the result (W, H, Finalized are output metadata, not part of the
// request token).
type Descriptor struct {
	// Request fields.
	AcrossStartMM float64 // may be negative: mirrors the across axis
	AlongStartMM  float64
	AcrossEndMM   float64
	AlongEndMM    float64
	Scale         float64
	PPI           float64
	Upsample      int
	Rotate        bool
	Flags         Flags
	Source        string // source type identifier
	TrackID       string

	// Output metadata, set by the generator after a run.
	W, H      int
	Finalized bool
}

// Geometry reports the descriptor's selected ground geometry from its
// flags.
func (d Descriptor) Geometry() Geometry {
	if d.Flags&FlagGroundRange != 0 {
		return GeometryGroundRange
	}
	return GeometrySlantRange
}

// Token returns the deterministic cache-key token for d:
//
//	({track_id}|{across_start}.{along_start}.{across_end}.{along_end}.{scale:010.3f}.{ppi:06.3f}|{upsample}.{flags}.{rotate}.{source})
func (d Descriptor) Token() string {
	rotate := 0
	if d.Rotate {
		rotate = 1
	}
	return fmt.Sprintf("(%s|%g.%g.%g.%g.%010.3f.%06.3f|%d.%d.%d.%s)",
		d.TrackID,
		d.AcrossStartMM, d.AlongStartMM, d.AcrossEndMM, d.AlongEndMM,
		d.Scale, d.PPI,
		d.Upsample, uint32(d.Flags), rotate, d.Source)
}

// EquivalenceKey returns a token over only the fields defining
// cache-coalescing equivalence: extents, scale and ppi.
// Descriptors differing only in Upsample, Flags, Rotate or Source
// compare equal under this key even though their full Token differs.
func (d Descriptor) EquivalenceKey() string {
	return fmt.Sprintf("(%s|%g.%g.%g.%g.%010.3f.%06.3f)",
		d.TrackID, d.AcrossStartMM, d.AlongStartMM, d.AcrossEndMM, d.AlongEndMM, d.Scale, d.PPI)
}

// Equivalent reports whether a and b belong to the same equivalence
// class: equal in every field other than upsample, flags, rotate and
// source.
func Equivalent(a, b Descriptor) bool {
	return a.EquivalenceKey() == b.EquivalenceKey()
}

// CacheKey composes the full tile cache key: the generator's
// store-level prefix (storeURI.project.track.channel-style namespace,
// opaque to this package) followed by the descriptor's token.
func CacheKey(namespace string, d Descriptor) string {
	return namespace + "." + d.Token()
}
