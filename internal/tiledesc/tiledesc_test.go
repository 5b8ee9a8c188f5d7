package tiledesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeometryReflectsGroundRangeFlag(t *testing.T) {
	t.Parallel()
	d := Descriptor{}
	assert.Equal(t, GeometrySlantRange, d.Geometry())

	d.Flags |= FlagGroundRange
	assert.Equal(t, GeometryGroundRange, d.Geometry())
}

func TestTokenIsDeterministic(t *testing.T) {
	t.Parallel()
	d := Descriptor{AcrossStartMM: -100, AcrossEndMM: 100, AlongStartMM: 0, AlongEndMM: 500, Scale: 1, PPI: 96, Source: "src", TrackID: "trk"}
	assert.Equal(t, d.Token(), d.Token())
}

func TestTokenDiffersOnRequestFieldChange(t *testing.T) {
	t.Parallel()
	a := Descriptor{AcrossStartMM: -100, AcrossEndMM: 100, AlongEndMM: 500, Scale: 1, PPI: 96}
	b := a
	b.Rotate = true
	assert.NotEqual(t, a.Token(), b.Token())
}

func TestEquivalentIgnoresUpsampleFlagsRotateSource(t *testing.T) {
	t.Parallel()
	a := Descriptor{AcrossStartMM: -100, AcrossEndMM: 100, AlongEndMM: 500, Scale: 1, PPI: 96, Upsample: 1, Source: "a", Rotate: false}
	b := a
	b.Upsample = 4
	b.Flags = FlagProfiler
	b.Rotate = true
	b.Source = "b"

	assert.True(t, Equivalent(a, b))
	assert.NotEqual(t, a.Token(), b.Token())
}

func TestEquivalentDiffersOnExtentChange(t *testing.T) {
	t.Parallel()
	a := Descriptor{AcrossEndMM: 100, AlongEndMM: 500, Scale: 1, PPI: 96}
	b := a
	b.AcrossEndMM = 200
	assert.False(t, Equivalent(a, b))
}

func TestCacheKeyPrependsNamespace(t *testing.T) {
	t.Parallel()
	d := Descriptor{AcrossEndMM: 100, AlongEndMM: 500, Scale: 1, PPI: 96}
	key := CacheKey("store.proj.trk.chan", d)
	assert.Equal(t, "store.proj.trk.chan."+d.Token(), key)
}
