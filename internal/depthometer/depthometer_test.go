package depthometer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrocore/internal/cacheport"
	"hydrocore/internal/storeport"
)

// fakeSource is a sparse, evenly-spaced time series: index i sits at
// time i*stepUs and carries value values[i].
type fakeSource struct {
	stepUs int64
	values []float64
}

func (f *fakeSource) FindData(t int64) (storeport.FindStatus, int64, int64, int64, int64) {
	if len(f.values) == 0 {
		return storeport.FindFail, 0, 0, 0, 0
	}
	last := int64(len(f.values)) - 1
	if t < 0 {
		return storeport.FindLeft, 0, 0, 0, 0
	}
	if t > last*f.stepUs {
		return storeport.FindRight, last, last, last * f.stepUs, last * f.stepUs
	}
	idx := t / f.stepUs
	lt := idx * f.stepUs
	if lt == t {
		return storeport.FindExact, idx, idx, lt, lt
	}
	return storeport.FindWithin, idx, idx + 1, lt, (idx + 1) * f.stepUs
}

func (f *fakeSource) Value(index int64) (float64, bool) {
	if index < 0 || index >= int64(len(f.values)) {
		return 0, false
	}
	return f.values[index], true
}

func (f *fakeSource) Range() (int64, int64, bool) {
	if len(f.values) == 0 {
		return 0, 0, false
	}
	return 0, int64(len(f.values)) - 1, true
}

// Get(1.4e6) with a 1s window snaps down to 1e6 and averages the 4
// samples collected around index 1.
func TestGetSnapsAndAveragesWindow(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stepUs: 1_000_000, values: []float64{10, 20, 30, 40}}
	d := New(src, nil, "tok", 4, 1_000_000)

	v := d.Get(1_400_000)
	assert.InDelta(t, 25.0, v, 1e-9)
}

func TestGetAveragesSurroundingSamples(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stepUs: 1000, values: []float64{10, 20, 30, 40, 50, 60}}
	d := New(src, nil, "tok", 4, 1)

	v := d.Get(3000) // center index 3, filterSize 4 -> indices [2,5] -> (30+40+50+60)/4
	assert.InDelta(t, 45.0, v, 1e-9)
}

func TestGetClampsWindowAtSourceEdges(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stepUs: 1000, values: []float64{10, 20, 30}}
	d := New(src, nil, "tok", 4, 1)

	v := d.Get(0) // center index 0, half=2 -> [-1,2] clamped to [0,2] -> (10+20+30)/3
	assert.InDelta(t, 20.0, v, 1e-9)
}

func TestGetAveragesAroundStraddledTime(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stepUs: 1000, values: []float64{10, 20, 30, 40}}
	d := New(src, nil, "tok", 2, 1)

	v := d.Get(1500) // straddles indices 1 and 2, center 1 -> (20+30)/2
	assert.InDelta(t, 25.0, v, 1e-9)
}

// Times outside the source's record range yield no depth, not a value
// clamped to the first or last sample.
func TestGetOutsideSourceRangeFails(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stepUs: 1000, values: []float64{10, 20, 30}}
	d := New(src, nil, "tok", 2, 1)

	assert.Equal(t, -1.0, d.Get(-5000))
	assert.Equal(t, -1.0, d.Get(9000))
}

func TestGetFailsOnEmptySource(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stepUs: 1000}
	d := New(src, nil, "tok", 4, 1)
	assert.Equal(t, -1.0, d.Get(0))
}

func TestGetCachesResult(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stepUs: 1000, values: []float64{10, 20, 30, 40}}
	cache := cacheport.NewMapPort()
	d := New(src, cache, "tok", 2, 1)

	v1 := d.Get(1000)
	v2 := d.Get(1000)
	assert.Equal(t, v1, v2)

	// Check serves purely from cache, without touching the source.
	checked := d.Check(1000)
	assert.Equal(t, v1, checked)
}

func TestCheckMissesWithoutPriorGet(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stepUs: 1000, values: []float64{10, 20}}
	cache := cacheport.NewMapPort()
	d := New(src, cache, "tok", 2, 1)
	assert.Equal(t, -1.0, d.Check(5000))
}

func TestCheckWithoutCacheAlwaysMisses(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stepUs: 1000, values: []float64{10, 20}}
	d := New(src, nil, "tok", 2, 1)
	d.Get(0)
	assert.Equal(t, -1.0, d.Check(0))
}

func TestNewRoundsFilterSizeUpToEven(t *testing.T) {
	t.Parallel()
	d := New(&fakeSource{stepUs: 1}, nil, "tok", 3, 1)
	assert.Equal(t, 4, d.filterSize)
}

func TestSnapRoundsHalfUp(t *testing.T) {
	t.Parallel()
	d := New(&fakeSource{stepUs: 1}, nil, "tok", 2, 1000)
	require.Equal(t, int64(0), d.snap(499))
	require.Equal(t, int64(1000), d.snap(500))
	require.Equal(t, int64(1000), d.snap(1499))
	require.Equal(t, int64(2000), d.snap(1500))
}

func TestSnapHandlesNegativeTimes(t *testing.T) {
	t.Parallel()
	d := New(&fakeSource{stepUs: 1}, nil, "tok", 2, 1000)
	assert.Equal(t, int64(0), d.snap(-499))
	assert.Equal(t, int64(-1000), d.snap(-501))
}
