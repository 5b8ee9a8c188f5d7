// Package waterfall implements the waterfall tile generator. It builds
// one georeferenced raster tile from an acoustic channel (plus an
// optional depthometer for ground-range geometry) by resampling and
// fusing a sequence of pings onto a working grid — W×H float planes
// with a per-cell weight, filled by scatter-accumulate and normalized
// on read-back — then interpolating across gaps, box filtering, and
// composing down to the requested output size.
package waterfall

import (
	"math"
	"sync"
	"sync/atomic"

	"hydrocore/internal/acoustic"
	"hydrocore/internal/depthometer"
	"hydrocore/internal/hconfig"
	"hydrocore/internal/obslog"
	"hydrocore/internal/storeport"
	"hydrocore/internal/tiledesc"
)

// Transparent is the sentinel value denoting "no data". No real
// amplitude produces it, since amplitudes are non-negative.
const Transparent = float32(-1.0)

const (
	alongExtendFraction = 0.05
	alongExtendCapMM    = 2500.0
	mmPerInch           = 25.4
)

// Result is one generated tile: a row-major float32 plane of size
// W x H (stride W), plus the finality flag.
type Result struct {
	Data        []float32
	W, H        int
	Finalized   bool
	Regenerable bool // true if the caller may retry later for a non-empty result
}

// Generator builds waterfall tiles. Only one Generate call may be in
// flight per instance; concurrent callers fail immediately rather than
// queueing.
type Generator struct {
	channel *acoustic.Channel
	depth   *depthometer.Depthometer // optional; required only for ground-range geometry

	sampleRateHz  float64
	soundVelocity float64 // m/s
	shipSpeedMMps float64 // along-track ship speed, mm/s, for ping-time <-> along-offset mapping
	tuning        *hconfig.Tuning

	mu        sync.Mutex
	busy      bool
	terminate int32
}

// New builds a Generator over channel. depth may be nil if the caller
// never requests ground-range geometry. sampleRateHz and soundVelocity
// feed the slant/ground range sample-index mapping; shipSpeedMMps
// feeds the ping-time <-> along-offset mapping. tuning may be nil,
// selecting default filter/upsample knobs.
func New(channel *acoustic.Channel, depth *depthometer.Depthometer, sampleRateHz, soundVelocity, shipSpeedMMps float64, tuning *hconfig.Tuning) *Generator {
	return &Generator{
		channel:       channel,
		depth:         depth,
		sampleRateHz:  sampleRateHz,
		soundVelocity: soundVelocity,
		shipSpeedMMps: shipSpeedMMps,
		tuning:        tuning,
	}
}

// Terminate requests cooperative cancellation of any in-flight Generate
// call. On an idle generator it only sets the flag, which the next
// Generate call clears at entry.
func (g *Generator) Terminate() {
	atomic.StoreInt32(&g.terminate, 1)
}

func (g *Generator) terminated() bool {
	return atomic.LoadInt32(&g.terminate) != 0
}

// Generate builds one tile for desc. It fails immediately (ok=false) if
// another Generate call is already in flight on this instance.
func (g *Generator) Generate(desc tiledesc.Descriptor) (Result, bool) {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return Result{}, false
	}
	g.busy = true
	g.mu.Unlock()
	atomic.StoreInt32(&g.terminate, 0)

	defer func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	}()

	return g.run(desc)
}

func (g *Generator) run(desc tiledesc.Descriptor) (Result, bool) {
	step := mmPerInch * desc.Scale / desc.PPI
	if step <= 0 {
		return Result{}, false
	}
	w := int(math.Ceil((desc.AcrossEndMM - absAcrossStart(desc)) / step))
	h := int(math.Ceil((desc.AlongEndMM - desc.AlongStartMM) / step))
	if w <= 0 || h <= 0 {
		return Result{}, false
	}

	if desc.AlongStartMM < 0 || desc.AlongEndMM < 0 {
		obslog.Logf("waterfall: negative along extent, empty non-regenerable tile")
		return emptyTile(w, h), true
	}

	upsample := desc.Upsample
	if upsample < 1 {
		upsample = g.tuning.GetTileUpsampleFactor()
	}

	prep, ok := g.prepare(desc, step)
	if !ok {
		return Result{W: w, H: h, Regenerable: true}, true
	}
	if g.terminated() {
		return Result{}, false
	}

	pl := newPlanes(w*upsample+1, h*upsample+1)
	g.fill(desc, step, upsample, prep, pl)
	if g.terminated() {
		return Result{}, false
	}

	filterTaps := g.filterWidth(pl, prep, upsample)
	g.interpolateRows(pl, filterTaps)
	if g.terminated() {
		return Result{}, false
	}

	g.verticalInterpolate(pl, prep)
	if g.terminated() {
		return Result{}, false
	}

	g.verticalFilter(pl, filterTaps)
	if g.terminated() {
		return Result{}, false
	}

	data := compose(pl, w, h, upsample, desc.Rotate, desc.AcrossStartMM < 0)
	outW, outH := w, h
	if desc.Rotate {
		outW, outH = h, w
	}

	_, currentLast, _ := g.channel.Range()
	finalized := !g.channel.IsWritable() || prep.rightIndex != currentLast
	return Result{Data: data, W: outW, H: outH, Finalized: finalized}, true
}

func absAcrossStart(desc tiledesc.Descriptor) float64 {
	if desc.AcrossStartMM < 0 {
		return -desc.AcrossStartMM
	}
	return desc.AcrossStartMM
}

func emptyTile(w, h int) Result {
	data := make([]float32, w*h)
	for i := range data {
		data[i] = Transparent
	}
	return Result{Data: data, W: w, H: h, Regenerable: false}
}

// prepared holds the prepare-stage outcome: the ping index window to
// fill from, plus its auxiliary frame-edge pings.
type prepared struct {
	firstPingTime         int64
	leftIndex, rightIndex int64
	auxBefore, auxAfter   int64 // -1 if absent
}

// prepare queries the channel's range, extends the
// along window for seam stitching, and locates the ping indices covering
// it (plus one auxiliary ping on each side) by converting along offsets
// to ping acquisition times via the ship's along-track speed.
func (g *Generator) prepare(desc tiledesc.Descriptor, step float64) (prepared, bool) {
	first, last, ok := g.channel.Range()
	if !ok || first == last {
		return prepared{}, false
	}
	_, firstPingTime, ok := g.channel.Amplitude(first)
	if !ok {
		return prepared{}, false
	}

	extend := desc.AlongEndMM - desc.AlongStartMM
	extend *= alongExtendFraction
	if extend > alongExtendCapMM {
		extend = alongExtendCapMM
	}
	alongStart := desc.AlongStartMM - extend
	alongEnd := desc.AlongEndMM + extend

	leftTime := firstPingTime + int64(alongStart/g.shipSpeedMMps*1e6)
	rightTime := firstPingTime + int64(alongEnd/g.shipSpeedMMps*1e6)

	leftIdx := g.locateIndex(leftTime, first, last)
	rightIdx := g.locateIndex(rightTime, first, last)
	if rightIdx < leftIdx {
		leftIdx, rightIdx = rightIdx, leftIdx
	}

	auxBefore := int64(-1)
	if leftIdx > first {
		auxBefore = leftIdx - 1
	}
	auxAfter := int64(-1)
	if rightIdx < last {
		auxAfter = rightIdx + 1
	}

	return prepared{
		firstPingTime: firstPingTime,
		leftIndex:     leftIdx,
		rightIndex:    rightIdx,
		auxBefore:     auxBefore,
		auxAfter:      auxAfter,
	}, true
}

func (g *Generator) locateIndex(t int64, first, last int64) int64 {
	status, lindex, rindex, ltime, rtime := g.channel.FindData(t)
	switch status {
	case storeport.FindFail, storeport.FindLeft:
		return first
	case storeport.FindRight:
		return last
	case storeport.FindWithin:
		// Pick whichever side's time is closer to t.
		if t-ltime <= rtime-t {
			return lindex
		}
		return rindex
	default: // FindExact
		return lindex
	}
}
