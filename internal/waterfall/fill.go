package waterfall

import (
	"math"

	"hydrocore/internal/tiledesc"
)

// fill walks each ping in [left,right], locates its row by acquisition
// time and, for each output column, maps to a raw sample index under
// the selected geometry, accumulating real samples and marking
// out-of-range cells transparent.
func (g *Generator) fill(desc tiledesc.Descriptor, step float64, upsample int, prep prepared, pl *planes) {
	stepUp := step / float64(upsample)
	acrossBaseMM := absAcrossStart(desc)
	ground := desc.Geometry() == tiledesc.GeometryGroundRange
	sampleStepMeters := g.soundVelocity / (2 * g.sampleRateHz)

	for i := prep.leftIndex; i <= prep.rightIndex; i++ {
		if g.terminated() {
			return
		}
		amp, pingTime, ok := g.channel.Amplitude(i)
		if !ok || len(amp) == 0 {
			continue
		}
		alongMM := float64(pingTime-prep.firstPingTime) * g.shipSpeedMMps / 1e6
		j := int(math.Round((alongMM - desc.AlongStartMM) / stepUp))
		if j < 0 || j >= pl.h {
			continue
		}

		var depthM float64
		if ground {
			if g.depth == nil {
				continue
			}
			depthM = g.depth.Get(pingTime)
			if depthM < 0 {
				continue
			}
		}

		any := g.fillRow(pl, j, acrossBaseMM, stepUp, sampleStepMeters, ground, depthM, amp)
		if any {
			pl.mark[j] = j + 1
		} else if pl.mark[j] == 0 {
			pl.mark[j] = -(j + 1)
		}
	}

	g.fillAux(desc, prep, pl, acrossBaseMM, stepUp, sampleStepMeters, ground)
}

// fillRow accumulates one ping's contribution into working row j,
// returning whether any real (in-range) sample was written.
func (g *Generator) fillRow(pl *planes, j int, acrossBaseMM, stepUp, sampleStepMeters float64, ground bool, depthM float64, amp []float32) bool {
	row := pl.row(pl.data0, j)
	weight := pl.row(pl.weight, j)
	any := false
	for k := 0; k < pl.w; k++ {
		acrossMM := acrossBaseMM + float64(k)*stepUp
		var rangeM float64
		if ground {
			acrossM := acrossMM / 1000.0
			rangeM = math.Sqrt(acrossM*acrossM + depthM*depthM)
		} else {
			rangeM = acrossMM / 1000.0
		}
		idx := int(math.Round(rangeM / sampleStepMeters))
		if idx < 0 || idx >= len(amp) {
			if weight[k] == 0 {
				row[k] = Transparent
				weight[k] = 1
			}
			continue
		}
		if weight[k] == 1 && row[k] == Transparent {
			row[k] = 0
			weight[k] = 0
		}
		row[k] += amp[idx]
		weight[k]++
		any = true
	}
	return any
}

// fillAux renders the frame-edge auxiliary rows prepare located: the
// single ping just before and just after the requested window, carried
// as standalone rows (not placed in the main grid) so vertical
// interpolation can fill the frame edges using real data.
func (g *Generator) fillAux(desc tiledesc.Descriptor, prep prepared, pl *planes, acrossBaseMM, stepUp, sampleStepMeters float64, ground bool) {
	indices := [2]int64{prep.auxBefore, prep.auxAfter}
	for slot, idx := range indices {
		if idx < 0 {
			continue
		}
		amp, pingTime, ok := g.channel.Amplitude(idx)
		if !ok || len(amp) == 0 {
			continue
		}
		var depthM float64
		if ground {
			if g.depth == nil {
				continue
			}
			depthM = g.depth.Get(pingTime)
			if depthM < 0 {
				continue
			}
		}
		row := pl.addData0[slot]
		weight := pl.addWeight[slot]
		any := false
		for k := 0; k < pl.w; k++ {
			acrossMM := acrossBaseMM + float64(k)*stepUp
			var rangeM float64
			if ground {
				acrossM := acrossMM / 1000.0
				rangeM = math.Sqrt(acrossM*acrossM + depthM*depthM)
			} else {
				rangeM = acrossMM / 1000.0
			}
			sIdx := int(math.Round(rangeM / sampleStepMeters))
			if sIdx < 0 || sIdx >= len(amp) {
				row[k] = Transparent
				weight[k] = 1
				continue
			}
			row[k] = amp[sIdx]
			weight[k] = 1
			any = true
		}
		if any {
			pl.addMark[slot] = 1
		} else {
			pl.addMark[slot] = -1
		}
	}
}
