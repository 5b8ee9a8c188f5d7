package waterfall

import (
	"gonum.org/v1/gonum/floats"
)

// filterWidth picks the box-filter tap count for both filter passes: twice the
// larger of the average row gap (working rows per ping) and the upsample
// factor, truncated to an integer and rounded up to odd. An empty ping
// window counts as a gap of one upsample step. The tuning-configured
// default tap count is used only when that product is below 1.
func (g *Generator) filterWidth(pl *planes, prep prepared, upsample int) int {
	pingCount := prep.rightIndex - prep.leftIndex + 1
	avgGapRows := float64(upsample)
	if pingCount > 0 {
		avgGapRows = float64(pl.h) / float64(pingCount)
	}
	width := avgGapRows
	if float64(upsample) > width {
		width = float64(upsample)
	}
	taps := int(2 * width)
	if taps < 1 {
		taps = g.tuning.GetTileFilterTaps()
	}
	if taps%2 == 0 {
		taps++
	}
	return taps
}

// interpolateRows normalizes accumulated rows, nearest-neighbor-fills
// any still-empty cells, and box filters horizontally. Transparent
// (mark<0) rows are copied as-is; untouched rows (mark==0, no ping
// mapped here yet) are left for the vertical interpolation pass.
func (g *Generator) interpolateRows(pl *planes, taps int) {
	for j := 0; j < pl.h; j++ {
		if g.terminated() {
			return
		}
		switch {
		case pl.mark[j] > 0:
			row0 := pl.row(pl.data0, j)
			weight := pl.row(pl.weight, j)
			row1 := pl.row(pl.data1, j)
			normalizeRow(row0, weight)
			fillGapsNearest(row0, weight)
			boxFilterRow(row0, row1, taps)
		case pl.mark[j] < 0:
			copy(pl.row(pl.data1, j), pl.row(pl.data0, j))
		}
	}

	for slot := 0; slot < 2; slot++ {
		if pl.addMark[slot] == 0 {
			continue
		}
		if pl.addMark[slot] > 0 {
			normalizeRow(pl.addData0[slot], pl.addWeight[slot])
			fillGapsNearest(pl.addData0[slot], pl.addWeight[slot])
			boxFilterRow(pl.addData0[slot], pl.addData1[slot], taps)
		} else {
			copy(pl.addData1[slot], pl.addData0[slot])
		}
	}
}

func normalizeRow(row []float32, weight []float32) {
	for k, wv := range weight {
		if wv > 0 && row[k] != Transparent {
			row[k] /= wv
		}
	}
}

// fillGapsNearest fills any cell with zero weight (never touched by a
// ping) by scanning outward to the nearest touched neighbor in the row.
func fillGapsNearest(row []float32, weight []float32) {
	n := len(row)
	for k := 0; k < n; k++ {
		if weight[k] != 0 {
			continue
		}
		best := -1
		for d := 1; d < n; d++ {
			if k-d >= 0 && weight[k-d] != 0 {
				best = k - d
				break
			}
			if k+d < n && weight[k+d] != 0 {
				best = k + d
				break
			}
		}
		if best >= 0 {
			row[k] = row[best]
		} else {
			row[k] = Transparent
		}
	}
}

// boxFilterRow applies a taps-wide (odd) box filter to in, writing to
// out. Transparent cells are excluded from the window average (treated
// as absent, not zero) so a single gap doesn't pull its neighbors toward
// -1.
func boxFilterRow(in, out []float32, taps int) {
	n := len(in)
	half := taps / 2
	window := make([]float64, 0, taps)
	for k := 0; k < n; k++ {
		window = window[:0]
		lo, hi := k-half, k+half
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		for m := lo; m <= hi; m++ {
			if in[m] != Transparent {
				window = append(window, float64(in[m]))
			}
		}
		if len(window) == 0 {
			out[k] = Transparent
			continue
		}
		out[k] = float32(floats.Sum(window) / float64(len(window)))
	}
}
