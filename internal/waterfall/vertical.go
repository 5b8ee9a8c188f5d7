package waterfall

// verticalInterpolate fills rows with no ping data (mark == 0 after
// fill/horizontal-filter) by copying whichever neighboring populated
// row — or, at a frame edge, whichever auxiliary row — is closer in
// along-track distance. Populated rows pass straight through from
// data1 (the horizontal filter's output) to data2.
func (g *Generator) verticalInterpolate(pl *planes, prep prepared) {
	copy(pl.data2, pl.data1)

	h := pl.h
	firstPop := -1
	for i := 0; i < h; i++ {
		if pl.mark[i] != 0 {
			firstPop = i
			break
		}
	}
	if firstPop == -1 {
		fillConstantGap(pl, 0, h, 0)
		return
	}

	if firstPop > 0 {
		if pl.addMark[0] != 0 {
			interpolateEdgeGap(pl, 0, firstPop, pl.row(pl.data1, firstPop), pl.mark[firstPop], firstPop, pl.addData1[0], pl.addMark[0], -1)
		} else {
			fillConstantGap(pl, 0, firstPop, 0)
		}
	}

	left := firstPop
	j := firstPop + 1
	for j <= h {
		if j < h && pl.mark[j] != 0 {
			left = j
			j++
			continue
		}
		right := j
		for right < h && pl.mark[right] == 0 {
			right++
		}
		if right < h {
			interpolateInteriorGap(pl, left, right)
			j = right + 1
			left = right
			continue
		}
		if pl.addMark[1] != 0 {
			interpolateEdgeGap(pl, left+1, h, pl.row(pl.data1, left), pl.mark[left], left, pl.addData1[1], pl.addMark[1], h)
		} else {
			fillConstantGap(pl, left+1, h, 0)
		}
		break
	}
}

func interpolateInteriorGap(pl *planes, left, right int) {
	for r := left + 1; r < right; r++ {
		distLeft := r - left
		distRight := right - r
		if distLeft <= distRight {
			copy(pl.row(pl.data2, r), pl.row(pl.data1, left))
			pl.mark[r] = pl.mark[left]
		} else {
			copy(pl.row(pl.data2, r), pl.row(pl.data1, right))
			pl.mark[r] = pl.mark[right]
		}
	}
}

// interpolateEdgeGap fills rows [gapStart, gapEnd) bounded on one side by
// a real row at knownRowIndex (with data knownRow/knownMark) and on the
// other by a virtual row at auxVirtualIndex carrying the auxiliary ping's
// data (auxRow/auxMark), choosing whichever is closer for each row.
func interpolateEdgeGap(pl *planes, gapStart, gapEnd int, knownRow []float32, knownMark, knownRowIndex int, auxRow []float32, auxMark, auxVirtualIndex int) {
	for r := gapStart; r < gapEnd; r++ {
		distKnown := absInt(r - knownRowIndex)
		distAux := absInt(r - auxVirtualIndex)
		if distAux <= distKnown {
			copy(pl.row(pl.data2, r), auxRow)
			pl.mark[r] = auxMark
		} else {
			copy(pl.row(pl.data2, r), knownRow)
			pl.mark[r] = knownMark
		}
	}
}

// fillConstantGap fills rows [start, end) with the transparent
// sentinel as a single constant block. verticalInterpolate uses it for
// the whole plane when no row is populated, and for a frame-edge gap
// that has no auxiliary row; the populated row on the gap's inner side
// is not copied.
func fillConstantGap(pl *planes, start, end int, mark int) {
	for r := start; r < end; r++ {
		row := pl.row(pl.data2, r)
		for k := range row {
			row[k] = Transparent
		}
		pl.mark[r] = mark
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// verticalFilter applies a box filter along the column (along-track)
// axis, rounded odd. Rows whose mark is constant within the filter
// window are short-circuited to a direct copy: an already-uniform run
// gains nothing from re-averaging. Writes the final plane into data0
// (its original accumulation role is done by this stage).
func (g *Generator) verticalFilter(pl *planes, taps int) {
	half := taps / 2
	for k := 0; k < pl.w; k++ {
		if g.terminated() {
			return
		}
		for j := 0; j < pl.h; j++ {
			lo, hi := j-half, j+half
			if lo < 0 {
				lo = 0
			}
			if hi >= pl.h {
				hi = pl.h - 1
			}
			constant := true
			m0 := pl.mark[lo]
			for r := lo; r <= hi; r++ {
				if pl.mark[r] != m0 {
					constant = false
					break
				}
			}
			if constant {
				pl.data0[j*pl.w+k] = pl.data2[j*pl.w+k]
				continue
			}
			var sum float64
			var count int
			for r := lo; r <= hi; r++ {
				v := pl.data2[r*pl.w+k]
				if v != Transparent {
					sum += float64(v)
					count++
				}
			}
			if count == 0 {
				pl.data0[j*pl.w+k] = Transparent
			} else {
				pl.data0[j*pl.w+k] = float32(sum / float64(count))
			}
		}
	}
}
