package waterfall

// compose resamples the working grid (stride upsample,
// post-vertical-filter, held in pl.data0) down to the requested w x h
// output, mirroring columns if the request's across start was negative
// and transposing if rotate is set.
func compose(pl *planes, w, h, upsample int, rotate, mirror bool) []float32 {
	out := make([]float32, w*h)
	for i := 0; i < h; i++ {
		rowIn := i * upsample
		if rowIn >= pl.h {
			rowIn = pl.h - 1
		}
		for j := 0; j < w; j++ {
			colIn := j * upsample
			if colIn >= pl.w {
				colIn = pl.w - 1
			}
			v := pl.data0[rowIn*pl.w+colIn]
			destJ := j
			if mirror {
				destJ = w - 1 - j
			}
			out[i*w+destJ] = v
		}
	}
	if rotate {
		out = transpose(out, w, h)
	}
	return out
}

// transpose swaps the grid's row/column axes: a w-wide, h-tall plane
// becomes an h-wide, w-tall one. The caller is responsible for
// swapping its own notion of W/H to match.
func transpose(in []float32, w, h int) []float32 {
	out := make([]float32, w*h)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			out[j*h+i] = in[i*w+j]
		}
	}
	return out
}
