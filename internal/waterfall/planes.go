package waterfall

// planes holds the pipeline's working buffers: three W x H float32
// accumulation/interpolation stages, a per-cell weight plane, a per-row
// mark signature, and two auxiliary edge rows carried from the pings
// just outside the requested window (used to seed vertical
// interpolation at the frame's top/bottom edge).
type planes struct {
	w, h int

	data0, data1, data2 []float32 // row-major, stride w
	weight              []float32

	mark []int // +(j+1) if row j has real samples, -(j+1) if only transparent, 0 if untouched

	addData0, addData1 [2][]float32 // [0]=before-window row, [1]=after-window row
	addWeight          [2][]float32
	addMark            [2]int // 0 = absent, +1 if the row has real samples, -1 if only transparent
}

func newPlanes(w, h int) *planes {
	p := &planes{
		w: w, h: h,
		data0:  make([]float32, w*h),
		data1:  make([]float32, w*h),
		data2:  make([]float32, w*h),
		weight: make([]float32, w*h),
		mark:   make([]int, h),
	}
	for i := range p.addData0 {
		p.addData0[i] = make([]float32, w)
		p.addData1[i] = make([]float32, w)
		p.addWeight[i] = make([]float32, w)
	}
	return p
}

func (p *planes) row(plane []float32, j int) []float32 {
	return plane[j*p.w : (j+1)*p.w]
}
