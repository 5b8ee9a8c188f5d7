// Package convolve implements the matched-filter convolution engine: a
// complex filter holding a time-reversed, conjugated transmit
// reference, applied to ping samples in place.
//
// For long references the convolution runs as an FFT frequency-domain
// product via gonum.org/v1/gonum/dsp/fourier; short references use a
// direct sum, since FFT setup cost dominates below a few dozen taps. Both
// paths must agree within float32 tolerance — see engine_test.go.
package convolve

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTThreshold is the reference length (in samples) at or above which
// the engine switches from direct convolution to an FFT-backed product.
const FFTThreshold = 64

// Engine holds a time-reversed, conjugated reference signal and applies
// it to pings as a matched filter.
type Engine struct {
	reversedConj []complex64
	peakIndex    int // index of the largest-magnitude sample in the original reference
}

// NewEngine builds an Engine from a transmit reference signal (not yet
// reversed or conjugated).
func NewEngine(reference []complex64) *Engine {
	n := len(reference)
	rev := make([]complex64, n)
	peak := 0
	var peakMag float64
	for i, v := range reference {
		rev[n-1-i] = complex64(cmplx.Conj(complex128(v)))
		mag := cmplx.Abs(complex128(v))
		if mag > peakMag {
			peakMag = mag
			peak = i
		}
	}
	return &Engine{reversedConj: rev, peakIndex: peak}
}

// Apply convolves ping against the engine's reference in place, trimming
// the result back to ping's original length and centering it on the
// reference's peak sample so the matched-filter output aligns with the
// original echo timing rather than being shifted by the filter length.
func (e *Engine) Apply(ping []complex64) {
	n := len(ping)
	m := len(e.reversedConj)
	if n == 0 || m == 0 {
		return
	}

	var full []complex64
	if m >= FFTThreshold {
		full = convolveFFT(ping, e.reversedConj)
	} else {
		full = convolveDirect(ping, e.reversedConj)
	}

	offset := m - 1 - e.peakIndex
	for i := 0; i < n; i++ {
		idx := offset + i
		if idx >= 0 && idx < len(full) {
			ping[i] = full[idx]
		} else {
			ping[i] = 0
		}
	}
}

func convolveDirect(a, b []complex64) []complex64 {
	n, m := len(a), len(b)
	out := make([]complex64, n+m-1)
	for i := 0; i < n; i++ {
		if a[i] == 0 {
			continue
		}
		for j := 0; j < m; j++ {
			out[i+j] += a[i] * b[j]
		}
	}
	return out
}

func convolveFFT(a, b []complex64) []complex64 {
	n := len(a) + len(b) - 1
	size := nextPow2(n)

	fft := fourier.NewCmplxFFT(size)

	ca := make([]complex128, size)
	cb := make([]complex128, size)
	for i, v := range a {
		ca[i] = complex128(v)
	}
	for i, v := range b {
		cb[i] = complex128(v)
	}

	fa := fft.Coefficients(nil, ca)
	fb := fft.Coefficients(nil, cb)

	prod := make([]complex128, size)
	for i := range prod {
		prod[i] = fa[i] * fb[i]
	}

	res := fft.Sequence(nil, prod)
	scale := complex(1.0/float64(size), 0)

	out := make([]complex64, n)
	for i := 0; i < n; i++ {
		out[i] = complex64(res[i] * scale)
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
