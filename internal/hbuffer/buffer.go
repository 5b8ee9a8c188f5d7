// Package hbuffer implements the typed, growable scratch buffer shared by
// the acoustic and waterfall pipelines: a declared element type over
// contiguous memory that grows but never shrinks, so steady-state reads
// reuse capacity instead of reallocating per record. A Buffer always
// owns its memory; SetBytes copies and there is no way to wrap a
// caller's slice.
package hbuffer

import (
	"encoding/binary"
	"math"
)

// Kind identifies the element type a Buffer's bytes are interpreted as.
type Kind int

const (
	KindRaw Kind = iota
	KindInt16
	KindFloat32
	KindComplexFloat32
	KindString
)

// sizeOf returns the byte size of one element of kind k, or 1 for variable
// length kinds (KindRaw, KindString), whose lengths are counted in bytes.
func sizeOf(k Kind) int {
	switch k {
	case KindInt16:
		return 2
	case KindFloat32:
		return 4
	case KindComplexFloat32:
		return 8
	default:
		return 1
	}
}

// Buffer is a typed, growable byte-backed scratch area. Grow never
// shrinks the underlying capacity; repeated calls on the same Buffer
// reuse its backing array when the requested size already fits.
type Buffer struct {
	kind Kind
	elem int
	buf  []byte
	n    int // valid length in bytes
}

// New creates an empty Buffer of the given kind.
func New(kind Kind) *Buffer {
	return &Buffer{kind: kind, elem: sizeOf(kind)}
}

// Kind reports the buffer's element kind.
func (b *Buffer) Kind() Kind { return b.kind }

// Len returns the number of valid elements currently held.
func (b *Buffer) Len() int {
	if b.elem == 0 {
		return b.n
	}
	return b.n / b.elem
}

// ByteLen returns the number of valid bytes currently held.
func (b *Buffer) ByteLen() int { return b.n }

// Cap returns the buffer's current byte capacity.
func (b *Buffer) Cap() int { return cap(b.buf) }

// Grow ensures the buffer can hold at least nBytes valid bytes, growing
// (never shrinking) the backing array as needed, and sets the valid
// length to nBytes. Existing bytes beyond the old valid length are not
// guaranteed to be zeroed.
func (b *Buffer) Grow(nBytes int) {
	if cap(b.buf) < nBytes {
		grown := make([]byte, nBytes)
		copy(grown, b.buf)
		b.buf = grown
	} else if len(b.buf) < nBytes {
		b.buf = b.buf[:nBytes]
	}
	b.n = nBytes
}

// GrowSamples is Grow expressed in element counts rather than bytes.
func (b *Buffer) GrowSamples(nSamples int) {
	b.Grow(nSamples * b.elem)
}

// Bytes returns the valid byte region, borrowed until the next call that
// mutates this Buffer.
func (b *Buffer) Bytes() []byte { return b.buf[:b.n] }

// SetBytes copies src into the buffer, growing as needed, and marks the
// whole copied region valid.
func (b *Buffer) SetBytes(src []byte) {
	b.Grow(len(src))
	copy(b.buf, src)
}

// Float32Slice decodes the valid region as little-endian float32
// samples into a newly allocated slice.
func (b *Buffer) Float32Slice() []float32 {
	n := b.n / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b.buf[i*4:]))
	}
	return out
}

// ComplexFloat32Slice decodes the valid region as interleaved
// real/imaginary little-endian float32 pairs into a newly allocated slice.
func (b *Buffer) ComplexFloat32Slice() []complex64 {
	n := b.n / 8
	out := make([]complex64, n)
	for i := 0; i < n; i++ {
		re := math.Float32frombits(binary.LittleEndian.Uint32(b.buf[i*8:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(b.buf[i*8+4:]))
		out[i] = complex(re, im)
	}
	return out
}

// SetComplexFloat32 encodes vals into the buffer as interleaved
// little-endian float32 pairs, growing as needed.
func (b *Buffer) SetComplexFloat32(vals []complex64) {
	b.Grow(len(vals) * 8)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b.buf[i*8:], math.Float32bits(real(v)))
		binary.LittleEndian.PutUint32(b.buf[i*8+4:], math.Float32bits(imag(v)))
	}
}

// SetFloat32 encodes vals into the buffer as little-endian float32
// samples, growing as needed.
func (b *Buffer) SetFloat32(vals []float32) {
	b.Grow(len(vals) * 4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b.buf[i*4:], math.Float32bits(v))
	}
}
