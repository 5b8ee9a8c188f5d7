package hconfig

import (
	"encoding/binary"
	"math"
)

func importComplexFloat32(raw []byte) ([]complex64, error) {
	n := len(raw) / 8
	out := make([]complex64, n)
	for i := 0; i < n; i++ {
		re := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8+4:]))
		out[i] = complex(re, im)
	}
	return out, nil
}

func importInt8(raw []byte) ([]complex64, error) {
	out := make([]complex64, len(raw))
	for i, b := range raw {
		out[i] = complex(float32(int8(b))/math.MaxInt8, 0)
	}
	return out, nil
}

func importInt16(raw []byte) ([]complex64, error) {
	n := len(raw) / 2
	out := make([]complex64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		out[i] = complex(float32(v)/math.MaxInt16, 0)
	}
	return out, nil
}
