package bathymetry

import (
	"math"
	"strconv"
)

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func encodeFloat64(v float64) []byte {
	bits := math.Float64bits(v)
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * i))
	}
	return b[:]
}

func decodeFloat64(b []byte) float64 {
	var bits uint64
	for i := 0; i < 8 && i < len(b); i++ {
		bits |= uint64(b[i]) << (8 * i)
	}
	return math.Float64frombits(bits)
}
