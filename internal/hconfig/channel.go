// Package hconfig holds the concrete configuration structs for the
// library: channel parameters (version, discretization type,
// discretization frequency) and the tunable knobs consumed by the
// bathymetry, navigation and waterfall components. Optional tuning
// fields are pointers with Get*-with-default accessors, so a partial
// JSON document leaves the rest at sane defaults.
package hconfig

import "fmt"

// CoreMajorVersion is the core's major API version. A channel's persisted
// version's major component (version/100) must match this.
const CoreMajorVersion = 1

// Discretization identifies a sample encoding for a data channel.
type Discretization string

const (
	DiscComplexFloat32  Discretization = "complex-float32"
	DiscInt8            Discretization = "int8"
	DiscInt16           Discretization = "int16"
	DiscInt16Compressed Discretization = "int16-compressed"
)

// discInfo holds the per-encoding facts the core requires: byte size per
// sample and an import transform to complex float32.
type discInfo struct {
	sampleSize int
	importFn   func(raw []byte) ([]complex64, error)
}

var discTable = map[Discretization]discInfo{
	DiscComplexFloat32:  {sampleSize: 8, importFn: importComplexFloat32},
	DiscInt8:            {sampleSize: 1, importFn: importInt8},
	DiscInt16:           {sampleSize: 2, importFn: importInt16},
	DiscInt16Compressed: {sampleSize: 2, importFn: importInt16}, // same wire layout, distinct channel tag
}

// SampleSize returns the byte size of one sample under d, or (0, false) if
// d is not a known encoding.
func (d Discretization) SampleSize() (int, bool) {
	info, ok := discTable[d]
	if !ok {
		return 0, false
	}
	return info.sampleSize, true
}

// Import converts raw channel bytes to complex float32 samples per d's
// encoding. raw's length must be a multiple of the encoding's sample size.
func (d Discretization) Import(raw []byte) ([]complex64, error) {
	info, ok := discTable[d]
	if !ok {
		return nil, fmt.Errorf("hconfig: unknown discretization %q", d)
	}
	if len(raw)%info.sampleSize != 0 {
		return nil, fmt.Errorf("hconfig: record length %d is not a multiple of sample size %d", len(raw), info.sampleSize)
	}
	return info.importFn(raw)
}

// ChannelParams are the three persisted fields every data channel (and its
// companion signals channel) carries.
type ChannelParams struct {
	Version              int            `json:"version"`
	DiscretizationType   Discretization `json:"discretization_type"`
	DiscretizationFreqHz float64        `json:"discretization_frequency"`
}

// Validate checks the channel parameter contract: the major version
// must match the core, the discretization type must be known, and the
// frequency must be strictly greater than 1 Hz.
func (p ChannelParams) Validate() error {
	if p.Version/100 != CoreMajorVersion {
		return fmt.Errorf("hconfig: channel major version %d incompatible with core major version %d", p.Version/100, CoreMajorVersion)
	}
	if _, ok := p.DiscretizationType.SampleSize(); !ok {
		return fmt.Errorf("hconfig: unknown discretization type %q", p.DiscretizationType)
	}
	if p.DiscretizationFreqHz <= 1.0 {
		return fmt.Errorf("hconfig: discretization frequency %g must be > 1.0", p.DiscretizationFreqHz)
	}
	return nil
}

// ValidateSignals checks that a signals channel's parameters are
// compatible with its parent data channel: complex-float32 encoding and a
// matching frequency.
func (p ChannelParams) ValidateSignals(parent ChannelParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.DiscretizationType != DiscComplexFloat32 {
		return fmt.Errorf("hconfig: signals channel must use %q encoding, got %q", DiscComplexFloat32, p.DiscretizationType)
	}
	if p.DiscretizationFreqHz != parent.DiscretizationFreqHz {
		return fmt.Errorf("hconfig: signals channel frequency %g does not match data channel frequency %g", p.DiscretizationFreqHz, parent.DiscretizationFreqHz)
	}
	return nil
}
