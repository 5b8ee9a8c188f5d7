package hconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// VelocityPoint is one entry of a piecewise sound-velocity profile: the
// depth (in meters) marking the upper boundary of this segment, and the
// speed of sound (m/s) to apply across it.
type VelocityPoint struct {
	DepthMeters float64 `json:"depth_meters"`
	SpeedMPS    float64 `json:"speed_mps"`
}

// Tuning holds the optional knobs for the bathymetry, navigation and
// waterfall components. Every field is a pointer so a partial JSON
// document leaves the rest at the documented default; use the Get*
// accessors rather than reading fields directly.
type Tuning struct {
	// Bathymetry
	Quality       *float64        `json:"quality,omitempty"`
	SoundVelocity *float64        `json:"sound_velocity,omitempty"`
	VelocityTable []VelocityPoint `json:"velocity_table,omitempty"`

	// Navigation
	NavigationRingDepth  *int     `json:"navigation_ring_depth,omitempty"`
	SignalLossGapSeconds *float64 `json:"signal_loss_gap_seconds,omitempty"`
	EmitIntervalMillis   *int     `json:"emit_interval_millis,omitempty"`
	DelaySeconds         *float64 `json:"delay_seconds,omitempty"`

	// Waterfall
	TileFilterTaps     *int `json:"tile_filter_taps,omitempty"`
	TileUpsampleFactor *int `json:"tile_upsample_factor,omitempty"`
}

// EmptyTuning returns a Tuning with every field nil; callers rely on the
// Get* accessors for defaults.
func EmptyTuning() *Tuning { return &Tuning{} }

// LoadTuning reads a JSON tuning document from path. Fields omitted from
// the file retain their default values via the Get* accessors.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hconfig: read tuning file: %w", err)
	}
	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("hconfig: parse tuning JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hconfig: invalid tuning: %w", err)
	}
	return cfg, nil
}

// Validate checks internal consistency of whatever fields are set.
func (c *Tuning) Validate() error {
	if c.Quality != nil && (*c.Quality < 0 || *c.Quality > 1) {
		return fmt.Errorf("quality must be in [0,1], got %g", *c.Quality)
	}
	if c.SoundVelocity != nil && *c.SoundVelocity <= 0 {
		return fmt.Errorf("sound_velocity must be positive, got %g", *c.SoundVelocity)
	}
	if len(c.VelocityTable) > 0 {
		if !sort.SliceIsSorted(c.VelocityTable, func(i, j int) bool {
			return c.VelocityTable[i].DepthMeters < c.VelocityTable[j].DepthMeters
		}) {
			return fmt.Errorf("velocity_table must be sorted by depth ascending")
		}
		if c.VelocityTable[0].DepthMeters < 0 {
			return fmt.Errorf("velocity_table depths must be >= 0")
		}
	}
	return nil
}

// GetQuality returns the configured quality parameter or the default.
func (c *Tuning) GetQuality() float64 {
	if c == nil || c.Quality == nil {
		return 0.5
	}
	return *c.Quality
}

// GetSoundVelocity returns the configured constant sound velocity or the
// default of 1500 m/s.
func (c *Tuning) GetSoundVelocity() float64 {
	if c == nil || c.SoundVelocity == nil {
		return 1500.0
	}
	return *c.SoundVelocity
}

// GetVelocityTable returns the configured piecewise velocity profile, or
// nil if none was configured (callers fall back to GetSoundVelocity).
func (c *Tuning) GetVelocityTable() []VelocityPoint {
	if c == nil {
		return nil
	}
	return c.VelocityTable
}

// GetNavigationRingDepth returns the fix-ring capacity, 30 by default.
func (c *Tuning) GetNavigationRingDepth() int {
	if c == nil || c.NavigationRingDepth == nil {
		return 30
	}
	return *c.NavigationRingDepth
}

// GetSignalLossGapSeconds returns the fix-to-fix gap beyond which the ring
// is cleared as a signal-loss event.
func (c *Tuning) GetSignalLossGapSeconds() float64 {
	if c == nil || c.SignalLossGapSeconds == nil {
		return 2.0
	}
	return *c.SignalLossGapSeconds
}

// GetEmitIntervalMillis returns the navigation emitter's recurring
// interval in milliseconds.
func (c *Tuning) GetEmitIntervalMillis() int {
	if c == nil || c.EmitIntervalMillis == nil {
		return 200
	}
	return *c.EmitIntervalMillis
}

// GetDelaySeconds returns the interpolation delay; 0 selects last-value
// mode.
func (c *Tuning) GetDelaySeconds() float64 {
	if c == nil || c.DelaySeconds == nil {
		return 0
	}
	return *c.DelaySeconds
}

// GetTileFilterTaps returns the box-filter tap count used by the
// waterfall generator's horizontal/vertical filter passes.
func (c *Tuning) GetTileFilterTaps() int {
	if c == nil || c.TileFilterTaps == nil {
		return 3
	}
	return *c.TileFilterTaps
}

// GetTileUpsampleFactor returns the default upsample factor applied to
// the intermediate processing grid.
func (c *Tuning) GetTileUpsampleFactor() int {
	if c == nil || c.TileUpsampleFactor == nil {
		return 1
	}
	return *c.TileUpsampleFactor
}
