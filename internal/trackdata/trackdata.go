// Package trackdata derives smoothed course-over-ground from a pair of
// lat/lon navigation-like sources: two independently-rated position
// sources are resampled onto a common time axis before differencing,
// and the resulting bearing/speed is smoothed with a simple
// exponential filter to avoid single-fix noise spikes. Bearings are
// unwrapped relative to the previous smoothed value via
// navigation.UnwrapBearing.
package trackdata

import (
	"math"

	"hydrocore/internal/navigation"
)

// PositionSource is a time-indexed lat/lon reader, satisfied directly
// by navigation.Model or by any other source of positions keyed by
// sensor time.
type PositionSource interface {
	// PositionAt returns the best-known lat/lon at or before t, plus the
	// sample's own timestamp, or false if no sample is available at or
	// before t.
	PositionAt(t int64) (lat, lon float64, sampleTime int64, ok bool)
}

// Sample is one derived course reading.
type Sample struct {
	Time   int64
	Lat    float64
	Lon    float64
	Course float64 // degrees true, smoothed
	Speed  float64 // m/s, smoothed
}

const (
	earthRadiusMeters = 6371000.0
	// smoothingAlpha weights the newly observed bearing/speed against the
	// previous smoothed value: out = alpha*new + (1-alpha)*prev.
	smoothingAlpha = 0.3
)

// Track derives smoothed course-over-ground from two PositionSources that
// are expected to report the same physical track (e.g. a primary GNSS
// plus a backup), resampled onto the query time before differencing.
type Track struct {
	primary, secondary PositionSource

	hasPrev       bool
	prevLat       float64
	prevLon       float64
	prevTime      int64
	smoothCourse  float64
	smoothSpeed   float64
	smoothedValid bool
}

// New builds a Track over a primary position source; secondary may be
// nil, in which case Track falls back to the primary alone whenever the
// secondary has no sample at the query time.
func New(primary, secondary PositionSource) *Track {
	return &Track{primary: primary, secondary: secondary}
}

// At resamples both sources at t (preferring whichever has a sample at or
// before t and closest to it), differences against the previously
// observed fix, and returns the exponentially smoothed course/speed.
func (t *Track) At(queryTime int64) (Sample, bool) {
	lat, lon, sampleTime, ok := t.resample(queryTime)
	if !ok {
		return Sample{}, false
	}

	if !t.hasPrev {
		t.prevLat, t.prevLon, t.prevTime = lat, lon, sampleTime
		t.hasPrev = true
		return Sample{Time: sampleTime, Lat: lat, Lon: lon}, true
	}

	dt := float64(sampleTime-t.prevTime) / 1e6
	if dt <= 0 {
		return Sample{Time: sampleTime, Lat: lat, Lon: lon, Course: t.smoothCourse, Speed: t.smoothSpeed}, true
	}

	bearing := bearingDeg(t.prevLat, t.prevLon, lat, lon)
	if t.smoothedValid {
		bearing = navigation.UnwrapBearing(t.smoothCourse, bearing)
	}
	dist := haversineMeters(t.prevLat, t.prevLon, lat, lon)
	speed := dist / dt

	if t.smoothedValid {
		t.smoothCourse = smoothingAlpha*bearing + (1-smoothingAlpha)*t.smoothCourse
		t.smoothSpeed = smoothingAlpha*speed + (1-smoothingAlpha)*t.smoothSpeed
	} else {
		t.smoothCourse = bearing
		t.smoothSpeed = speed
		t.smoothedValid = true
	}

	t.prevLat, t.prevLon, t.prevTime = lat, lon, sampleTime
	return Sample{Time: sampleTime, Lat: lat, Lon: lon, Course: t.smoothCourse, Speed: t.smoothSpeed}, true
}

// resample picks whichever source has the fresher sample at or before
// queryTime, so two sources sampled at different native rates can still
// be differenced on a common time axis.
func (t *Track) resample(queryTime int64) (lat, lon float64, sampleTime int64, ok bool) {
	pLat, pLon, pTime, pOk := t.primary.PositionAt(queryTime)
	if t.secondary == nil {
		return pLat, pLon, pTime, pOk
	}
	sLat, sLon, sTime, sOk := t.secondary.PositionAt(queryTime)
	switch {
	case pOk && sOk:
		if sTime > pTime {
			return sLat, sLon, sTime, true
		}
		return pLat, pLon, pTime, true
	case pOk:
		return pLat, pLon, pTime, true
	case sOk:
		return sLat, sLon, sTime, true
	default:
		return 0, 0, 0, false
	}
}

func bearingDeg(lat0, lon0, lat1, lon1 float64) float64 {
	lat0r, lat1r := lat0*math.Pi/180, lat1*math.Pi/180
	dLon := (lon1 - lon0) * math.Pi / 180
	y := math.Sin(dLon) * math.Cos(lat1r)
	x := math.Cos(lat0r)*math.Sin(lat1r) - math.Sin(lat0r)*math.Cos(lat1r)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

func haversineMeters(lat0, lon0, lat1, lon1 float64) float64 {
	lat0r, lat1r := lat0*math.Pi/180, lat1*math.Pi/180
	dLat := (lat1 - lat0) * math.Pi / 180
	dLon := (lon1 - lon0) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat0r)*math.Cos(lat1r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
