package navigation

import "math"

const (
	ggaFallbackMaxFixes    = 20
	ggaFallbackMaxSpanSecs = 5.0
)

// UnwrapBearing adjusts bearing (degrees, [0,360)) by multiples of 360
// so it falls within 180° of ref, avoiding a spurious jump across the
// 0/360° boundary. Exported for
// reuse by internal/trackdata, which performs the same two-point bearing
// differencing this package's GGA fallback does.
func UnwrapBearing(ref, bearing float64) float64 {
	for bearing-ref > 180 {
		bearing -= 360
	}
	for bearing-ref < -180 {
		bearing += 360
	}
	return bearing
}

type ggaFix struct {
	timeUs   int64
	lat, lon float64
}

// GGAFallback synthesizes course and speed for GGA-only streams: it
// retains the last up to 20 position fixes (stopping the window early
// if the span exceeds 5s) and substitutes a two-point bearing and
// speed computed from the oldest retained fix to the newest. This is
// deliberately not a running mean over per-fix bearings; consumers
// depend on the two-point behavior.
type GGAFallback struct {
	fixes       []ggaFix
	hasBearing  bool
	lastBearing float64
}

// NewGGAFallback returns an empty fallback accumulator.
func NewGGAFallback() *GGAFallback { return &GGAFallback{} }

// AddFix records one GGA-derived position sample.
func (g *GGAFallback) AddFix(timeUs int64, lat, lon float64) {
	g.fixes = append(g.fixes, ggaFix{timeUs: timeUs, lat: lat, lon: lon})
	if len(g.fixes) > ggaFallbackMaxFixes {
		g.fixes = g.fixes[len(g.fixes)-ggaFallbackMaxFixes:]
	}
	// Trim from the front while the retained span exceeds the cap.
	for len(g.fixes) > 1 {
		span := float64(g.fixes[len(g.fixes)-1].timeUs-g.fixes[0].timeUs) / 1e6
		if span <= ggaFallbackMaxSpanSecs {
			break
		}
		g.fixes = g.fixes[1:]
	}
}

// Course returns the two-point bearing (degrees true, unwrapped relative
// to the last value this call returned) and speed (knots) across the
// retained fix window, or false if fewer than two fixes are available.
func (g *GGAFallback) Course() (courseDeg, speedKnots float64, ok bool) {
	n := len(g.fixes)
	if n < 2 {
		return 0, 0, false
	}
	first, last := g.fixes[0], g.fixes[n-1]
	dt := float64(last.timeUs-first.timeUs) / 1e6
	if dt <= 0 {
		return 0, 0, false
	}

	lat0r, lat1r := first.lat*math.Pi/180, last.lat*math.Pi/180
	dLon := (last.lon - first.lon) * math.Pi / 180
	y := math.Sin(dLon) * math.Cos(lat1r)
	x := math.Cos(lat0r)*math.Sin(lat1r) - math.Sin(lat0r)*math.Cos(lat1r)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * 180 / math.Pi
	if bearing < 0 {
		bearing += 360
	}
	if g.hasBearing {
		bearing = UnwrapBearing(g.lastBearing, bearing)
	}
	g.lastBearing = bearing
	g.hasBearing = true

	distMeters := haversineMeters(first.lat, first.lon, last.lat, last.lon)
	speedMPS := distMeters / dt
	return bearing, speedMPS / (nauticalMileMeters / 3600.0), true
}

func haversineMeters(lat0, lon0, lat1, lon1 float64) float64 {
	const earthRadiusMeters = 6371000.0
	lat0r, lat1r := lat0*math.Pi/180, lat1*math.Pi/180
	dLat := (lat1 - lat0) * math.Pi / 180
	dLon := (lon1 - lon0) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat0r)*math.Cos(lat1r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
