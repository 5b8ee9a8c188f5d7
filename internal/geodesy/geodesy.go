// Package geodesy converts between geodetic coordinates (longitude,
// latitude in degrees) and a local topocentric frame (meters, origin
// at a reference point, X-axis rotated to an arbitrary heading), using
// the WGS84 empirical degree-length scale factors. The navigation
// model's antenna-to-vessel-center offset is this affine shift,
// expressed as a named forward/starboard pair and made invertible.
package geodesy

import "math"

// Coefficients holds the empirical degree-length scale-factor terms
// for a geodetic datum.
type Coefficients struct {
	A, B, C, D float64 // latitude meters-per-degree terms
	E, F, G    float64 // longitude meters-per-degree terms
}

// WGS84 returns the standard WGS84 empirical coefficients.
func WGS84() *Coefficients {
	return &Coefficients{
		A: 111132.92, B: 559.82, C: 1.175, D: 0.0023,
		E: 111412.84, F: 93.5, G: 0.118,
	}
}

func (c *Coefficients) scaleFactors(latRad float64) (latSF, lonSF float64) {
	latSF = c.A - c.B*math.Cos(2*latRad) + c.C*math.Cos(4*latRad) - c.D*math.Cos(6*latRad)
	lonSF = c.E*math.Cos(latRad) - c.F*math.Cos(3*latRad) + c.G*math.Cos(5*latRad)
	return
}

// ToGeodetic projects a point (forward, starboard) meters, expressed in
// a topocentric frame whose origin is (originLon, originLat) and whose
// X-axis points along headingDeg (0 = north, clockwise-positive),
// back to geodetic coordinates.
func ToGeodetic(coef *Coefficients, originLon, originLat, headingDeg, forward, starboard float64) (lon, lat float64) {
	latRad := originLat * math.Pi / 180.0
	headRad := headingDeg * math.Pi / 180.0
	latSF, lonSF := coef.scaleFactors(latRad)

	sinH, cosH := math.Sin(headRad), math.Cos(headRad)
	lon = originLon + cosH/lonSF*starboard + sinH/lonSF*forward
	lat = originLat - sinH/latSF*starboard + cosH/latSF*forward
	return
}

// ToTopocentric is the inverse of ToGeodetic: it recovers the
// (forward, starboard) offset in meters of (lon, lat) relative to
// (originLon, originLat) in a frame rotated to headingDeg.
func ToTopocentric(coef *Coefficients, originLon, originLat, headingDeg, lon, lat float64) (forward, starboard float64) {
	latRad := originLat * math.Pi / 180.0
	headRad := headingDeg * math.Pi / 180.0
	latSF, lonSF := coef.scaleFactors(latRad)

	dLon := (lon - originLon) * lonSF
	dLat := (lat - originLat) * latSF
	sinH, cosH := math.Sin(headRad), math.Cos(headRad)

	// The forward transform's 2x2 rotation-reflection matrix is its own
	// inverse, so the same sin/cos combination recovers the offset.
	forward = sinH*dLon + cosH*dLat
	starboard = cosH*dLon - sinH*dLat
	return
}
