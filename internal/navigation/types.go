package navigation

// FixRecord is one admitted position fix plus the cubic segment that
// carries forward to the next fix in the ring.
type FixRecord struct {
	Time int64 // sensor time, microseconds since Unix epoch

	AntennaLat, AntennaLon float64
	ShipLat, ShipLon       float64

	Course float64 // degrees true, from RMC
	Speed  float64 // knots, from RMC

	Heading     float64 // degrees; HDT value if TrueHeading, else Course
	TrueHeading bool

	LatDeriv, LonDeriv float64 // degrees/second, from course+speed

	hasSegment                 bool
	dt                         float64 // segment duration to the next fix, seconds
	aLat, bLat, cLat, dLat     float64
	aLon, bLon, cLon, dLon     float64
}

// NavData is one resolved navigation sample, delivered to a consumer
// either via the emitter or a direct Resolve call.
type NavData struct {
	Time        int64 // sensor time served, microseconds
	Lat, Lon    float64
	Course      float64
	Speed       float64
	Heading     float64
	TrueHeading bool
	SignalLost  bool
}

// AntennaOffset places the GNSS antenna relative to the ship's
// reference center, in the ship's own topocentric frame:
// Forward is the antenna's distance ahead of center (meters), Starboard
// to its right, and Yaw is the antenna mount's rotation relative to the
// ship's centerline (degrees).
type AntennaOffset struct {
	Forward, Starboard, Yaw float64
}
