// Package navigation implements the navigation model: an ingestion
// point for NMEA sensor callbacks that maintains a bounded ring of
// position fixes and serves interpolated or last-value
// position/heading data on a recurring timer.
//
// Sensor callbacks may arrive on any goroutine. The fix ring and
// heading state live behind their own mutex, independent from a second
// mutex guarding the sensor-identity configuration, so renaming the
// admitted sensor never blocks a resolve in flight.
package navigation

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"hydrocore/internal/geodesy"
	"hydrocore/internal/nmea"
)

const (
	signalLossDeltaSeconds = 2.0
	fixMinDeltaSeconds     = 0.01
	headingMatchSeconds    = 5.0
	defaultRingDepth       = 30
	defaultDelaySeconds    = 1.0
)

// Model is the Navigation Model. Zero value is not usable; construct
// with New.
type Model struct {
	identityMu     sync.Mutex
	configuredName string
	antenna        AntennaOffset
	delaySeconds   float64
	ringDepth      int
	coef           *geodesy.Coefficients

	ringMu           sync.Mutex
	ring             []FixRecord
	pendingHeading   float64
	pendingHeadingAt int64
	hasPending       bool
	timerOffset      float64
	timerOffsetSet   bool

	gga          *GGAFallback
	dateAnchorUs int64 // UTC midnight, microseconds, from the last RMC's date field
}

// New constructs a Model that only admits sensor data from
// configuredName. ringDepth <= 0 and delaySeconds < 0 select the
// defaults (30 fixes, 1.0s delay).
func New(configuredName string, antenna AntennaOffset, ringDepth int, delaySeconds float64) *Model {
	if ringDepth <= 0 {
		ringDepth = defaultRingDepth
	}
	if delaySeconds < 0 {
		delaySeconds = defaultDelaySeconds
	}
	return &Model{
		configuredName: configuredName,
		antenna:        antenna,
		delaySeconds:   delaySeconds,
		ringDepth:      ringDepth,
		coef:           geodesy.WGS84(),
		gga:            NewGGAFallback(),
	}
}

// SetConfiguredName changes which sensor name Ingest admits data from.
func (m *Model) SetConfiguredName(name string) {
	m.identityMu.Lock()
	defer m.identityMu.Unlock()
	m.configuredName = name
}

func (m *Model) matchesName(name string) bool {
	m.identityMu.Lock()
	defer m.identityMu.Unlock()
	return name == m.configuredName
}

// Ingest delivers one sensor callback: (name, source, time, bytes).
// name is compared against the configured sensor name; non-matching
// callbacks are dropped. wallNowUs is the caller's wall-clock reading
// in microseconds, used only to seed the interpolation timer offset on
// the very first admitted fix.
func (m *Model) Ingest(name, source string, timeUs int64, data []byte, wallNowUs int64) {
	if !m.matchesName(name) {
		return
	}
	for _, s := range nmea.Split(string(data)) {
		typ := nmea.Classify(s)
		switch {
		case typ == nmea.Invalid:
			continue
		case typ == nmea.RMC:
			m.ingestRMC(s, wallNowUs)
		case typ == nmea.GGA:
			m.ingestGGA(s, timeUs, wallNowUs)
		case isHDT(s):
			if heading, ok := parseHDT(s); ok {
				m.recordHeading(heading, timeUs)
			}
		}
	}
}

func (m *Model) ingestRMC(sentence string, wallNowUs int64) {
	lat, ok1 := nmea.Parse(sentence, nmea.RMC, nmea.FieldLat)
	lon, ok2 := nmea.Parse(sentence, nmea.RMC, nmea.FieldLon)
	if !ok1 || !ok2 {
		return
	}
	timeOfDay, _ := nmea.Parse(sentence, nmea.RMC, nmea.FieldTime)
	dateSeconds, _ := nmea.Parse(sentence, nmea.RMC, nmea.FieldDate)
	course, _ := nmea.Parse(sentence, nmea.RMC, nmea.FieldCourse)
	speed, _ := nmea.Parse(sentence, nmea.RMC, nmea.FieldSpeed)

	sensorTimeUs := int64((dateSeconds + timeOfDay) * 1e6)

	m.ringMu.Lock()
	m.dateAnchorUs = int64(dateSeconds * 1e6)
	m.ringMu.Unlock()

	m.admitFix(lat, lon, course, speed, sensorTimeUs, wallNowUs)
}

// ingestGGA is the GGA-only fallback path: GGA sentences carry no date
// field, so their time-of-day is anchored to the most recent RMC's
// date (midnight UTC of that day, or the Unix epoch if no RMC has ever
// been admitted). It only feeds the fallback accumulator and admits a
// synthesized fix while the ring is empty; once real RMC fixes are
// flowing, GGA position is ignored for fix admission.
func (m *Model) ingestGGA(sentence string, wallClockTimeUs, wallNowUs int64) {
	lat, ok1 := nmea.Parse(sentence, nmea.GGA, nmea.FieldLat)
	lon, ok2 := nmea.Parse(sentence, nmea.GGA, nmea.FieldLon)
	timeOfDay, ok3 := nmea.Parse(sentence, nmea.GGA, nmea.FieldTime)
	if !ok1 || !ok2 || !ok3 {
		return
	}

	m.ringMu.Lock()
	ringEmpty := len(m.ring) == 0
	sensorTimeUs := m.dateAnchorUs + int64(timeOfDay*1e6)
	m.gga.AddFix(sensorTimeUs, lat, lon)
	course, speedKnots, haveCourse := m.gga.Course()
	m.ringMu.Unlock()

	if !ringEmpty || !haveCourse {
		return
	}
	m.admitFix(lat, lon, course, speedKnots, sensorTimeUs, wallNowUs)
}

// admitFix runs the fix-admission rules in order.
func (m *Model) admitFix(antennaLat, antennaLon, course, speed float64, sensorTimeUs, wallNowUs int64) {
	m.ringMu.Lock()
	defer m.ringMu.Unlock()

	n := len(m.ring)

	// Rule 1: signal loss clears the list.
	if n > 0 {
		tail := m.ring[n-1]
		if math.Abs(float64(sensorTimeUs-tail.Time)) > signalLossDeltaSeconds*1e6 {
			m.ring = nil
			n = 0
		}
	}

	// Rule 2: discard near-duplicate timestamps.
	if n > 0 {
		tail := m.ring[n-1]
		if math.Abs(float64(sensorTimeUs-tail.Time)) <= fixMinDeltaSeconds*1e6 {
			return
		}
	}

	// Rule 3: copy the fix in, resolving heading.
	fix := FixRecord{
		Time:       sensorTimeUs,
		AntennaLat: antennaLat,
		AntennaLon: antennaLon,
		Course:     course,
		Speed:      speed,
		Heading:    course,
	}
	if m.hasPending && math.Abs(float64(sensorTimeUs-m.pendingHeadingAt)) <= headingMatchSeconds*1e6 {
		fix.Heading = m.pendingHeading
		fix.TrueHeading = true
		m.hasPending = false
	}

	// Rule 4: ship position from antenna position via the offset.
	m.deriveShipPosition(&fix)

	courseRad := course * math.Pi / 180.0
	fix.LatDeriv = knotsToDegLat(speed * math.Cos(courseRad))
	fix.LonDeriv = knotsToDegLon(speed*math.Sin(courseRad), antennaLat)

	m.ring = append(m.ring, fix)
	n = len(m.ring)

	// Rule 5: seed the interpolation timer offset once.
	if !m.timerOffsetSet {
		m.timerOffset = float64(sensorTimeUs) - float64(wallNowUs) - m.delaySeconds*1e6
		m.timerOffsetSet = true
	}

	// Rule 6: bound the ring.
	if n > m.ringDepth {
		m.ring = m.ring[1:]
		n = len(m.ring)
	}

	// Rule 7: the previous tail's outgoing segment targets the new tail.
	if n >= 2 {
		m.computeSegment(n - 2)
	}
}

// deriveShipPosition builds a topocentric frame rooted at the antenna,
// X-axis along the fix's heading, and places the ship center at
// (-Forward, Starboard) in it.
func (m *Model) deriveShipPosition(fix *FixRecord) {
	shipHeading := fix.Heading - m.antenna.Yaw
	lon, lat := geodesy.ToGeodetic(m.coef, fix.AntennaLon, fix.AntennaLat, shipHeading, -m.antenna.Forward, m.antenna.Starboard)
	fix.ShipLat, fix.ShipLon = lat, lon
}

func (m *Model) computeSegment(prevIdx int) {
	prev := &m.ring[prevIdx]
	cur := &m.ring[prevIdx+1]
	dt := float64(cur.Time-prev.Time) / 1e6
	if dt <= 0 {
		prev.hasSegment = false
		return
	}
	prev.dt = dt
	prev.aLat, prev.bLat, prev.cLat, prev.dLat = solveCubicSegment(prev.ShipLat, prev.LatDeriv, cur.ShipLat, cur.LatDeriv, dt)
	prev.aLon, prev.bLon, prev.cLon, prev.dLon = solveCubicSegment(prev.ShipLon, prev.LonDeriv, cur.ShipLon, cur.LonDeriv, dt)
	prev.hasSegment = true
}

// recordHeading implements the "HDT late arrival" rule: if HDT lands
// close enough to the current tail's time it updates the tail in
// place (and its ship position); otherwise it's held as pending for
// the next admitted fix.
func (m *Model) recordHeading(heading float64, atUs int64) {
	m.ringMu.Lock()
	defer m.ringMu.Unlock()

	n := len(m.ring)
	if n == 0 {
		m.pendingHeading, m.pendingHeadingAt, m.hasPending = heading, atUs, true
		return
	}
	tail := &m.ring[n-1]
	if math.Abs(float64(atUs-tail.Time)) <= headingMatchSeconds*1e6 {
		tail.Heading = heading
		tail.TrueHeading = true
		m.deriveShipPosition(tail)
		if n >= 2 {
			m.computeSegment(n - 2)
		}
		return
	}
	m.pendingHeading, m.pendingHeadingAt, m.hasPending = heading, atUs, true
}

// isHDT reports whether sentence is a checksum-valid heading-true
// sentence (talker + "HDT"). The nmea package's field table doesn't
// cover HDT since it's consumed directly by fix admission, not through
// a store channel.
func isHDT(sentence string) bool {
	if nmea.Classify(sentence) == nmea.Invalid {
		return false
	}
	star := strings.IndexByte(sentence, '*')
	if star < 0 {
		return false
	}
	body := sentence[1:star]
	comma := strings.IndexByte(body, ',')
	if comma < 5 {
		return false
	}
	return body[comma-3:comma] == "HDT"
}

func parseHDT(sentence string) (float64, bool) {
	star := strings.IndexByte(sentence, '*')
	if star < 0 {
		return 0, false
	}
	parts := strings.Split(sentence[1:star], ",")
	if len(parts) < 2 || parts[1] == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PositionAt returns the ship-center position of the youngest fix at or
// before t, searching the ring tail-to-head. It satisfies
// internal/trackdata's PositionSource interface, letting Track Data
// difference two Navigation Models (e.g. primary/backup GNSS) without an
// adapter type.
func (m *Model) PositionAt(t int64) (lat, lon float64, sampleTime int64, ok bool) {
	m.ringMu.Lock()
	defer m.ringMu.Unlock()
	for i := len(m.ring) - 1; i >= 0; i-- {
		f := m.ring[i]
		if f.Time <= t {
			return f.ShipLat, f.ShipLon, f.Time, true
		}
	}
	return 0, 0, 0, false
}
