package navigation

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrocore/internal/geodesy"
	"hydrocore/internal/timeutil"
)

// rmcPosSentence builds an RMC with explicit position fields, for tests
// that need to steer the interpolated track rather than reuse the fixed
// fixture position rmcSentence carries.
func rmcPosSentence(hhmmss, ddmmyy, lat, ns, lon, ew string, course, speed float64) string {
	return nmeaSentence(fmt.Sprintf("GPRMC,%s,A,%s,%s,%s,%s,%.1f,%.1f,%s,,", hhmmss, lat, ns, lon, ew, speed, course, ddmmyy))
}

// Two fixes one second apart, delay 1s: resolving halfway between them
// lands halfway between the positions.
func TestResolveInterpolatesMidSegment(t *testing.T) {
	t.Parallel()
	m := New("gnss1", AntennaOffset{}, 0, 1.0)
	m.Ingest("gnss1", "src", 0, []byte(rmcPosSentence("000000.0", "010100", "0000.000", "N", "00000.000", "E", 0, 0)), 0)
	m.Ingest("gnss1", "src", 0, []byte(rmcPosSentence("000001.0", "010100", "0000.000", "N", "00000.060", "E", 0, 0)), 0)
	require.Len(t, m.ring, 2)

	// The timer offset was seeded from the first fix at wall time 0 with
	// a 1s delay, so wall 1.5s serves sensor time t0 + 0.5s.
	data, ok := m.Resolve(1_500_000)
	require.True(t, ok)
	assert.InDelta(t, 0.0005, data.Lon, 1e-6)
	assert.InDelta(t, 0.0, data.Lat, 1e-9)
	assert.False(t, data.SignalLost)
}

func TestResolveSegmentEndpointsMatchFixes(t *testing.T) {
	t.Parallel()
	m := New("gnss1", AntennaOffset{}, 0, 1.0)
	m.Ingest("gnss1", "src", 0, []byte(rmcPosSentence("000000.0", "010100", "0000.000", "N", "00000.000", "E", 0, 0)), 0)
	m.Ingest("gnss1", "src", 0, []byte(rmcPosSentence("000001.0", "010100", "0000.000", "N", "00000.060", "E", 0, 0)), 0)

	left, ok := m.Resolve(1_000_000) // serves sensor time t0
	require.True(t, ok)
	assert.InDelta(t, m.ring[0].ShipLon, left.Lon, 1e-9)

	right, ok := m.Resolve(2_000_000) // serves sensor time t1
	require.True(t, ok)
	assert.InDelta(t, m.ring[1].ShipLon, right.Lon, 1e-9)
}

func TestResolveLastValueModeReturnsTail(t *testing.T) {
	t.Parallel()
	m := New("gnss1", AntennaOffset{}, 0, 0)
	m.Ingest("gnss1", "src", 0, []byte(rmcPosSentence("000000.0", "010100", "0000.000", "N", "00000.000", "E", 0, 0)), 0)
	m.Ingest("gnss1", "src", 0, []byte(rmcPosSentence("000001.0", "010100", "0000.000", "N", "00000.060", "E", 0, 0)), 0)

	data, ok := m.Resolve(123)
	require.True(t, ok)
	assert.InDelta(t, m.ring[1].ShipLon, data.Lon, 1e-12)
}

func TestResolveFlagsSignalLostWhenStale(t *testing.T) {
	t.Parallel()
	m := New("gnss1", AntennaOffset{}, 0, 1.0)
	m.Ingest("gnss1", "src", 0, []byte(rmcPosSentence("000000.0", "010100", "0000.000", "N", "00000.000", "E", 0, 0)), 0)

	// Wall 10s serves sensor t0 + 9s, far past the only fix: delivery
	// still happens, but flagged.
	data, ok := m.Resolve(10_000_000)
	require.True(t, ok)
	assert.True(t, data.SignalLost)
}

func TestResolveFailsWithEmptyRing(t *testing.T) {
	t.Parallel()
	m := New("gnss1", AntennaOffset{}, 0, 1.0)
	_, ok := m.Resolve(0)
	assert.False(t, ok)
}

// A 1m-forward antenna on an east-heading ship puts the vessel center
// one meter west of the antenna.
func TestAntennaOffsetShiftsShipCenterAstern(t *testing.T) {
	t.Parallel()
	m := New("gnss1", AntennaOffset{Forward: 1}, 0, -1)
	m.Ingest("gnss1", "src", 0, []byte(rmcPosSentence("000000", "010100", "0000.000", "N", "01000.000", "E", 90, 0)), 0)
	require.Len(t, m.ring, 1)

	fix := m.ring[0]
	// Express the shift in a north-up frame at the antenna: the ship
	// center should sit 1m to the west (starboard = -1) and not move
	// north/south.
	forward, starboard := geodesy.ToTopocentric(geodesy.WGS84(), fix.AntennaLon, fix.AntennaLat, 0, fix.ShipLon, fix.ShipLat)
	assert.InDelta(t, 0.0, forward, 1e-6)
	assert.InDelta(t, -1.0, starboard, 1e-6)
}

func TestEmitterDeliversResolvedDataOnTick(t *testing.T) {
	t.Parallel()
	m := New("gnss1", AntennaOffset{}, 0, 0)
	m.Ingest("gnss1", "src", 0, []byte(rmcSentence("000000", "010100", 90, 5)), 0)
	require.Len(t, m.ring, 1)

	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	events := make(chan NavData, 4)
	e := StartEmitter(m, clock, 200, func(d NavData) { events <- d })
	defer e.Stop()

	clock.Advance(250 * time.Millisecond)

	var got NavData
	select {
	case got = <-events:
	case <-time.After(time.Second):
		t.Fatal("no emission after the tick fired")
	}

	fix := m.ring[0]
	want := NavData{
		Time:    fix.Time,
		Lat:     fix.ShipLat,
		Lon:     fix.ShipLon,
		Course:  90,
		Speed:   5,
		Heading: 90,
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestEmitterStopDrainsCleanly(t *testing.T) {
	t.Parallel()
	m := New("gnss1", AntennaOffset{}, 0, 0)
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	e := StartEmitter(m, clock, 200, func(NavData) {})
	e.Stop() // must not hang or panic with no fixes ingested
}
