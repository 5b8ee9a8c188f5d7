package navigation

import (
	"math"
	"time"

	"hydrocore/internal/timeutil"
)

func durationFromMs(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Resolve serves one navigation sample in one of two delivery modes.
// wallNowUs is the caller's current wall-clock reading in microseconds.
//
// Interpolation mode (delaySeconds > 0): serves data for
// wallNowUs + timerOffset, searching the ring tail-to-head for the
// youngest fix whose segment covers that time; falls back to the
// tail's raw values if none covers it.
//
// Last-value mode (delaySeconds == 0): always the tail's raw values.
func (m *Model) Resolve(wallNowUs int64) (NavData, bool) {
	m.ringMu.Lock()
	defer m.ringMu.Unlock()

	n := len(m.ring)
	if n == 0 || !m.timerOffsetSet {
		return NavData{}, false
	}
	tail := m.ring[n-1]

	if m.delaySeconds <= 0 {
		return m.tailData(tail, tail.Time, wallNowUs), true
	}

	serveUs := wallNowUs + int64(m.timerOffset)
	for i := n - 1; i >= 0; i-- {
		f := m.ring[i]
		if !f.hasSegment {
			if f.Time <= serveUs {
				return m.tailData(f, serveUs, wallNowUs), true
			}
			continue
		}
		upper := f.Time + int64(f.dt*1e6)
		if f.Time <= serveUs && serveUs <= upper {
			tau := float64(serveUs-f.Time) / 1e6
			lat := evalCubic(f.aLat, f.bLat, f.cLat, f.dLat, tau)
			lon := evalCubic(f.aLon, f.bLon, f.cLon, f.dLon, tau)
			return NavData{
				Time:        serveUs,
				Lat:         lat,
				Lon:         lon,
				Course:      f.Course,
				Speed:       f.Speed,
				Heading:     f.Heading,
				TrueHeading: f.TrueHeading,
				SignalLost:  m.isStale(tail.Time, serveUs),
			}, true
		}
	}
	return m.tailData(tail, serveUs, wallNowUs), true
}

func (m *Model) tailData(f FixRecord, servedTime, wallNowUs int64) NavData {
	return NavData{
		Time:        servedTime,
		Lat:         f.ShipLat,
		Lon:         f.ShipLon,
		Course:      f.Course,
		Speed:       f.Speed,
		Heading:     f.Heading,
		TrueHeading: f.TrueHeading,
		SignalLost:  m.isStale(f.Time, servedTime),
	}
}

func (m *Model) isStale(lastFixTime, servedTime int64) bool {
	return math.Abs(float64(servedTime-lastFixTime)) > signalLossDeltaSeconds*1e6
}

// Emitter drives Resolve on a recurring timer and hands each NavData
// to callback synchronously on the timer's own goroutine; consumers
// must not block in the callback.
type Emitter struct {
	model  *Model
	clock  timeutil.Clock
	ticker timeutil.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
}

// StartEmitter starts a recurring timer firing every intervalMs
// milliseconds; each tick resolves the model's current data (using the
// clock's own notion of "now" in microseconds) and calls callback. Stop
// the emitter by calling Stop.
func StartEmitter(model *Model, clock timeutil.Clock, intervalMs int64, callback func(NavData)) *Emitter {
	e := &Emitter{
		model:  model,
		clock:  clock,
		ticker: clock.NewTicker(durationFromMs(intervalMs)),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go e.run(callback)
	return e
}

func (e *Emitter) run(callback func(NavData)) {
	defer close(e.doneCh)
	for {
		select {
		case <-e.stopCh:
			return
		case now := <-e.ticker.C():
			wallNowUs := now.UnixMicro()
			if data, ok := e.model.Resolve(wallNowUs); ok {
				callback(data)
			}
		}
	}
}

// Stop terminates the emitter and waits for its goroutine to exit.
func (e *Emitter) Stop() {
	e.ticker.Stop()
	close(e.stopCh)
	<-e.doneCh
}
