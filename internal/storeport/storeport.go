// Package storeport defines the Store Port capability interface — an
// abstract channel of time-indexed binary records — and an in-memory
// reference fixture (MemPort) used across the test suites in place of a
// real persistent track/channel store. Consumers never assume a storage
// format beyond this contract.
package storeport

import (
	"fmt"
	"sort"
	"sync"

	"hydrocore/internal/hbuffer"
)

// FindStatus classifies the result of a time-to-index search. EXACT
// means a record at that exact time exists; WITHIN means the query
// time straddles two adjacent records (ltime <= t < rtime, rindex =
// lindex+1); LEFT means the query time precedes the first record
// (clamp to the left-most index); RIGHT means it follows the last
// record (clamp to the right-most index). Only EXACT and WITHIN are
// in-range hits — consumers that require the query time to be covered
// by the channel must reject the two clamp cases.
type FindStatus int

const (
	FindExact FindStatus = iota
	FindWithin
	FindLeft
	FindRight
	FindFail
)

func (s FindStatus) String() string {
	switch s {
	case FindExact:
		return "EXACT"
	case FindWithin:
		return "WITHIN"
	case FindLeft:
		return "LEFT"
	case FindRight:
		return "RIGHT"
	default:
		return "FAIL"
	}
}

// InRange reports whether s is one of the two in-range outcomes
// (EXACT or WITHIN), as opposed to a clamp or a failure.
func (s FindStatus) InRange() bool {
	return s == FindExact || s == FindWithin
}

// ChannelID is an opaque, comparable handle suitable for direct use as a
// map key, so fixtures need no separate allocator.
type ChannelID struct {
	project, track, channel string
}

// NewChannelID mints a ChannelID from its three addressing components.
// Exported so a Port implementation backed by real storage (outside this
// package, e.g. internal/storeref/sqlite) can construct IDs matching the
// same (project, track, channel) addressing scheme MemPort uses.
func NewChannelID(project, track, channel string) ChannelID {
	return ChannelID{project: project, track: track, channel: channel}
}

// Project, Track, and Channel expose ChannelID's addressing components,
// for Port implementations that need to key their own storage by them.
func (id ChannelID) Project() string { return id.project }
func (id ChannelID) Track() string   { return id.track }
func (id ChannelID) Channel() string { return id.channel }

// Port is the Store Port contract consumed by the core.
type Port interface {
	Open(project, track, channel string) (ChannelID, error)
	Close(id ChannelID) error
	// Range reports the inclusive index range of records currently
	// present. ok is false for an empty channel.
	Range(id ChannelID) (first, last int64, ok bool)
	// Find performs a time-to-index binary search. See FindStatus for the
	// semantics of each outcome.
	Find(id ChannelID, t int64) (status FindStatus, lindex, rindex, ltime, rtime int64)
	// Read fetches the record at index into buf, growing buf as needed.
	// Returns the record's timestamp and whether the read succeeded.
	Read(id ChannelID, index int64, buf *hbuffer.Buffer) (t int64, ok bool)
	// Append adds a new record at the channel's tail, returning its
	// assigned index. Fails if the channel is not writable.
	Append(id ChannelID, t int64, data []byte) (index int64, ok bool)
	// IsWritable reports whether the channel accepts Append calls.
	IsWritable(id ChannelID) bool
	// ModCount is a strictly non-decreasing counter; a change signals
	// that content may have changed since it was last observed.
	ModCount(id ChannelID) uint32
}

type record struct {
	t    int64
	data []byte
}

type channel struct {
	records  []record // sorted by t ascending
	writable bool
	modCount uint32
	closed   bool
}

// MemPort is a mutex-guarded in-memory Port, the reference Store Port
// fixture used throughout the test suites.
type MemPort struct {
	mu       sync.Mutex
	channels map[ChannelID]*channel
}

// NewMemPort returns an empty MemPort.
func NewMemPort() *MemPort {
	return &MemPort{channels: make(map[ChannelID]*channel)}
}

// Open creates (if absent) and returns a handle to the named channel,
// writable by default.
func (m *MemPort) Open(project, track, channelName string) (ChannelID, error) {
	id := ChannelID{project: project, track: track, channel: channelName}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[id]; !ok {
		m.channels[id] = &channel{writable: true}
	}
	return id, nil
}

func (m *MemPort) Close(id ChannelID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		return fmt.Errorf("storeport: close: unknown channel %+v", id)
	}
	ch.closed = true
	return nil
}

func (m *MemPort) Range(id ChannelID) (int64, int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok || len(ch.records) == 0 {
		return 0, 0, false
	}
	return 0, int64(len(ch.records)) - 1, true
}

func (m *MemPort) Find(id ChannelID, t int64) (FindStatus, int64, int64, int64, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok || len(ch.records) == 0 {
		return FindFail, 0, 0, 0, 0
	}
	n := len(ch.records)
	if t < ch.records[0].t {
		return FindLeft, 0, 0, ch.records[0].t, ch.records[0].t
	}
	if t > ch.records[n-1].t {
		last := int64(n - 1)
		return FindRight, last, last, ch.records[n-1].t, ch.records[n-1].t
	}
	// binary search for the first record with time >= t
	i := sort.Search(n, func(i int) bool { return ch.records[i].t >= t })
	if ch.records[i].t == t {
		return FindExact, int64(i), int64(i), t, t
	}
	return FindWithin, int64(i - 1), int64(i), ch.records[i-1].t, ch.records[i].t
}

func (m *MemPort) Read(id ChannelID, index int64, buf *hbuffer.Buffer) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok || index < 0 || index >= int64(len(ch.records)) {
		return 0, false
	}
	r := ch.records[index]
	buf.SetBytes(r.data)
	return r.t, true
}

func (m *MemPort) Append(id ChannelID, t int64, data []byte) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok || !ch.writable || ch.closed {
		return 0, false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	ch.records = append(ch.records, record{t: t, data: cp})
	ch.modCount++
	return int64(len(ch.records) - 1), true
}

func (m *MemPort) IsWritable(id ChannelID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	return ok && ch.writable && !ch.closed
}

func (m *MemPort) ModCount(id ChannelID) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		return 0
	}
	return ch.modCount
}

// SetWritable toggles a channel's writability, for tests simulating a
// store transitioning to read-only.
func (m *MemPort) SetWritable(id ChannelID, writable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[id]; ok {
		ch.writable = writable
	}
}

// CloseForGood marks the channel both closed and non-writable,
// simulating the underlying store channel being closed out from under
// its readers — used by tile-finality tests.
func (m *MemPort) CloseForGood(id ChannelID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[id]; ok {
		ch.writable = false
		ch.closed = true
	}
}
