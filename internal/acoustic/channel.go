// Package acoustic implements the acoustic channel: the per-channel
// read pipeline that opens a data channel plus its
// companion signals channel, locates the applicable reference signal by
// time, imports raw samples to complex float32, optionally applies a
// matched filter, and derives amplitude — all behind a single mutex and a
// fingerprint-keyed cache.
package acoustic

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"hydrocore/internal/cacheport"
	"hydrocore/internal/convolve"
	"hydrocore/internal/hbuffer"
	"hydrocore/internal/hconfig"
	"hydrocore/internal/obslog"
	"hydrocore/internal/storeport"
)

// Mode selects whether Open creates the channel (and its signals sibling)
// or opens an existing one for reading.
type Mode int

const (
	ModeRead Mode = iota
	ModeCreate
)

const signalMagnitudeEpsilon = 1e-7

type signalRecord struct {
	time     int64
	disabled bool // true once a zero/empty signal marks "convolution off"
	filter   *convolve.Engine
}

// Channel is the Acoustic Channel: a per-instance, mutex-serialized read
// pipeline over a Store Port data channel and its signals sibling.
type Channel struct {
	mu sync.Mutex

	store storeport.Port
	cache cacheport.Port // optional; nil disables caching

	storeURI  string
	keyPrefix string
	project   string
	track     string
	channel   string

	dataID    storeport.ChannelID
	signalsID storeport.ChannelID

	params hconfig.ChannelParams

	signals         []signalRecord
	lastSignalIndex int64 // highest signals-channel index already loaded; -1 if none

	rawBuf  *hbuffer.Buffer
	workBuf *hbuffer.Buffer

	nextExpectedAppendIndex int64
	readOnly                bool
	convolveEnabled         bool
}

// Open opens (or creates, per mode) a data channel and its companion
// signals channel and validates params. The params are kept in memory
// only: ModeCreate does not write them to the store, and ModeRead does
// not read stored parameters of either channel, so a frequency mismatch
// between the stored data and signals channels is not detected here.
func Open(store storeport.Port, cache cacheport.Port, storeURI, keyPrefix, project, track, channelName string, mode Mode, params hconfig.ChannelParams) (*Channel, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("acoustic: open %s/%s/%s: %w", project, track, channelName, err)
	}

	dataID, err := store.Open(project, track, channelName)
	if err != nil {
		return nil, fmt.Errorf("acoustic: open data channel: %w", err)
	}
	signalsID, err := store.Open(project, track, channelName+".signals")
	if err != nil {
		return nil, fmt.Errorf("acoustic: open signals channel: %w", err)
	}

	if mode == ModeRead {
		// Signals channel parameters must match the parent's frequency
		// and use complex float32 encoding; this core does not persist
		// channel parameters itself (that belongs to the Store Port), so
		// this check only guards the in-process params the caller
		// supplies for both channels being self-consistent.
		signalsParams := hconfig.ChannelParams{
			Version:              params.Version,
			DiscretizationType:   hconfig.DiscComplexFloat32,
			DiscretizationFreqHz: params.DiscretizationFreqHz,
		}
		if err := signalsParams.ValidateSignals(params); err != nil {
			return nil, fmt.Errorf("acoustic: signals channel mismatch: %w", err)
		}
	}

	c := &Channel{
		store:           store,
		cache:           cache,
		storeURI:        storeURI,
		keyPrefix:       keyPrefix,
		project:         project,
		track:           track,
		channel:         channelName,
		dataID:          dataID,
		signalsID:       signalsID,
		params:          params,
		lastSignalIndex: -1,
		rawBuf:          hbuffer.New(hbuffer.KindRaw),
		workBuf:         hbuffer.New(hbuffer.KindComplexFloat32),
		readOnly:        mode == ModeRead,
		convolveEnabled: true,
	}

	obslog.Logf("acoustic: opened channel %s/%s/%s mode=%v", project, track, channelName, mode)
	return c, nil
}

// Close releases the channel's store handles.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Close(c.dataID); err != nil {
		return err
	}
	obslog.Logf("acoustic: closed channel %s/%s/%s", c.project, c.track, c.channel)
	return c.store.Close(c.signalsID)
}

// SetConvolve is a session-scope toggle; it never alters stored signals.
func (c *Channel) SetConvolve(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.convolveEnabled = on
}

// AddSignal appends a signal record. A zero-length sample list (or a
// single sample whose magnitude is within 1e-7 of zero) disables
// convolution for all pings from time forward, until superseded by a
// later signal record.
func (c *Channel) AddSignal(time int64, samples []complex64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readOnly {
		return fmt.Errorf("acoustic: add_signal on read-opened channel")
	}
	raw := encodeComplex64(samples)
	if _, ok := c.store.Append(c.signalsID, time, raw); !ok {
		return fmt.Errorf("acoustic: append signal failed")
	}
	return nil
}

// AddPing appends a raw ping record. When a cache is attached, the ping
// is additionally processed on the writer path: amplitude is computed and
// speculatively stored under the expected-next index's cache key; if the
// store assigns a different index (signal loss/roll), the speculative
// entry is invalidated.
func (c *Channel) AddPing(time int64, raw []byte) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readOnly {
		return 0, false
	}

	sampleSize, ok := c.params.DiscretizationType.SampleSize()
	if !ok || len(raw)%sampleSize != 0 {
		return 0, false
	}

	expected := c.nextExpectedAppendIndex
	var speculativeKey string
	if c.cache != nil {
		c.reloadSignalsLocked()
		samples, err := c.params.DiscretizationType.Import(raw)
		if err == nil {
			c.applyFilterLocked(samples, time)
			amp := amplitudeOf(samples)
			speculativeKey = c.cacheKey(kindAmplitude, expected)
			out := hbuffer.New(hbuffer.KindFloat32)
			out.SetFloat32(amp)
			c.cache.Set2(speculativeKey, encodeTimeHeader(time), out.Bytes())
		}
	}

	assigned, ok := c.store.Append(c.dataID, time, raw)
	if !ok {
		return 0, false
	}
	if c.cache != nil && assigned != expected {
		c.cache.Delete(speculativeKey)
		obslog.Logf("acoustic: invalidated speculative cache entry %s (expected index %d, assigned %d)", speculativeKey, expected, assigned)
	}
	c.nextExpectedAppendIndex = assigned + 1
	return assigned, true
}

// Range passes through to the underlying data channel.
func (c *Channel) Range() (int64, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Range(c.dataID)
}

// FindData passes through to the underlying data channel.
func (c *Channel) FindData(t int64) (storeport.FindStatus, int64, int64, int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Find(c.dataID, t)
}

// IsWritable passes through to the underlying data channel. The tile
// generator uses this for its finality decision; a channel closed out
// from under us reports false here.
func (c *Channel) IsWritable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.IsWritable(c.dataID)
}

// RawCount returns the number of samples in the raw record at index.
func (c *Channel) RawCount(index int64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sampleSize, ok := c.params.DiscretizationType.SampleSize()
	if !ok {
		return 0, false
	}
	_, ok = c.store.Read(c.dataID, index, c.rawBuf)
	if !ok {
		return 0, false
	}
	if c.rawBuf.ByteLen()%sampleSize != 0 {
		return 0, false
	}
	return c.rawBuf.ByteLen() / sampleSize, true
}

// Raw returns the raw bytes and timestamp for index.
func (c *Channel) Raw(index int64) ([]byte, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.store.Read(c.dataID, index, c.rawBuf)
	if !ok {
		return nil, 0, false
	}
	out := make([]byte, c.rawBuf.ByteLen())
	copy(out, c.rawBuf.Bytes())
	return out, t, true
}

// Amplitude returns |z| per sample for ping index, cache-first.
func (c *Channel) Amplitude(index int64) ([]float32, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.cacheKey(kindAmplitude, index)
	if c.cache != nil {
		if header, body, ok := c.cache.Get2(key, 8); ok {
			buf := hbuffer.New(hbuffer.KindFloat32)
			buf.SetBytes(body)
			return buf.Float32Slice(), decodeTimeHeader(header), true
		}
	}

	samples, t, ok := c.readAndFilterLocked(index)
	if !ok {
		return nil, 0, false
	}
	amp := amplitudeOf(samples)

	if c.cache != nil {
		out := hbuffer.New(hbuffer.KindFloat32)
		out.SetFloat32(amp)
		c.cache.Set2(key, encodeTimeHeader(t), out.Bytes())
	}
	return amp, t, true
}

// Quadrature returns complex samples for ping index, cache-first.
func (c *Channel) Quadrature(index int64) ([]complex64, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.cacheKey(kindQuadrature, index)
	if c.cache != nil {
		if header, body, ok := c.cache.Get2(key, 8); ok {
			buf := hbuffer.New(hbuffer.KindComplexFloat32)
			buf.SetBytes(body)
			return buf.ComplexFloat32Slice(), decodeTimeHeader(header), true
		}
	}

	samples, t, ok := c.readAndFilterLocked(index)
	if !ok {
		return nil, 0, false
	}

	if c.cache != nil {
		out := hbuffer.New(hbuffer.KindComplexFloat32)
		out.SetComplexFloat32(samples)
		c.cache.Set2(key, encodeTimeHeader(t), out.Bytes())
	}
	return samples, t, true
}

// readAndFilterLocked performs the read → import → filter pipeline shared
// by Amplitude and Quadrature on a cache miss. Caller must hold c.mu.
func (c *Channel) readAndFilterLocked(index int64) ([]complex64, int64, bool) {
	c.reloadSignalsLocked()

	t, ok := c.store.Read(c.dataID, index, c.rawBuf)
	if !ok {
		return nil, 0, false
	}

	sampleSize, ok := c.params.DiscretizationType.SampleSize()
	if !ok || c.rawBuf.ByteLen()%sampleSize != 0 {
		return nil, 0, false
	}

	samples, err := c.params.DiscretizationType.Import(c.rawBuf.Bytes())
	if err != nil {
		return nil, 0, false
	}

	neededWorkBytes := (c.rawBuf.Cap() / sampleSize) * 8
	if c.workBuf.Cap() < neededWorkBytes {
		c.workBuf.Grow(neededWorkBytes)
	}

	c.applyFilterLocked(samples, t)
	return samples, t, true
}

// applyFilterLocked selects the applicable signal record (largest time
// ≤ ping time) and, if convolution is enabled and the record is not a
// disabling marker, applies its filter in place.
func (c *Channel) applyFilterLocked(samples []complex64, pingTime int64) {
	if !c.convolveEnabled {
		return
	}
	rec := c.selectSignalLocked(pingTime)
	if rec == nil || rec.disabled || rec.filter == nil {
		return
	}
	rec.filter.Apply(samples)
}

func (c *Channel) selectSignalLocked(pingTime int64) *signalRecord {
	var selected *signalRecord
	for i := range c.signals {
		if c.signals[i].time <= pingTime {
			selected = &c.signals[i]
		} else {
			break
		}
	}
	return selected
}

// reloadSignalsLocked reads any signal records appended since the last
// load. Called on every cache-miss read and on AddPing's cache-priming
// path, so a freshly computed result always sees the signals a
// concurrent writer has persisted. A cache hit returns without reloading.
func (c *Channel) reloadSignalsLocked() {
	first, last, ok := c.store.Range(c.signalsID)
	if !ok {
		return
	}
	start := c.lastSignalIndex + 1
	if start < first {
		start = first
	}
	buf := hbuffer.New(hbuffer.KindRaw)
	for i := start; i <= last; i++ {
		t, ok := c.store.Read(c.signalsID, i, buf)
		if !ok {
			continue
		}
		rec := decodeSignalRecord(t, buf.Bytes())
		c.signals = append(c.signals, rec)
		c.lastSignalIndex = i
	}
}

func decodeSignalRecord(t int64, raw []byte) signalRecord {
	if len(raw) == 0 {
		return signalRecord{time: t, disabled: true}
	}
	samples, err := hconfig.DiscComplexFloat32.Import(raw)
	if err != nil || len(samples) == 0 {
		return signalRecord{time: t, disabled: true}
	}
	if len(samples) == 1 && cmplx.Abs(complex128(samples[0])) < signalMagnitudeEpsilon {
		return signalRecord{time: t, disabled: true}
	}
	return signalRecord{time: t, filter: convolve.NewEngine(samples)}
}

func amplitudeOf(samples []complex64) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(math.Hypot(float64(real(s)), float64(imag(s))))
	}
	return out
}

func encodeTimeHeader(t int64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(t >> (8 * i))
	}
	return b[:]
}

func decodeTimeHeader(b []byte) int64 {
	var t int64
	for i := 0; i < 8 && i < len(b); i++ {
		t |= int64(b[i]) << (8 * i)
	}
	return t
}

func encodeComplex64(samples []complex64) []byte {
	buf := hbuffer.New(hbuffer.KindComplexFloat32)
	buf.SetComplexFloat32(samples)
	out := make([]byte, buf.ByteLen())
	copy(out, buf.Bytes())
	return out
}
