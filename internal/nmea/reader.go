package nmea

import (
	"sync"

	"hydrocore/internal/hbuffer"
	"hydrocore/internal/storeport"
)

// Reader serves one scalar field out of a store channel of raw NMEA
// sentence records: FindData/Range delegate to the store, Get adds the
// field parse on top.
type Reader struct {
	mu    sync.Mutex
	store storeport.Port
	id    storeport.ChannelID
	field Field
	buf   *hbuffer.Buffer
}

// Open binds a Reader to an existing project/track/channel of raw
// NMEA sentence bytes, extracting field on every Get.
func Open(store storeport.Port, project, track, channel string, field Field) (*Reader, error) {
	id, err := store.Open(project, track, channel)
	if err != nil {
		return nil, err
	}
	return &Reader{store: store, id: id, field: field, buf: hbuffer.New(hbuffer.KindRaw)}, nil
}

// Append stores one raw sentence (or a buffer of several concatenated
// ones) at time t.
func (r *Reader) Append(t int64, raw []byte) (int64, bool) {
	return r.store.Append(r.id, t, raw)
}

// FindData delegates to the underlying store.
func (r *Reader) FindData(t int64) (storeport.FindStatus, int64, int64, int64, int64) {
	return r.store.Find(r.id, t)
}

// Range delegates to the underlying store.
func (r *Reader) Range() (first, last int64, ok bool) {
	return r.store.Range(r.id)
}

// Get fetches the sentence at index and parses the Reader's bound
// field out of it.
func (r *Reader) Get(index int64) (time int64, value float64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store.Read(r.id, index, r.buf)
	if !ok {
		return 0, 0, false
	}
	raw := string(r.buf.Bytes())
	sentences := Split(raw)
	if len(sentences) == 0 {
		sentences = []string{raw}
	}
	for _, s := range sentences {
		typ := Classify(s)
		if typ == Invalid {
			continue
		}
		if v, ok := Parse(s, typ, r.field); ok {
			return t, v, true
		}
	}
	return 0, 0, false
}

// Value adapts Get to the FieldSource shape the depthometer consumes:
// it discards the timestamp, matching a "current field value at this
// index" read.
func (r *Reader) Value(index int64) (float64, bool) {
	_, v, ok := r.Get(index)
	return v, ok
}
