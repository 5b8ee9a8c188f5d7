package storeport

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrocore/internal/hbuffer"
)

func TestMemPortAppendReadRoundTrip(t *testing.T) {
	t.Parallel()
	p := NewMemPort()
	id, err := p.Open("proj", uuid.NewString(), "chan1")
	require.NoError(t, err)

	idx, ok := p.Append(id, 1000, []byte{1, 2, 3, 4})
	require.True(t, ok)
	assert.Equal(t, int64(0), idx)

	buf := hbuffer.New(hbuffer.KindRaw)
	tm, ok := p.Read(id, idx, buf)
	require.True(t, ok)
	assert.Equal(t, int64(1000), tm)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())
}

func TestMemPortFind(t *testing.T) {
	t.Parallel()
	p := NewMemPort()
	id, _ := p.Open("proj", "t", "c")
	p.Append(id, 100, []byte{0})
	p.Append(id, 200, []byte{0})
	p.Append(id, 300, []byte{0})

	t.Run("left of range", func(t *testing.T) {
		t.Parallel()
		status, l, r, lt, rt := p.Find(id, 50)
		assert.Equal(t, FindLeft, status)
		assert.Equal(t, int64(0), l)
		assert.Equal(t, int64(0), r)
		assert.Equal(t, int64(100), lt)
		assert.Equal(t, int64(100), rt)
	})

	t.Run("right of range", func(t *testing.T) {
		t.Parallel()
		status, l, r, _, _ := p.Find(id, 1000)
		assert.Equal(t, FindRight, status)
		assert.Equal(t, int64(2), l)
		assert.Equal(t, int64(2), r)
	})

	t.Run("exact match", func(t *testing.T) {
		t.Parallel()
		status, l, r, lt, rt := p.Find(id, 200)
		assert.Equal(t, FindExact, status)
		assert.Equal(t, int64(1), l)
		assert.Equal(t, int64(1), r)
		assert.Equal(t, int64(200), lt)
		assert.Equal(t, int64(200), rt)
	})

	t.Run("straddle", func(t *testing.T) {
		t.Parallel()
		status, l, r, lt, rt := p.Find(id, 150)
		assert.Equal(t, FindWithin, status)
		assert.Equal(t, int64(0), l)
		assert.Equal(t, int64(1), r)
		assert.Equal(t, int64(100), lt)
		assert.Equal(t, int64(200), rt)
	})

	t.Run("exact match at first record", func(t *testing.T) {
		t.Parallel()
		status, l, r, _, _ := p.Find(id, 100)
		assert.Equal(t, FindExact, status)
		assert.Equal(t, int64(0), l)
		assert.Equal(t, int64(0), r)
	})

	t.Run("exact match at last record", func(t *testing.T) {
		t.Parallel()
		status, l, _, _, _ := p.Find(id, 300)
		assert.Equal(t, FindExact, status)
		assert.Equal(t, int64(2), l)
	})

	t.Run("empty channel fails", func(t *testing.T) {
		t.Parallel()
		empty, _ := p.Open("proj", "t", "empty")
		status, _, _, _, _ := p.Find(empty, 1)
		assert.Equal(t, FindFail, status)
	})
}

func TestMemPortWritability(t *testing.T) {
	t.Parallel()
	p := NewMemPort()
	id, _ := p.Open("proj", "t", "c")
	assert.True(t, p.IsWritable(id))

	p.SetWritable(id, false)
	_, ok := p.Append(id, 1, []byte{1})
	assert.False(t, ok)

	p.SetWritable(id, true)
	_, ok = p.Append(id, 1, []byte{1})
	assert.True(t, ok)
}

func TestMemPortCloseForGood(t *testing.T) {
	t.Parallel()
	p := NewMemPort()
	id, _ := p.Open("proj", "t", "c")
	p.Append(id, 1, []byte{1})

	p.CloseForGood(id)
	assert.False(t, p.IsWritable(id))
}

func TestMemPortModCount(t *testing.T) {
	t.Parallel()
	p := NewMemPort()
	id, _ := p.Open("proj", "t", "c")
	assert.Equal(t, uint32(0), p.ModCount(id))

	p.Append(id, 1, []byte{1})
	assert.Equal(t, uint32(1), p.ModCount(id))
}
