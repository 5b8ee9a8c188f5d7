package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrocore/internal/hbuffer"
	"hydrocore/internal/storeport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hydrocore.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.CloseStore() })
	return s
}

func TestOpenIsIdempotentForSameAddress(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id1, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)
	id2, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestAppendAndReadRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)

	idx, ok := s.Append(id, 1000, []byte{1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, int64(0), idx)

	buf := hbuffer.New(hbuffer.KindRaw)
	tm, ok := s.Read(id, idx, buf)
	require.True(t, ok)
	assert.Equal(t, int64(1000), tm)
	assert.Equal(t, []byte{1, 2, 3}, buf.Bytes())
}

func TestAppendAssignsSequentialIndices(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)

	i0, _ := s.Append(id, 0, []byte{0})
	i1, _ := s.Append(id, 100, []byte{1})
	i2, _ := s.Append(id, 200, []byte{2})
	assert.Equal(t, []int64{0, 1, 2}, []int64{i0, i1, i2})
}

func TestRangeReflectsRecordCount(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)

	_, _, ok := s.Range(id)
	assert.False(t, ok, "empty channel has no range")

	s.Append(id, 0, []byte{0})
	s.Append(id, 100, []byte{1})
	first, last, ok := s.Range(id)
	require.True(t, ok)
	assert.Equal(t, int64(0), first)
	assert.Equal(t, int64(1), last)
}

func TestFindStraddlesBetweenRecords(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)
	s.Append(id, 0, []byte{0})
	s.Append(id, 1000, []byte{1})

	status, lidx, ridx, ltime, rtime := s.Find(id, 500)
	assert.Equal(t, storeport.FindWithin, status)
	assert.Equal(t, int64(0), lidx)
	assert.Equal(t, int64(1), ridx)
	assert.Equal(t, int64(0), ltime)
	assert.Equal(t, int64(1000), rtime)
}

func TestFindExactMatch(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)
	s.Append(id, 0, []byte{0})
	s.Append(id, 1000, []byte{1})

	status, lidx, ridx, _, _ := s.Find(id, 1000)
	assert.Equal(t, storeport.FindExact, status)
	assert.Equal(t, int64(1), lidx)
	assert.Equal(t, int64(1), ridx)
}

func TestFindClampsAtEdges(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)
	s.Append(id, 100, []byte{0})
	s.Append(id, 200, []byte{1})

	status, _, _, _, _ := s.Find(id, 0)
	assert.Equal(t, storeport.FindLeft, status)

	status, _, _, _, _ = s.Find(id, 1000)
	assert.Equal(t, storeport.FindRight, status)
}

func TestAppendFailsWhenNotWritable(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)
	s.SetWritable(id, false)

	_, ok := s.Append(id, 0, []byte{0})
	assert.False(t, ok)
}

func TestCloseMarksChannelUnwritable(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)
	require.NoError(t, s.Close(id))

	assert.False(t, s.IsWritable(id))
	_, ok := s.Append(id, 0, []byte{0})
	assert.False(t, ok)
}

func TestModCountIncreasesOnAppend(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, err := s.Open("proj", "trk", "chan1")
	require.NoError(t, err)

	before := s.ModCount(id)
	s.Append(id, 0, []byte{0})
	after := s.ModCount(id)
	assert.Greater(t, after, before)
}

func TestChannelsAreIndependent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	track := uuid.NewString()
	a, err := s.Open("proj", track, "chanA")
	require.NoError(t, err)
	b, err := s.Open("proj", track, "chanB")
	require.NoError(t, err)

	s.Append(a, 0, []byte{0})
	_, _, okA := s.Range(a)
	_, _, okB := s.Range(b)
	assert.True(t, okA)
	assert.False(t, okB)
}
