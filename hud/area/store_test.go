package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store[string, string] {
	return NewStore[string, string]()
}

func sprite(id string) *string {
	return &id
}

func TestHandlesStrictlyIncreasing(t *testing.T) {
	s := newTestStore()

	h1 := s.Add(Area[string, string]{Enabled: true})
	h2 := s.Add(Area[string, string]{Enabled: true})
	assert.Equal(t, Handle(1), h1)
	assert.Equal(t, Handle(2), h2)

	s.Remove(h1)
	for _, h := range s.TakeRemovals() {
		s.Drop(h)
	}

	h3 := s.Add(Area[string, string]{Enabled: true})
	assert.Equal(t, Handle(3), h3, "handles must never be reused after removal")
}

func TestHandlesSurviveClear(t *testing.T) {
	s := newTestStore()
	s.Add(Area[string, string]{})
	s.Add(Area[string, string]{})
	s.Clear()

	h := s.Add(Area[string, string]{})
	assert.Equal(t, Handle(3), h, "Clear must not reset the handle counter")
	assert.Equal(t, 1, s.Len())
}

func TestZeroHandleInvalid(t *testing.T) {
	assert.False(t, Handle(0).Valid())
	assert.True(t, Handle(1).Valid())
}

func TestAddMarksDirty(t *testing.T) {
	s := newTestStore()
	h1 := s.Add(Area[string, string]{})
	h2 := s.Add(Area[string, string]{})

	assert.Equal(t, []Handle{h1, h2}, s.TakeDirty())
	assert.Empty(t, s.TakeDirty(), "TakeDirty must reset the set")
}

func TestMutMarksDirtyUnconditionally(t *testing.T) {
	s := newTestStore()
	h := s.Add(Area[string, string]{Enabled: true})
	s.TakeDirty()

	// A Mut access without any field change still schedules a resync.
	ptr := s.Mut(h)
	require.NotNil(t, ptr)
	assert.Equal(t, []Handle{h}, s.TakeDirty())
}

func TestDirtyDeduplicatedAndOrdered(t *testing.T) {
	s := newTestStore()
	h1 := s.Add(Area[string, string]{})
	h2 := s.Add(Area[string, string]{})
	h3 := s.Add(Area[string, string]{})
	s.TakeDirty()

	s.MarkDirty(h3)
	s.MarkDirty(h1)
	s.MarkDirty(h3)
	s.MarkDirty(h2)
	s.MarkDirty(h1)

	assert.Equal(t, []Handle{h1, h2, h3}, s.TakeDirty())
}

func TestRemoveQueuesOnce(t *testing.T) {
	s := newTestStore()
	h := s.Add(Area[string, string]{})

	s.Remove(h)
	s.Remove(h)
	assert.Equal(t, []Handle{h}, s.TakeRemovals())

	// The record is still visible until the sync pass drops it.
	assert.NotNil(t, s.Get(h))
	s.Drop(h)
	assert.Nil(t, s.Get(h))
}

func TestRemoveUnknownHandleIgnored(t *testing.T) {
	s := newTestStore()
	s.Remove(Handle(42))
	assert.Empty(t, s.TakeRemovals())
}

func TestGetHasNoSideEffect(t *testing.T) {
	s := newTestStore()
	h := s.Add(Area[string, string]{Sprite: sprite("icon")})
	s.TakeDirty()

	a := s.Get(h)
	require.NotNil(t, a)
	assert.Equal(t, "icon", *a.Sprite)
	assert.Empty(t, s.TakeDirty())
}

func TestMutUnknownHandle(t *testing.T) {
	s := newTestStore()
	assert.Nil(t, s.Mut(Handle(9)))
	assert.Empty(t, s.TakeDirty())
}

func TestRecordBookkeepingDefaults(t *testing.T) {
	s := newTestStore()
	h := s.Add(Area[string, string]{Z: ZThird})

	rec := s.Record(h)
	require.NotNil(t, rec)
	assert.Equal(t, ZThird, rec.LastZ)
	assert.Equal(t, NoSlot, rec.Slot)
}

func TestEachIteratesInHandleOrder(t *testing.T) {
	s := newTestStore()
	var added []Handle
	for i := 0; i < 16; i++ {
		added = append(added, s.Add(Area[string, string]{}))
	}

	var seen []Handle
	s.Each(func(h Handle, _ *Record[string, string]) {
		seen = append(seen, h)
	})
	assert.Equal(t, added, seen)
}

func TestClearDropsTracking(t *testing.T) {
	s := newTestStore()
	h := s.Add(Area[string, string]{})
	s.Remove(h)
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.TakeDirty())
	assert.Empty(t, s.TakeRemovals())
}

func TestZOrderIndices(t *testing.T) {
	assert.Equal(t, 0, ZFirst.Index())
	assert.Equal(t, 1, ZSecond.Index())
	assert.Equal(t, 2, ZThird.Index())
	assert.Equal(t, 3, ZFourth.Index())
	assert.Equal(t, 4, ZCount)
}
