package instances

import (
	"testing"

	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/Carmen-Shannon/hud-go/hud/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inst(h area.Handle) model.Instance {
	return model.Instance{
		XMin: float32(h), XMax: float32(h) + 1,
		YMin: float32(h), YMax: float32(h) + 1,
		SpriteIndex: 0,
		AreaID:      uint32(h),
	}
}

func instBytes(h area.Handle) []byte {
	i := inst(h)
	return i.Marshal()
}

func TestAppendAssignsDenseSlots(t *testing.T) {
	b := NewBuffer()

	slot, grown := b.Append(1, inst(1))
	assert.Equal(t, 0, slot)
	assert.False(t, grown, "first instance fits the initial capacity")

	slot, grown = b.Append(2, inst(2))
	assert.Equal(t, 1, slot)
	assert.True(t, grown)
	assert.Equal(t, 2, b.Capacity())

	slot, grown = b.Append(3, inst(3))
	assert.Equal(t, 2, slot)
	assert.True(t, grown)
	assert.Equal(t, 4, b.Capacity())

	assert.Equal(t, 3, b.Count())
	assert.Equal(t, area.Handle(1), b.HandleAt(0))
	assert.Equal(t, area.Handle(2), b.HandleAt(1))
	assert.Equal(t, area.Handle(3), b.HandleAt(2))
}

func TestSwapRemoveMovesLastIntoFreedSlot(t *testing.T) {
	b := NewBuffer()
	b.Append(1, inst(1))
	b.Append(2, inst(2))
	b.Append(3, inst(3))

	moved, ok := b.SwapRemove(0)
	require.True(t, ok)
	assert.Equal(t, area.Handle(3), moved)
	assert.Equal(t, 2, b.Count())
	assert.Equal(t, area.Handle(3), b.HandleAt(0))
	assert.Equal(t, area.Handle(2), b.HandleAt(1))

	// The freed slot now carries the moved instance's data.
	assert.Equal(t, instBytes(3), b.SlotBytes(0))
	assert.Equal(t, instBytes(2), b.SlotBytes(1))
}

func TestSwapRemoveLastSlotMovesNothing(t *testing.T) {
	b := NewBuffer()
	b.Append(1, inst(1))
	b.Append(2, inst(2))

	moved, ok := b.SwapRemove(1)
	assert.False(t, ok)
	assert.Equal(t, area.Handle(0), moved)
	assert.Equal(t, 1, b.Count())
	assert.Equal(t, area.Handle(1), b.HandleAt(0))
}

func TestSwapRemoveSoleInstanceEmptiesBuffer(t *testing.T) {
	b := NewBuffer()
	b.Append(1, inst(1))

	_, ok := b.SwapRemove(0)
	assert.False(t, ok)
	assert.Equal(t, 0, b.Count())
	assert.Empty(t, b.Bytes())
}

func TestOverwriteReplacesSlotData(t *testing.T) {
	b := NewBuffer()
	b.Append(1, inst(1))
	b.Append(2, inst(2))

	replacement := inst(1)
	replacement.XMax = 99
	b.Overwrite(0, replacement)

	assert.Equal(t, replacement.Marshal(), b.SlotBytes(0))
	assert.Equal(t, instBytes(2), b.SlotBytes(1))
	assert.Equal(t, 2, b.Count(), "overwrite does not change occupancy")
}

func TestBytesCoversLiveSlotsOnly(t *testing.T) {
	b := NewBuffer()
	b.Append(1, inst(1))
	b.Append(2, inst(2))
	b.Append(3, inst(3))
	b.SwapRemove(2)

	raw := b.Bytes()
	size := (&model.Instance{}).Size()
	require.Len(t, raw, 2*size)
	assert.Equal(t, instBytes(1), raw[:size])
	assert.Equal(t, instBytes(2), raw[size:])
}

func TestRemovalsKeepSlotsDenseAndUnique(t *testing.T) {
	b := NewBuffer()
	for h := area.Handle(1); h <= 8; h++ {
		b.Append(h, inst(h))
	}

	// Track slots the way a caller would, applying the move reports.
	slots := map[area.Handle]int{}
	for s := 0; s < 8; s++ {
		slots[b.HandleAt(s)] = s
	}
	remove := func(h area.Handle) {
		slot := slots[h]
		delete(slots, h)
		if moved, ok := b.SwapRemove(slot); ok {
			slots[moved] = slot
		}
	}

	remove(3)
	remove(8)
	remove(1)
	remove(5)

	require.Equal(t, 4, b.Count())
	seen := map[area.Handle]bool{}
	for s := 0; s < b.Count(); s++ {
		h := b.HandleAt(s)
		assert.False(t, seen[h], "handle %d appears twice", h)
		seen[h] = true
		assert.Equal(t, s, slots[h], "tracked slot out of sync for handle %d", h)
	}
	for _, h := range []area.Handle{2, 4, 6, 7} {
		assert.True(t, seen[h], "handle %d lost", h)
	}
}

func TestPanicsOnDeadSlots(t *testing.T) {
	b := NewBuffer()
	b.Append(1, inst(1))

	assert.Panics(t, func() { b.Overwrite(1, inst(2)) })
	assert.Panics(t, func() { b.SwapRemove(-1) })
	assert.Panics(t, func() { b.SlotBytes(1) })
}
