// package instances maintains the CPU mirror of one per-z-level GPU
// instance buffer: the staged instance data, the handle occupying each
// slot, and the swap-remove protocol that keeps slots dense without
// rewriting the whole buffer.
package instances

import (
	"github.com/Carmen-Shannon/hud-go/common"
	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/Carmen-Shannon/hud-go/hud/model"
)

// Buffer mirrors a GPU instance buffer. Slots [0, Count) are live; the
// backing array grows by doubling and never shrinks. Callers track which
// slot a handle occupies via the values reported by Append and SwapRemove.
type Buffer struct {
	staging  []model.Instance
	order    []area.Handle
	count    int
	capacity int
}

// NewBuffer creates a mirror with capacity for one instance.
func NewBuffer() *Buffer {
	return &Buffer{
		staging:  make([]model.Instance, 1),
		capacity: 1,
	}
}

// Append stages an instance in the next free slot.
//
// Parameters:
//   - h: the handle that will occupy the slot
//   - inst: the instance data
//
// Returns:
//   - int: the slot the instance landed in
//   - bool: true when the backing array doubled, meaning the GPU buffer
//     must be reallocated and refilled from Bytes
func (b *Buffer) Append(h area.Handle, inst model.Instance) (int, bool) {
	grown := false
	for b.count >= b.capacity {
		b.capacity *= 2
		grown = true
	}
	if grown {
		staging := make([]model.Instance, b.capacity)
		copy(staging, b.staging)
		b.staging = staging
	}
	slot := b.count
	b.staging[slot] = inst
	b.order = append(b.order, h)
	b.count++
	return slot, grown
}

// Overwrite replaces the instance in a live slot.
func (b *Buffer) Overwrite(slot int, inst model.Instance) {
	if slot < 0 || slot >= b.count {
		panic("instances: overwrite of a slot that is not live")
	}
	b.staging[slot] = inst
}

// SwapRemove frees a slot by moving the last live instance into it. When
// the freed slot is the last one the buffer just shrinks.
//
// Parameters:
//   - slot: the slot to free
//
// Returns:
//   - area.Handle: the handle whose instance moved into the freed slot
//   - bool: false when nothing moved (the slot was last)
func (b *Buffer) SwapRemove(slot int) (area.Handle, bool) {
	if slot < 0 || slot >= b.count {
		panic("instances: remove of a slot that is not live")
	}
	last := b.count - 1
	if slot == last {
		b.order = b.order[:last]
		b.count--
		return 0, false
	}
	b.staging[slot] = b.staging[last]
	moved := b.order[last]
	b.order[slot] = moved
	b.order = b.order[:last]
	b.count--
	return moved, true
}

// Count returns the number of live slots.
func (b *Buffer) Count() int {
	return b.count
}

// Capacity returns the size of the backing array in instances.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// HandleAt returns the handle occupying a live slot.
func (b *Buffer) HandleAt(slot int) area.Handle {
	return b.order[slot]
}

// Bytes returns every live slot as a byte view for a full GPU upload. The
// view shares memory with the staging array and is only valid until the
// next mutation.
func (b *Buffer) Bytes() []byte {
	return common.SliceToBytes(b.staging[:b.count])
}

// SlotBytes returns one live slot as a byte view for an in-place GPU write.
func (b *Buffer) SlotBytes(slot int) []byte {
	if slot < 0 || slot >= b.count {
		panic("instances: marshal of a slot that is not live")
	}
	return common.SliceToBytes(b.staging[slot : slot+1])
}
