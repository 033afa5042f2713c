package hud

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/hud-go/common"
	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/Carmen-Shannon/hud-go/hud/instances"
	"github.com/Carmen-Shannon/hud-go/hud/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// sync reconciles every pending mutation into the GPU buffers. Runs at the
// start of Render, before any command recording, in a strict order:
//
//  1. Drain the picking result channel (after one blocking device poll so
//     the previous frame's map callback has fired).
//  2. Apply queued removals via swap-remove.
//  3. Apply dirty handles: migrate z-levels, overwrite or append slots.
//  4. Rebuild the text vertex buffers from every enabled text area.
//  5. Advance the animation frame and flush the uniform and cursor state.
//
// Removals run before dirty handles so a handle that was mutated and then
// removed in the same frame never resurfaces.
func (h *hudImpl[S, F]) sync() error {
	h.drainPicking()
	h.applyRemovals()
	if err := h.applyDirty(); err != nil {
		return err
	}
	if err := h.rebuildText(); err != nil {
		return err
	}
	h.advanceAnimation()
	h.flushUniforms()
	if h.gpu != nil && h.pick != nil {
		h.pick.FlushCursor(h.queue)
	}
	return nil
}

func (h *hudImpl[S, F]) drainPicking() {
	if h.pick == nil {
		return
	}
	if h.gpu != nil {
		h.device.Poll(true, nil)
	}
	h.pick.Drain()
}

func (h *hudImpl[S, F]) applyRemovals() {
	for _, hd := range h.areas.TakeRemovals() {
		rec := h.areas.Record(hd)
		if rec == nil {
			continue
		}
		if rec.Slot != area.NoSlot {
			h.evict(rec.LastZ, rec.Slot)
		}
		h.areas.Drop(hd)
	}
}

func (h *hudImpl[S, F]) applyDirty() error {
	for _, hd := range h.areas.TakeDirty() {
		rec := h.areas.Record(hd)
		if rec == nil {
			continue
		}
		a := &rec.Area
		if a.Z != rec.LastZ {
			if rec.Slot != area.NoSlot {
				h.evict(rec.LastZ, rec.Slot)
				rec.Slot = area.NoSlot
			}
			rec.LastZ = a.Z
		}
		if a.Enabled && a.Sprite != nil {
			inst := h.instanceFor(hd, a)
			zi := a.Z.Index()
			if rec.Slot != area.NoSlot {
				h.pools[zi].Overwrite(rec.Slot, inst)
				h.writeSlot(zi, rec.Slot)
				continue
			}
			pool := h.pools[zi]
			if pool == nil {
				pool = instances.NewBuffer()
				h.pools[zi] = pool
			}
			slot, grown := pool.Append(hd, inst)
			rec.Slot = slot
			if h.gpu == nil {
				continue
			}
			if grown || h.gpu.instanceBuffers[zi] == nil {
				if err := h.recreateInstanceBuffer(zi); err != nil {
					return err
				}
			} else {
				h.writeSlot(zi, slot)
			}
		} else if rec.Slot != area.NoSlot {
			h.evict(rec.LastZ, rec.Slot)
			rec.Slot = area.NoSlot
		}
	}
	return nil
}

// evict swap-removes the slot from the z-level's buffer. The last occupant
// moves into the freed slot; its record and GPU bytes are patched so the
// buffer stays dense. An emptied buffer is dropped outright.
func (h *hudImpl[S, F]) evict(z area.ZOrder, slot int) {
	zi := z.Index()
	pool := h.pools[zi]
	moved, ok := pool.SwapRemove(slot)
	if ok {
		h.areas.Record(moved).Slot = slot
		h.writeSlot(zi, slot)
	}
	if pool.Count() == 0 {
		h.pools[zi] = nil
		h.dropInstanceBuffer(zi)
	}
}

func (h *hudImpl[S, F]) writeSlot(zi, slot int) {
	if h.gpu == nil || h.gpu.instanceBuffers[zi] == nil {
		return
	}
	stride := (&model.Instance{}).Size()
	h.queue.WriteBuffer(h.gpu.instanceBuffers[zi], uint64(slot*stride), h.pools[zi].SlotBytes(slot))
}

func (h *hudImpl[S, F]) instanceFor(hd area.Handle, a *area.Area[S, F]) model.Instance {
	idx, ok := h.sprites.SpriteIndex(*a.Sprite)
	if !ok {
		panic(fmt.Sprintf("hud: area references unknown sprite %v", *a.Sprite))
	}
	return model.Instance{
		XMin:        a.XMin,
		XMax:        a.XMax,
		YMin:        a.YMin,
		YMax:        a.YMax,
		SpriteIndex: idx,
		AreaID:      uint32(hd),
	}
}

// rebuildText lays out every enabled text area from scratch and rewrites
// the per-z glyph vertex buffers. Full rebuild each sync keeps the
// bookkeeping trivial; text volume is expected to be modest.
func (h *hudImpl[S, F]) rebuildText() error {
	for zi := range h.textQuads {
		h.textQuads[zi] = h.textQuads[zi][:0]
	}
	h.areas.Each(func(hd area.Handle, rec *area.Record[S, F]) {
		a := &rec.Area
		if !a.Enabled || a.Text == nil {
			return
		}
		zi := a.Z.Index()
		h.textQuads[zi] = h.glyphs.AppendQuads(
			h.textQuads[zi],
			a.Text.Font, a.Text.Size, a.Text.Content,
			a.XMin, a.YMin, a.XMax, a.YMax,
			uint32(hd),
		)
	})
	uploads := h.glyphs.TakeUploads()

	maxQuads := 1
	for zi := range h.textQuads {
		quads := len(h.textQuads[zi]) / 4
		h.textCounts[zi] = quads
		if quads > maxQuads {
			maxQuads = quads
		}
	}
	if h.gpu == nil {
		return nil
	}
	if len(uploads) > 0 {
		logger().Debug("hud: glyphs rasterized", "count", len(uploads))
		for _, u := range uploads {
			h.writeGlyphUpload(u)
		}
	}
	if err := h.ensureIndexCapacity(maxQuads); err != nil {
		return err
	}
	for zi := range h.textQuads {
		if err := h.uploadTextBuffer(zi); err != nil {
			return err
		}
	}
	return nil
}

func (h *hudImpl[S, F]) uploadTextBuffer(zi int) error {
	quads := h.textCounts[zi]
	if quads == 0 {
		return nil
	}
	if quads > h.gpu.textBufferQuads[zi] {
		capacity := h.gpu.textBufferQuads[zi]
		for capacity < quads {
			capacity *= 2
		}
		stride := (&model.GlyphVertex{}).Size()
		buf, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            fmt.Sprintf("HUD Text Vertex Buffer Z%d", zi),
			Size:             uint64(capacity * 4 * stride),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return fmt.Errorf("hud: failed to grow text vertex buffer for z %d: %w", zi, err)
		}
		h.gpu.textBuffers[zi].Release()
		h.gpu.textBuffers[zi] = buf
		logger().Debug("hud: text vertex buffer grown", "z", zi, "quads", capacity, "was", h.gpu.textBufferQuads[zi])
		h.gpu.textBufferQuads[zi] = capacity
	}
	h.queue.WriteBuffer(h.gpu.textBuffers[zi], 0, common.SliceToBytes(h.textQuads[zi]))
	return nil
}

// advanceAnimation steps the global animation frame counter from the
// elapsed wall time at the configured rate. The fractional remainder stays
// in lastTick so slow rates do not drift.
func (h *hudImpl[S, F]) advanceAnimation() {
	if h.animationFPS <= 0 {
		return
	}
	elapsed := time.Since(h.lastTick).Seconds()
	steps := uint64(elapsed * h.animationFPS)
	if steps == 0 {
		return
	}
	h.frame += uint32(steps)
	h.lastTick = h.lastTick.Add(time.Duration(float64(steps) / h.animationFPS * float64(time.Second)))
	h.uniformsDirty = true
}

func (h *hudImpl[S, F]) flushUniforms() {
	if !h.uniformsDirty {
		return
	}
	h.uniformsDirty = false
	if h.gpu == nil {
		return
	}
	u := model.Uniforms{
		CurrentFrame: h.frame,
		WindowWidth:  float32(h.width),
		WindowHeight: float32(h.height),
	}
	h.queue.WriteBuffer(h.gpu.uniformBuffer, 0, u.Marshal())
}

