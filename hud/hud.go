package hud

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/Carmen-Shannon/hud-go/hud/atlas"
	"github.com/Carmen-Shannon/hud-go/hud/instances"
	"github.com/Carmen-Shannon/hud-go/hud/model"
	"github.com/Carmen-Shannon/hud-go/hud/picker"
	"github.com/Carmen-Shannon/hud-go/hud/text"
	"github.com/cogentcore/webgpu/wgpu"
)

// Hud composites sprite and text areas over the host's render pass and
// resolves which area the cursor hovers. All methods must be called from
// the frame-loop thread; nothing here is safe for concurrent use.
//
// The per-frame contract with the host:
//  1. Render draws into the host's pass and returns the picking command
//     buffer.
//  2. The host submits its own command buffer, then the returned one.
//  3. PostRenderWork starts the asynchronous pick readback.
//
// Area mutations between frames are tracked and reconciled at the next
// Render; only the GPU data that actually changed is rewritten.
type Hud[S, F comparable] interface {
	// AddSprite registers one inanimate sprite after construction, growing
	// the sprite atlas as needed. Panics on duplicate IDs and
	// zero-dimension images, like the builder. Returns a wrapped error if
	// recreating GPU resources fails.
	AddSprite(id S, img *image.RGBA) error

	// AddArea inserts an area and returns its handle. The area becomes
	// visible at the next Render.
	AddArea(a area.Area[S, F]) area.Handle

	// Area returns the area for reading, or nil for unknown handles.
	// Mutations through this pointer are not picked up; use AreaMut.
	Area(h area.Handle) *area.Area[S, F]

	// AreaMut returns the area for mutation and schedules it for resync at
	// the next Render. Returns nil for unknown handles.
	AreaMut(h area.Handle) *area.Area[S, F]

	// RemoveArea queues the area for removal at the next Render. Unknown
	// handles are ignored.
	RemoveArea(h area.Handle)

	// Clear removes every area immediately. Handles are never reused, so
	// handles issued before Clear stay invalid forever.
	Clear()

	// UpdateCursorPosition records the cursor position used for picking,
	// in pixels from the window's top-left corner. Latest call wins.
	UpdateCursorPosition(x, y uint32)

	// HoveredArea returns the handle whose opaque pixel the cursor hovered
	// one to two frames ago, and whether any area was hit at all. The
	// result lags cursor motion; treat it as eventually consistent.
	HoveredArea() (area.Handle, bool)

	// Render reconciles all pending area mutations into the GPU buffers,
	// draws the visible areas into the host's pass, and returns a command
	// buffer carrying the picking passes. Submit it after the host's own
	// command buffer every frame, then call PostRenderWork.
	Render(pass *wgpu.RenderPassEncoder) (*wgpu.CommandBuffer, error)

	// PostRenderWork starts the asynchronous readback of the picking
	// result. Call once per frame after submission.
	PostRenderWork() error

	// Resize adapts the hud to a new window size, in pixels.
	Resize(width, height uint32)

	// DumpAtlasesSVG writes one SVG diagram per sprite and glyph atlas
	// layer into dir, for debugging atlas packing.
	DumpAtlasesSVG(dir string) error

	// Release frees every GPU resource the hud owns. The hud must not be
	// used afterwards.
	Release()
}

type hudImpl[S, F comparable] struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	width  uint32
	height uint32

	sprites *atlas.Set[S]
	fonts   *text.Store[F]
	glyphs  *text.Atlas[F]
	areas   *area.Store[S, F]
	pick    *picker.Picker

	// gpu holds every device resource. Nil only in tests that drive the
	// sync bookkeeping without a device.
	gpu *gpuState

	// pools are the per-z CPU staging buffers behind the GPU instance
	// buffers. A nil entry means the z-level has no sprite areas.
	pools [area.ZCount]*instances.Buffer

	// textQuads is the per-z glyph vertex staging, rebuilt every sync.
	textQuads  [area.ZCount][]model.GlyphVertex
	textCounts [area.ZCount]int

	animationFPS  float64
	frame         uint32
	lastTick      time.Time
	uniformsDirty bool
}

var _ Hud[string, string] = (*hudImpl[string, string])(nil)

func (h *hudImpl[S, F]) AddArea(a area.Area[S, F]) area.Handle {
	if a.Sprite != nil && !h.sprites.Contains(*a.Sprite) {
		panic(fmt.Sprintf("hud: area references unknown sprite %v", *a.Sprite))
	}
	if a.Text != nil && !h.fonts.Has(a.Text.Font) {
		panic(fmt.Sprintf("hud: area references unknown font %v", a.Text.Font))
	}
	return h.areas.Add(a)
}

func (h *hudImpl[S, F]) Area(hd area.Handle) *area.Area[S, F] {
	return h.areas.Get(hd)
}

func (h *hudImpl[S, F]) AreaMut(hd area.Handle) *area.Area[S, F] {
	return h.areas.Mut(hd)
}

func (h *hudImpl[S, F]) RemoveArea(hd area.Handle) {
	h.areas.Remove(hd)
}

func (h *hudImpl[S, F]) Clear() {
	h.areas.Clear()
	for zi := 0; zi < area.ZCount; zi++ {
		h.pools[zi] = nil
		h.textQuads[zi] = nil
		h.textCounts[zi] = 0
		h.dropInstanceBuffer(zi)
	}
}

func (h *hudImpl[S, F]) UpdateCursorPosition(x, y uint32) {
	if h.pick != nil {
		h.pick.SetCursor(x, y)
	}
}

func (h *hudImpl[S, F]) HoveredArea() (area.Handle, bool) {
	if h.pick == nil {
		return 0, false
	}
	return h.pick.Hovered()
}

// AddSprite registers one inanimate sprite after Build. The atlas may grow
// or gain a layer; either way the atlas texture, the lookup tables, and
// the sprite bind group are refreshed so the next Render sees the sprite.
// Existing areas keep their slots: instances address sprites through the
// lookup tables, so relocations are invisible to them.
func (h *hudImpl[S, F]) AddSprite(id S, img *image.RGBA) error {
	res := h.sprites.Add(id, img)
	if h.gpu == nil {
		return nil
	}
	if res.LayerAdded || res.LayerRebuilt ||
		h.gpu.atlasLayerSize != h.sprites.LayerSize() ||
		h.gpu.atlasLayerCount != h.sprites.LayerCount() {
		logger().Debug("hud: sprite atlas reshaped",
			"sprite", fmt.Sprint(id),
			"layers", h.sprites.LayerCount(),
			"layerSize", h.sprites.LayerSize(),
			"layerAdded", res.LayerAdded,
			"layerRebuilt", res.LayerRebuilt)
		if err := h.uploadAtlasTexture(); err != nil {
			return err
		}
	} else {
		h.writeAtlasLayer(res.Layer)
	}
	return h.writeTables()
}

// DumpAtlasesSVG writes a packing diagram per atlas layer into dir:
// sprite_atlas_N.svg for the sprite layers and glyph_atlas_N.svg for the
// glyph layers. The directory is created if missing.
func (h *hudImpl[S, F]) DumpAtlasesSVG(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("hud: failed to create dump directory: %w", err)
	}
	for i := 0; i < h.sprites.LayerCount(); i++ {
		path := filepath.Join(dir, fmt.Sprintf("sprite_atlas_%d.svg", i))
		if err := h.dumpLayer(path, func(f *os.File) error {
			return h.sprites.WriteLayerSVG(i, f)
		}); err != nil {
			return err
		}
	}
	for i := 0; i < h.glyphs.LayerCount(); i++ {
		path := filepath.Join(dir, fmt.Sprintf("glyph_atlas_%d.svg", i))
		if err := h.dumpLayer(path, func(f *os.File) error {
			return h.glyphs.WriteLayerSVG(i, f)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *hudImpl[S, F]) dumpLayer(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hud: failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("hud: failed to close %s: %w", path, err)
	}
	return nil
}

func (h *hudImpl[S, F]) Release() {
	if h.pick != nil {
		h.pick.Release()
		h.pick = nil
	}
	if h.gpu != nil {
		h.gpu.release()
		h.gpu = nil
	}
}
