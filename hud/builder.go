// package hud is a retained-mode 2D sprite and text compositing layer above
// a wgpu device. Sprites and fonts are registered on a Builder, packed into
// texture-array atlases at Build, and drawn as screen-space rectangular
// areas with four fixed z-levels, dirty-tracked instance buffers, laid-out
// text, and GPU cursor picking.
//
// The hud draws into a render pass owned by the host and hands back one
// command buffer per frame carrying the picking work. The host submits it
// after its own and then calls PostRenderWork.
package hud

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"slices"
	"time"

	"github.com/Carmen-Shannon/hud-go/common"
	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/Carmen-Shannon/hud-go/hud/atlas"
	"github.com/Carmen-Shannon/hud-go/hud/text"
	"github.com/cogentcore/webgpu/wgpu"
)

// registration is one sprite queued on the builder: its frames in sheet
// order and the single-frame pixel area used for pack ordering.
type registration[S comparable] struct {
	id     S
	frames []*image.RGBA
	area   uint32
}

// Builder collects sprites and fonts ahead of Build. All assets a hud
// draws at launch must be registered here; only inanimate sprites can be
// added later through Hud.AddSprite.
//
// Registration methods panic on misuse (duplicate IDs, zero-dimension
// images, unparseable fonts) because those are configuration defects, not
// runtime conditions.
type Builder[S, F comparable] struct {
	fonts   *text.Store[F]
	sprites []registration[S]
	present map[S]struct{}
}

// NewBuilder creates an empty Builder. S identifies sprites and F fonts;
// both are usually small enum-like types defined by the host.
func NewBuilder[S, F comparable]() *Builder[S, F] {
	return &Builder[S, F]{
		fonts:   text.NewStore[F](),
		present: make(map[S]struct{}),
	}
}

// AddFont registers a font from raw TTF/OTF bytes. Panics if the bytes do
// not parse or the ID is already taken.
//
// Parameters:
//   - id: the font's identifier, referenced by area text payloads
//   - raw: the font file contents
func (b *Builder[S, F]) AddFont(id F, raw []byte) {
	b.fonts.AddFont(id, raw)
}

// AddSprite registers an inanimate sprite. Panics on duplicate IDs and
// zero-dimension images.
//
// Parameters:
//   - id: the sprite's identifier, referenced by areas
//   - img: the sprite's pixels
func (b *Builder[S, F]) AddSprite(id S, img *image.RGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	b.register(id, registration[S]{
		id:     id,
		frames: []*image.RGBA{img},
		area:   uint32(w) * uint32(h),
	}, w, h)
}

// AddAnimatedSprite registers an animated sprite from a horizontal sprite
// sheet. The sheet is sliced into vertical strips of frameWidth pixels,
// left to right; frame height is the sheet height. Panics on duplicate
// IDs, zero-dimension sheets, and sheets narrower than one frame.
//
// Parameters:
//   - id: the sprite's identifier, referenced by areas
//   - sheet: the sprite sheet's pixels
//   - frameWidth: the width of one frame, or 0 for square frames
func (b *Builder[S, F]) AddAnimatedSprite(id S, sheet *image.RGBA, frameWidth uint32) {
	sheetW, sheetH := sheet.Bounds().Dx(), sheet.Bounds().Dy()
	frameWidth = common.Coalesce(frameWidth, uint32(sheetH))
	if sheetW > 0 && uint32(sheetW) < frameWidth {
		panic(fmt.Sprintf("hud: sprite sheet for %v is narrower than one frame", id))
	}
	count := 0
	if frameWidth > 0 {
		count = sheetW / int(frameWidth)
	}
	frames := make([]*image.RGBA, 0, count)
	origin := sheet.Bounds().Min
	for i := 0; i < count; i++ {
		r := image.Rect(
			origin.X+i*int(frameWidth), origin.Y,
			origin.X+(i+1)*int(frameWidth), origin.Y+sheetH,
		)
		frames = append(frames, sheet.SubImage(r).(*image.RGBA))
	}
	b.register(id, registration[S]{
		id:     id,
		frames: frames,
		area:   frameWidth * uint32(sheetH),
	}, int(frameWidth), sheetH)
}

func (b *Builder[S, F]) register(id S, reg registration[S], w, h int) {
	if _, ok := b.present[id]; ok {
		panic(fmt.Sprintf("hud: sprite %v already registered with the builder", id))
	}
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("hud: sprite %v dimensions must be greater than zero", id))
	}
	b.sprites = append(b.sprites, reg)
	b.present[id] = struct{}{}
}

// Build packs the registered sprites into atlas layers, creates every GPU
// resource the hud needs, and returns the ready hud. The builder can be
// discarded afterwards.
//
// Larger frames are packed first: sprites are sorted descending by
// single-frame pixel area before placement, which keeps the layers dense.
// Frame pixels are blitted into the layer images on a worker pool.
//
// Parameters:
//   - device: the wgpu device that owns all created resources
//   - queue: the device's queue, used for uploads now and per frame
//   - width: the window width in pixels
//   - height: the window height in pixels
//   - surfaceFormat: the texture format of the host's render target
//   - opts: optional tuning, see WithGlyphAtlasBudget and friends
//
// Returns:
//   - Hud[S, F]: the ready hud
//   - error: a wrapped GPU error, or an error if no sprites were registered
func (b *Builder[S, F]) Build(device *wgpu.Device, queue *wgpu.Queue, width, height uint32, surfaceFormat wgpu.TextureFormat, opts ...Option) (_ Hud[S, F], err error) {
	if len(b.sprites) == 0 {
		return nil, errors.New("hud: no sprites registered with the builder")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	maxDim := device.GetLimits().Limits.MaxTextureDimension2D

	set := atlas.NewSet[S](maxDim, cfg.workers)
	ordered := slices.Clone(b.sprites)
	slices.SortStableFunc(ordered, func(a, b registration[S]) int {
		return cmp.Compare(b.area, a.area)
	})
	for _, reg := range ordered {
		set.Pack(reg.id, reg.frames)
	}
	set.Finalize()
	logger().Debug("hud: atlas packed",
		"sprites", len(ordered),
		"layers", set.LayerCount(),
		"layerSize", set.LayerSize())

	h := &hudImpl[S, F]{
		device:       device,
		queue:        queue,
		width:        width,
		height:       height,
		sprites:      set,
		fonts:        b.fonts,
		glyphs:       text.NewAtlas(b.fonts, maxDim, cfg.glyphBudget),
		areas:        area.NewStore[S, F](),
		animationFPS: cfg.animationFPS,
		lastTick:     time.Now(),
	}
	defer func() {
		if err != nil {
			h.Release()
		}
	}()
	if err = h.initGPU(surfaceFormat); err != nil {
		return nil, err
	}
	return h, nil
}
