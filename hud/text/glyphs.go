package text

import (
	"image"
	"image/draw"
	"io"

	"github.com/Carmen-Shannon/hud-go/common"
	"github.com/Carmen-Shannon/hud-go/hud/atlas"
	"golang.org/x/image/math/fixed"
)

// layerSizeCap bounds glyph atlas layers even on devices that report a
// larger maximum texture dimension.
const layerSizeCap = 16384

// DefaultBudget is the default glyph atlas area in pixels.
const DefaultBudget = 8192 * 8192

type glyphKey[F comparable] struct {
	font F
	size uint16
	r    rune
}

// glyph is one rasterized (font, size, rune) entry. Invisible glyphs
// (spaces, zero-extent runes, missing glyphs) keep only their advance.
type glyph struct {
	visible bool
	layer   int
	rect    image.Rectangle // padded allocation within the layer
	offX    int             // bitmap offset from the baseline origin
	offY    int
	w       int
	h       int
	advance fixed.Int26_6
}

// Upload is a pending glyph bitmap write: tight 8-bit coverage rows
// destined for a layer of the glyph atlas texture.
type Upload struct {
	Layer  int
	Origin image.Point
	Width  int
	Height int
	Pix    []byte
}

// Atlas owns the CPU side of the glyph atlas: a fixed set of layer
// allocators, the rasterization cache, and the queue of bitmap uploads
// the caller flushes to the GPU texture. Layers never grow; running out
// of space is fatal.
type Atlas[F comparable] struct {
	store     *Store[F]
	layerSize int
	layers    []*atlas.Allocator
	rects     [][]image.Rectangle
	glyphs    map[glyphKey[F]]glyph
	uploads   []Upload
}

// NewAtlas sizes the glyph atlas for the device and area budget.
//
// Parameters:
//   - store: the font store glyphs rasterize from
//   - maxTextureDimension: the device's maximum texture dimension; layers
//     are square at min(maxTextureDimension, 16384)
//   - budget: total atlas area in pixels, split into however many layers
//     it takes; 0 selects DefaultBudget
//
// Returns:
//   - *Atlas[F]: the empty atlas
func NewAtlas[F comparable](store *Store[F], maxTextureDimension uint32, budget uint64) *Atlas[F] {
	budget = common.Coalesce(budget, DefaultBudget)
	layerSize := min(int(maxTextureDimension), layerSizeCap)
	layerArea := uint64(layerSize) * uint64(layerSize)
	count := int((budget + layerArea - 1) / layerArea)

	a := &Atlas[F]{
		store:     store,
		layerSize: layerSize,
		layers:    make([]*atlas.Allocator, count),
		rects:     make([][]image.Rectangle, count),
		glyphs:    make(map[glyphKey[F]]glyph),
	}
	for i := range a.layers {
		a.layers[i] = atlas.NewAllocator(layerSize)
	}
	return a
}

// LayerSize returns the dimension of every atlas layer.
func (a *Atlas[F]) LayerSize() int {
	return a.layerSize
}

// LayerCount returns the number of atlas layers.
func (a *Atlas[F]) LayerCount() int {
	return len(a.layers)
}

// TakeUploads drains the pending bitmap uploads.
func (a *Atlas[F]) TakeUploads() []Upload {
	u := a.uploads
	a.uploads = nil
	return u
}

// WriteLayerSVG writes an occupancy diagram of one layer.
func (a *Atlas[F]) WriteLayerSVG(i int, w io.Writer) error {
	return atlas.WriteSVG(w, a.layerSize, a.rects[i])
}

// ensure rasterizes a rune once and packs it into the atlas. The bitmap
// is padded by one transparent texel on every side so that sampling at
// the quad edge cannot bleed into a neighbor.
func (a *Atlas[F]) ensure(fontID F, size uint16, r rune) glyph {
	key := glyphKey[F]{font: fontID, size: size, r: r}
	if g, ok := a.glyphs[key]; ok {
		return g
	}

	face := a.store.Face(fontID, size)
	dr, mask, maskp, advance, ok := face.Glyph(fixed.Point26_6{}, r)
	if !ok || dr.Dx() == 0 || dr.Dy() == 0 {
		g := glyph{advance: advance}
		a.glyphs[key] = g
		return g
	}

	w, h := dr.Dx(), dr.Dy()
	var (
		layer int
		rect  image.Rectangle
	)
	placed := false
	for i, alloc := range a.layers {
		if rc, ok := alloc.Allocate(w+2, h+2); ok {
			layer, rect = i, rc
			placed = true
			break
		}
	}
	if !placed {
		panic("text: glyph atlas overflow")
	}
	a.rects[layer] = append(a.rects[layer], rect)

	tight := image.NewAlpha(image.Rect(0, 0, w, h))
	draw.Draw(tight, tight.Bounds(), mask, maskp, draw.Src)
	a.uploads = append(a.uploads, Upload{
		Layer:  layer,
		Origin: image.Pt(rect.Min.X+1, rect.Min.Y+1),
		Width:  w,
		Height: h,
		Pix:    tight.Pix,
	})

	g := glyph{
		visible: true,
		layer:   layer,
		rect:    rect,
		offX:    dr.Min.X,
		offY:    dr.Min.Y,
		w:       w,
		h:       h,
		advance: advance,
	}
	a.glyphs[key] = g
	return g
}
