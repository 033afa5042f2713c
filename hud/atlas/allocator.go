// package atlas packs sprite and glyph images into square texture layers
// using shelf allocation, grows layers by power-of-two doubling, and keeps
// the CPU-side inventory needed to rebuild a layer from scratch when the
// incremental path must relocate its contents.
package atlas

import "image"

type shelf struct {
	y      int
	height int
	used   int
}

// Allocator is a deterministic shelf packer over one square layer.
// Rectangles are placed left to right into the first shelf tall enough to
// hold them; a new shelf opens below the last when none fits. Growing the
// layer keeps every prior placement valid: existing shelves gain free
// width on the right and new shelves gain room below.
type Allocator struct {
	size    int
	shelves []shelf
	nextY   int
}

// NewAllocator creates an empty shelf allocator for a size×size layer.
func NewAllocator(size int) *Allocator {
	return &Allocator{size: size}
}

// Size returns the current layer dimension in pixels.
func (a *Allocator) Size() int {
	return a.size
}

// Allocate places a w×h rectangle and returns its position.
//
// Parameters:
//   - w: rectangle width in pixels, must be > 0
//   - h: rectangle height in pixels, must be > 0
//
// Returns:
//   - image.Rectangle: the placed rectangle
//   - bool: false when the layer has no room
func (a *Allocator) Allocate(w, h int) (image.Rectangle, bool) {
	if w <= 0 || h <= 0 {
		panic("atlas: allocation dimensions must be greater than 0")
	}
	if w > a.size || h > a.size {
		return image.Rectangle{}, false
	}
	for i := range a.shelves {
		s := &a.shelves[i]
		if h <= s.height && s.used+w <= a.size {
			r := image.Rect(s.used, s.y, s.used+w, s.y+h)
			s.used += w
			return r, true
		}
	}
	if a.nextY+h <= a.size {
		a.shelves = append(a.shelves, shelf{y: a.nextY, height: h, used: w})
		a.nextY += h
		return image.Rect(0, a.nextY-h, w, a.nextY), true
	}
	return image.Rectangle{}, false
}

// Grow enlarges the layer. Placements already made stay where they are.
// Shrinking is not supported; a smaller size is ignored.
func (a *Allocator) Grow(size int) {
	if size > a.size {
		a.size = size
	}
}
