package atlas

import (
	"fmt"
	"image"
	"image/draw"
	"math/bits"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/hud-go/hud/model"
)

// hardSizeCap bounds layer growth even on devices that report a larger
// maximum texture dimension.
const hardSizeCap = 65536

// startSize is the dimension floor for newly opened layers.
const startSize = 128

// frameRecord retains one packed frame: its CPU image, the layer it landed
// on and where. The image is kept for the lifetime of the set so a layer
// can be rebuilt from scratch when incremental growth relocates it.
type frameRecord struct {
	img   *image.RGBA
	layer int
	rect  image.Rectangle
}

// AddResult reports what an incremental Add did to the layer stack so the
// caller knows which GPU resources to refresh.
type AddResult struct {
	// Layer is the index of the layer that received the sprite.
	Layer int
	// LayerAdded is true when a new layer was opened for the sprite.
	LayerAdded bool
	// LayerRebuilt is true when the last layer was repacked at a larger
	// size, relocating the frames already on it.
	LayerRebuilt bool
}

// Set packs sprite frames into a stack of square RGBA layers and retains
// every frame image on the CPU. Layers only ever grow. During the initial
// packing phase only allocators exist; Finalize materializes the layer
// images at their settled sizes and blits all frames in parallel, after
// which sprites can still be added one at a time.
type Set[S comparable] struct {
	maxSize   int
	layerSize int

	// blitPool manages a bounded set of reusable goroutines for parallel
	// frame blitting. Workers idle out between bursts, so holding the pool
	// for the set's lifetime costs nothing while no blit runs.
	blitPool worker.DynamicWorkerPool

	layers []*Allocator
	images []*image.RGBA

	frames  []frameRecord
	sprites map[S][]int
	index   map[S]uint32
	order   []S

	finalized bool
}

// NewSet creates an empty atlas set.
//
// Parameters:
//   - maxTextureDimension: the device's maximum texture dimension; layer
//     growth is capped at min(maxTextureDimension, 65536)
//   - workers: goroutines used for parallel blitting, <= 0 for a default
//     derived from the CPU count
//
// Returns:
//   - *Set[S]: the empty set
func NewSet[S comparable](maxTextureDimension uint32, workers int) *Set[S] {
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	return &Set[S]{
		maxSize:   min(int(maxTextureDimension), hardSizeCap),
		layerSize: startSize,
		blitPool:  worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		sprites:   make(map[S][]int),
		index:     make(map[S]uint32),
	}
}

// Pack places every frame of a sprite during the initial packing phase.
// Frames are tried against every existing layer first, then the last layer
// is grown in place by doubling, and only when growth is exhausted does a
// new layer open. Pack panics on a duplicate ID, an empty or zero-sized
// frame, or a frame larger than the layer size cap.
func (s *Set[S]) Pack(id S, frames []*image.RGBA) {
	if s.finalized {
		panic("atlas: Pack called after Finalize")
	}
	s.register(id, frames)
	for _, img := range frames {
		b := img.Bounds()
		layer, rect := s.placeGrowing(b.Dx(), b.Dy())
		s.frames = append(s.frames, frameRecord{img: img, layer: layer, rect: rect})
		s.sprites[id] = append(s.sprites[id], len(s.frames)-1)
	}
}

// Finalize materializes the layer images at their final sizes and blits
// every packed frame into them using a bounded worker pool. It is a no-op
// when called twice.
func (s *Set[S]) Finalize() {
	if s.finalized {
		return
	}
	s.finalized = true
	s.images = make([]*image.RGBA, len(s.layers))
	for i, a := range s.layers {
		s.images[i] = image.NewRGBA(image.Rect(0, 0, a.Size(), a.Size()))
	}
	all := make([]int, len(s.frames))
	for i := range all {
		all[i] = i
	}
	s.blit(all)
}

// Add places a single-frame sprite after Finalize. Existing layers are
// tried first; when none has room the last layer is rebuilt from the
// retained inventory at doubled sizes until the sprite fits, and a new
// layer opens only once the size cap is reached.
//
// Parameters:
//   - id: the sprite's key, must not be registered yet
//   - img: the frame image
//
// Returns:
//   - AddResult: which layer changed and how
func (s *Set[S]) Add(id S, img *image.RGBA) AddResult {
	if !s.finalized {
		panic("atlas: Add called before Finalize")
	}
	s.register(id, []*image.RGBA{img})
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	for i, a := range s.layers {
		if rect, ok := a.Allocate(w, h); ok {
			s.commitFrame(id, img, i, rect)
			return AddResult{Layer: i}
		}
	}

	if last := len(s.layers) - 1; last >= 0 {
		size := s.layers[last].Size()
		for size < s.maxSize {
			size = min(size*2, s.maxSize)
			if alloc, rects, rect, ok := s.repack(last, size, w, h); ok {
				s.commitRebuild(last, size, alloc, rects)
				s.commitFrame(id, img, last, rect)
				return AddResult{Layer: last, LayerRebuilt: true}
			}
		}
	}

	layer := s.openLayer(w, h)
	rect, ok := s.layers[layer].Allocate(w, h)
	if !ok {
		panic("atlas: sprite too large to fit into a texture layer")
	}
	s.images = append(s.images, image.NewRGBA(image.Rect(0, 0, s.layers[layer].Size(), s.layers[layer].Size())))
	s.commitFrame(id, img, layer, rect)
	return AddResult{Layer: layer, LayerAdded: true}
}

// Tables builds the GPU lookup tables in sprite registration order. The
// offset table maps a sprite index to its run of rows in the allocation
// table; each allocation row carries the frame's UV rectangle normalized
// by the largest layer dimension plus the layer index.
func (s *Set[S]) Tables() ([]model.OffsetEntry, []model.AllocationEntry) {
	offsets := make([]model.OffsetEntry, 0, len(s.order))
	allocs := make([]model.AllocationEntry, 0, len(s.frames))
	norm := float32(s.LayerSize())
	for _, id := range s.order {
		indices := s.sprites[id]
		offsets = append(offsets, model.OffsetEntry{
			Offset: uint32(len(allocs)),
			Count:  uint32(len(indices)),
		})
		for _, fi := range indices {
			rec := s.frames[fi]
			allocs = append(allocs, model.AllocationEntry{
				XMin:       float32(rec.rect.Min.X) / norm,
				XMax:       float32(rec.rect.Max.X) / norm,
				YMin:       float32(rec.rect.Min.Y) / norm,
				YMax:       float32(rec.rect.Max.Y) / norm,
				AtlasIndex: uint32(rec.layer),
			})
		}
	}
	return offsets, allocs
}

// SpriteIndex returns the sprite's row in the offset table.
func (s *Set[S]) SpriteIndex(id S) (uint32, bool) {
	idx, ok := s.index[id]
	return idx, ok
}

// Contains reports whether the sprite is registered.
func (s *Set[S]) Contains(id S) bool {
	_, ok := s.index[id]
	return ok
}

// FrameCount returns how many frames a sprite packed with.
func (s *Set[S]) FrameCount(id S) uint32 {
	return uint32(len(s.sprites[id]))
}

// LayerCount returns the number of layers in the stack.
func (s *Set[S]) LayerCount() int {
	return len(s.layers)
}

// LayerSize returns the largest layer dimension. UV coordinates in the
// allocation table are normalized by this value, and the GPU texture
// array uses it for every slice.
func (s *Set[S]) LayerSize() int {
	sz := 0
	for _, a := range s.layers {
		sz = max(sz, a.Size())
	}
	return sz
}

// LayerImage returns the CPU image backing a layer. It is nil before
// Finalize.
func (s *Set[S]) LayerImage(i int) *image.RGBA {
	return s.images[i]
}

// LayerRects returns the placed rectangles of one layer, for debugging.
func (s *Set[S]) LayerRects(i int) []image.Rectangle {
	var rects []image.Rectangle
	for _, rec := range s.frames {
		if rec.layer == i {
			rects = append(rects, rec.rect)
		}
	}
	return rects
}

func (s *Set[S]) register(id S, frames []*image.RGBA) {
	if _, ok := s.index[id]; ok {
		panic(fmt.Sprintf("atlas: sprite %v already registered", id))
	}
	if len(frames) == 0 {
		panic("atlas: sprite must have at least one frame")
	}
	for _, img := range frames {
		b := img.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			panic("atlas: sprite dimensions must be greater than 0")
		}
		if b.Dx() > s.maxSize || b.Dy() > s.maxSize {
			panic("atlas: sprite too large to fit into a texture layer")
		}
	}
	s.index[id] = uint32(len(s.order))
	s.order = append(s.order, id)
	s.sprites[id] = nil
}

// placeGrowing is the packing-phase placement strategy: first fit across
// all layers, grow the last layer by doubling, then open a new layer.
func (s *Set[S]) placeGrowing(w, h int) (int, image.Rectangle) {
	for i, a := range s.layers {
		if rect, ok := a.Allocate(w, h); ok {
			return i, rect
		}
	}
	if last := len(s.layers) - 1; last >= 0 {
		a := s.layers[last]
		for a.Size() < s.maxSize {
			grown := min(a.Size()*2, s.maxSize)
			a.Grow(grown)
			s.layerSize = max(s.layerSize, grown)
			if rect, ok := a.Allocate(w, h); ok {
				return last, rect
			}
		}
	}
	layer := s.openLayer(w, h)
	rect, ok := s.layers[layer].Allocate(w, h)
	if !ok {
		panic("atlas: sprite too large to fit into a texture layer")
	}
	return layer, rect
}

// openLayer appends a fresh allocator sized to the running layer-size
// ratchet, raised to the next power of two above the sprite when needed.
func (s *Set[S]) openLayer(w, h int) int {
	s.layerSize = min(nextPow2(max(s.layerSize, w, h)), s.maxSize)
	s.layers = append(s.layers, NewAllocator(s.layerSize))
	return len(s.layers) - 1
}

// repack packs every frame currently on the given layer into a fresh
// allocator of the given size, largest first, then tries the new w×h
// rectangle. Nothing is committed; the caller applies the returned
// placements on success.
func (s *Set[S]) repack(layer, size, w, h int) (*Allocator, map[int]image.Rectangle, image.Rectangle, bool) {
	indices := make([]int, 0, 8)
	for i, rec := range s.frames {
		if rec.layer == layer {
			indices = append(indices, i)
		}
	}
	slices.SortStableFunc(indices, func(a, b int) int {
		ba, bb := s.frames[a].img.Bounds(), s.frames[b].img.Bounds()
		return bb.Dx()*bb.Dy() - ba.Dx()*ba.Dy()
	})

	alloc := NewAllocator(size)
	rects := make(map[int]image.Rectangle, len(indices))
	for _, fi := range indices {
		b := s.frames[fi].img.Bounds()
		r, ok := alloc.Allocate(b.Dx(), b.Dy())
		if !ok {
			return nil, nil, image.Rectangle{}, false
		}
		rects[fi] = r
	}
	r, ok := alloc.Allocate(w, h)
	if !ok {
		return nil, nil, image.Rectangle{}, false
	}
	return alloc, rects, r, true
}

// commitRebuild swaps in the repacked allocator and re-blits the layer's
// frames from the retained inventory at their new positions.
func (s *Set[S]) commitRebuild(layer, size int, alloc *Allocator, rects map[int]image.Rectangle) {
	s.layers[layer] = alloc
	s.layerSize = max(s.layerSize, size)
	s.images[layer] = image.NewRGBA(image.Rect(0, 0, size, size))
	indices := make([]int, 0, len(rects))
	for fi, r := range rects {
		s.frames[fi].rect = r
		indices = append(indices, fi)
	}
	s.blit(indices)
}

func (s *Set[S]) commitFrame(id S, img *image.RGBA, layer int, rect image.Rectangle) {
	s.frames = append(s.frames, frameRecord{img: img, layer: layer, rect: rect})
	s.sprites[id] = append(s.sprites[id], len(s.frames)-1)
	draw.Draw(s.images[layer], rect, img, img.Bounds().Min, draw.Src)
}

// blit copies the given frames into their layer images on the blit pool.
// A WaitGroup provides the completion barrier. Frames never overlap, so
// the writes are disjoint.
func (s *Set[S]) blit(indices []int) {
	if len(indices) == 0 {
		return
	}
	var wg sync.WaitGroup
	for taskID, fi := range indices {
		rec := s.frames[fi]
		wg.Add(1)
		s.blitPool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				draw.Draw(s.images[rec.layer], rec.rect, rec.img, rec.img.Bounds().Min, draw.Src)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
