// package text rasterizes glyphs into an array-texture glyph atlas at
// runtime and lays text out inside area rectangles. Sprites are packed
// once during the build step; glyphs arrive on demand as area text
// changes, so they get their own atlas with a fixed up-front area budget
// split across however many layers the device's texture size requires.
package text

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

type faceKey[F comparable] struct {
	font F
	size uint16
}

// Store parses fonts once and caches one face per (font, size) pair.
// Faces are hinted at 72 DPI so a font size of N maps to N pixels.
type Store[F comparable] struct {
	fonts map[F]*opentype.Font
	faces map[faceKey[F]]font.Face
}

// NewStore creates an empty font store.
func NewStore[F comparable]() *Store[F] {
	return &Store[F]{
		fonts: make(map[F]*opentype.Font),
		faces: make(map[faceKey[F]]font.Face),
	}
}

// AddFont parses TTF or OTF data and registers it under the given ID.
// It panics on a duplicate ID or unparseable data.
func (s *Store[F]) AddFont(id F, data []byte) {
	if _, ok := s.fonts[id]; ok {
		panic(fmt.Sprintf("text: font %v already registered", id))
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		panic(fmt.Sprintf("text: failed to parse font %v: %v", id, err))
	}
	s.fonts[id] = ft
}

// Has reports whether a font is registered.
func (s *Store[F]) Has(id F) bool {
	_, ok := s.fonts[id]
	return ok
}

// Len returns the number of registered fonts.
func (s *Store[F]) Len() int {
	return len(s.fonts)
}

// Face returns the cached face for a font at the given pixel size,
// creating it on first use. It panics when the font is not registered.
func (s *Store[F]) Face(id F, size uint16) font.Face {
	key := faceKey[F]{font: id, size: size}
	if face, ok := s.faces[key]; ok {
		return face
	}
	ft, ok := s.fonts[id]
	if !ok {
		panic(fmt.Sprintf("text: font %v not registered", id))
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		panic(fmt.Sprintf("text: failed to create face for font %v at size %d: %v", id, size, err))
	}
	s.faces[key] = face
	return face
}
