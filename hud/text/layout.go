package text

import (
	"github.com/Carmen-Shannon/hud-go/hud/model"
	"golang.org/x/image/math/fixed"
)

func pixels(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

// wrappedLine is one laid-out line: its runes and their advance width
// including kerning.
type wrappedLine struct {
	runes []rune
	width fixed.Int26_6
}

// wrap breaks content into lines at word boundaries and hard breaks.
// A word wider than maxWidth overflows its own line rather than being
// split. The space run that triggers a wrap is swallowed, as are spaces
// trailing a hard break.
func (a *Atlas[F]) wrap(fontID F, size uint16, content string, maxWidth fixed.Int26_6) []wrappedLine {
	face := a.store.Face(fontID, size)
	lines := []wrappedLine{{}}

	var word, spaces []rune
	var wordW, spacesW fixed.Int26_6

	appendRun := func(l *wrappedLine, runes []rune, w fixed.Int26_6) {
		if len(l.runes) > 0 && len(runes) > 0 {
			l.width += face.Kern(l.runes[len(l.runes)-1], runes[0])
		}
		l.runes = append(l.runes, runes...)
		l.width += w
	}
	flushWord := func() {
		if len(word) == 0 {
			return
		}
		l := &lines[len(lines)-1]
		if len(l.runes) > 0 && l.width+spacesW+wordW > maxWidth {
			lines = append(lines, wrappedLine{})
			appendRun(&lines[len(lines)-1], word, wordW)
		} else {
			appendRun(l, spaces, spacesW)
			appendRun(l, word, wordW)
		}
		word, wordW = nil, 0
		spaces, spacesW = nil, 0
	}

	for _, r := range content {
		switch r {
		case '\n':
			flushWord()
			spaces, spacesW = nil, 0
			lines = append(lines, wrappedLine{})
		case ' ', '\t':
			flushWord()
			g := a.ensure(fontID, size, r)
			spaces = append(spaces, r)
			spacesW += g.advance
		default:
			g := a.ensure(fontID, size, r)
			if len(word) > 0 {
				wordW += face.Kern(word[len(word)-1], r)
			}
			word = append(word, r)
			wordW += g.advance
		}
	}
	flushWord()
	return lines
}

// AppendQuads lays the text out inside the area rectangle, centered
// horizontally per line and vertically as a block, and appends four
// vertices per visible glyph to dst. Glyphs not yet in the atlas are
// rasterized on the way through.
//
// Parameters:
//   - dst: the vertex staging slice to append to
//   - fontID, size: the face the text renders with
//   - content: the text, wrapped at words and at hard line breaks
//   - xMin, yMin, xMax, yMax: the area rectangle in surface pixels
//   - areaID: the owning area's handle, carried per vertex for picking
//
// Returns:
//   - []model.GlyphVertex: dst with the new quads appended
func (a *Atlas[F]) AppendQuads(dst []model.GlyphVertex, fontID F, size uint16, content string, xMin, yMin, xMax, yMax float32, areaID uint32) []model.GlyphVertex {
	if content == "" {
		return dst
	}
	face := a.store.Face(fontID, size)
	m := face.Metrics()
	lineH := pixels(m.Height)
	ascent := pixels(m.Ascent)

	lines := a.wrap(fontID, size, content, fixed.Int26_6((xMax-xMin)*64))

	blockH := lineH * float32(len(lines))
	top := yMin + ((yMax-yMin)-blockH)/2
	norm := float32(a.layerSize)

	for i, ln := range lines {
		if len(ln.runes) == 0 {
			continue
		}
		baseline := top + ascent + float32(i)*lineH
		pen := xMin + ((xMax-xMin)-pixels(ln.width))/2
		var prev rune
		for j, r := range ln.runes {
			if j > 0 {
				pen += pixels(face.Kern(prev, r))
			}
			g := a.ensure(fontID, size, r)
			if g.visible {
				x := pen + float32(g.offX)
				y := baseline + float32(g.offY)
				u0 := float32(g.rect.Min.X+1) / norm
				v0 := float32(g.rect.Min.Y+1) / norm
				u1 := float32(g.rect.Max.X-1) / norm
				v1 := float32(g.rect.Max.Y-1) / norm
				layer := uint32(g.layer)
				dst = append(dst,
					model.GlyphVertex{PosX: x, PosY: y, TexX: u0, TexY: v0, AtlasIndex: layer, AreaID: areaID},
					model.GlyphVertex{PosX: x + float32(g.w), PosY: y, TexX: u1, TexY: v0, AtlasIndex: layer, AreaID: areaID},
					model.GlyphVertex{PosX: x + float32(g.w), PosY: y + float32(g.h), TexX: u1, TexY: v1, AtlasIndex: layer, AreaID: areaID},
					model.GlyphVertex{PosX: x, PosY: y + float32(g.h), TexX: u0, TexY: v1, AtlasIndex: layer, AreaID: areaID},
				)
			}
			pen += pixels(g.advance)
			prev = r
		}
	}
	return dst
}
