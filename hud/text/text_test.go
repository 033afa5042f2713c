package text

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/hud-go/hud/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

const testFont = "regular"

func newTestAtlas(t *testing.T, maxDim uint32, budget uint64) *Atlas[string] {
	t.Helper()
	store := NewStore[string]()
	store.AddFont(testFont, goregular.TTF)
	return NewAtlas(store, maxDim, budget)
}

func TestStoreRegistersAndCachesFaces(t *testing.T) {
	store := NewStore[string]()
	store.AddFont(testFont, goregular.TTF)

	assert.True(t, store.Has(testFont))
	assert.False(t, store.Has("missing"))
	assert.Equal(t, 1, store.Len())

	f1 := store.Face(testFont, 16)
	f2 := store.Face(testFont, 16)
	assert.Same(t, f1, f2, "faces are cached per size")
	f3 := store.Face(testFont, 17)
	assert.NotSame(t, f1, f3)
}

func TestStorePanicsOnMisuse(t *testing.T) {
	store := NewStore[string]()
	store.AddFont(testFont, goregular.TTF)

	assert.Panics(t, func() { store.AddFont(testFont, goregular.TTF) }, "duplicate font")
	assert.Panics(t, func() { store.AddFont("bad", []byte("not a font")) })
	assert.Panics(t, func() { store.Face("missing", 16) })
}

func TestAtlasLayerSizing(t *testing.T) {
	assert.Equal(t, 1024, newTestAtlas(t, 1024, 1024*1024).LayerSize())
	assert.Equal(t, 1, newTestAtlas(t, 1024, 1024*1024).LayerCount())
	assert.Equal(t, 3, newTestAtlas(t, 1024, 3*1024*1024).LayerCount())

	// The layer dimension is capped even on huge devices.
	big := newTestAtlas(t, 20000, 0)
	assert.Equal(t, 16384, big.LayerSize())
	assert.Equal(t, 1, big.LayerCount())

	// The default budget splits across layers on smaller devices.
	assert.Equal(t, 4, newTestAtlas(t, 4096, 0).LayerCount())
}

func TestAppendQuadsEmitsFourVerticesPerGlyph(t *testing.T) {
	a := newTestAtlas(t, 1024, 0)

	quads := a.AppendQuads(nil, testFont, 32, "AB", 0, 0, 500, 100, 7)
	require.Len(t, quads, 8)

	for q := 0; q < len(quads); q += 4 {
		tl, tr, br, bl := quads[q], quads[q+1], quads[q+2], quads[q+3]
		assert.Greater(t, tr.PosX, tl.PosX)
		assert.Greater(t, br.PosY, tr.PosY)
		assert.Equal(t, tl.PosX, bl.PosX)
		assert.Equal(t, tl.PosY, tr.PosY)
		assert.Less(t, tl.TexX, tr.TexX)
		assert.Less(t, tl.TexY, bl.TexY)
		for _, v := range []struct{ x, y float32 }{{tl.TexX, tl.TexY}, {br.TexX, br.TexY}} {
			assert.GreaterOrEqual(t, v.x, float32(0))
			assert.LessOrEqual(t, v.x, float32(1))
			assert.GreaterOrEqual(t, v.y, float32(0))
			assert.LessOrEqual(t, v.y, float32(1))
		}
		for _, v := range []uint32{tl.AreaID, tr.AreaID, br.AreaID, bl.AreaID} {
			assert.Equal(t, uint32(7), v)
		}
	}
}

func TestRasterizationIsCachedPerGlyph(t *testing.T) {
	a := newTestAtlas(t, 1024, 0)

	a.AppendQuads(nil, testFont, 32, "AAB", 0, 0, 500, 100, 1)
	uploads := a.TakeUploads()
	require.Len(t, uploads, 2, "A and B rasterize once each")

	for _, u := range uploads {
		assert.Equal(t, u.Width*u.Height, len(u.Pix))
		nonzero := false
		for _, p := range u.Pix {
			if p > 0 {
				nonzero = true
				break
			}
		}
		assert.True(t, nonzero, "glyph bitmap has coverage")
	}

	a.AppendQuads(nil, testFont, 32, "ABBA", 0, 0, 500, 100, 1)
	assert.Empty(t, a.TakeUploads(), "no re-rasterization on reuse")

	a.AppendQuads(nil, testFont, 33, "A", 0, 0, 500, 100, 1)
	assert.Len(t, a.TakeUploads(), 1, "same rune at a new size rasterizes again")
}

func TestSpacesAdvanceWithoutQuads(t *testing.T) {
	a := newTestAtlas(t, 1024, 0)

	spaced := a.AppendQuads(nil, testFont, 24, "a b", 0, 0, 500, 100, 1)
	require.Len(t, spaced, 8, "space contributes no quad")

	tight := a.AppendQuads(nil, testFont, 24, "ab", 0, 0, 500, 100, 1)
	require.Len(t, tight, 8)

	spacedGap := spaced[4].PosX - spaced[1].PosX
	tightGap := tight[4].PosX - tight[1].PosX
	assert.Greater(t, spacedGap, tightGap, "space widens the gap between glyphs")
}

func lineTops(t *testing.T, quads []model.GlyphVertex) []float32 {
	t.Helper()
	var tops []float32
	for q := 0; q < len(quads); q += 4 {
		y := quads[q].PosY
		found := false
		for _, v := range tops {
			if v == y {
				found = true
				break
			}
		}
		if !found {
			tops = append(tops, y)
		}
	}
	return tops
}

func TestWordWrapBreaksLines(t *testing.T) {
	a := newTestAtlas(t, 1024, 0)

	// Wide enough for one word, not for both.
	quads := a.AppendQuads(nil, testFont, 16, "aaaa aaaa", 0, 0, 45, 200, 1)
	require.Len(t, quads, 32, "the breaking space is swallowed")

	tops := lineTops(t, quads)
	assert.Len(t, tops, 2)
	assert.Greater(t, tops[1], tops[0])
}

func TestHardBreakForcesNewLine(t *testing.T) {
	a := newTestAtlas(t, 1024, 0)

	quads := a.AppendQuads(nil, testFont, 16, "a\na", 0, 0, 500, 200, 1)
	require.Len(t, quads, 8)
	assert.Greater(t, quads[4].PosY, quads[0].PosY)

	// Without the break both glyphs share a baseline.
	flat := a.AppendQuads(nil, testFont, 16, "aa", 0, 0, 500, 200, 1)
	assert.Equal(t, flat[0].PosY, flat[4].PosY)
}

func TestTextIsCenteredInArea(t *testing.T) {
	a := newTestAtlas(t, 1024, 0)

	quads := a.AppendQuads(nil, testFont, 20, "o", 100, 100, 300, 200, 1)
	require.Len(t, quads, 4)

	cx := (quads[0].PosX + quads[1].PosX) / 2
	cy := (quads[0].PosY + quads[2].PosY) / 2
	assert.InDelta(t, 200, cx, 4, "horizontal center")
	assert.InDelta(t, 150, cy, 14, "vertical center")
}

func TestInvisibleContentProducesNoQuads(t *testing.T) {
	a := newTestAtlas(t, 1024, 0)

	quads := a.AppendQuads(nil, testFont, 16, "", 0, 0, 500, 100, 1)
	assert.Empty(t, quads)

	quads = a.AppendQuads(nil, testFont, 16, "   ", 0, 0, 500, 100, 1)
	assert.Empty(t, quads, "spaces alone lay out no glyphs")
	assert.Empty(t, a.TakeUploads())
}

func TestGlyphAtlasOverflowPanics(t *testing.T) {
	a := newTestAtlas(t, 64, 64*64)

	assert.PanicsWithValue(t, "text: glyph atlas overflow", func() {
		a.AppendQuads(nil, testFont, 60, "WM", 0, 0, 500, 100, 1)
	})
}

func TestWriteLayerSVG(t *testing.T) {
	a := newTestAtlas(t, 1024, 0)
	a.AppendQuads(nil, testFont, 16, "ab", 0, 0, 500, 100, 1)

	var sb strings.Builder
	require.NoError(t, a.WriteLayerSVG(0, &sb))
	assert.Equal(t, 3, strings.Count(sb.String(), "<rect "), "background plus two glyphs")
}
