package hud

import (
	"encoding/binary"
	"image"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/Carmen-Shannon/hud-go/hud/atlas"
	"github.com/Carmen-Shannon/hud-go/hud/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

func spriteArea(id string, z area.ZOrder) area.Area[string, string] {
	return area.Area[string, string]{
		XMin: 10, XMax: 20, YMin: 10, YMax: 20,
		Z:       z,
		Sprite:  &id,
		Enabled: true,
	}
}

// newTestHud builds a hud with the full CPU bookkeeping but no device, so
// the sync pass can run under test up to the GPU writes.
func newTestHud(t *testing.T) *hudImpl[string, string] {
	t.Helper()
	set := atlas.NewSet[string](1024, 1)
	set.Pack("button", []*image.RGBA{solidImage(16, 16)})
	set.Pack("icon", []*image.RGBA{solidImage(8, 8)})
	set.Finalize()
	fonts := text.NewStore[string]()
	fonts.AddFont("main", goregular.TTF)
	return &hudImpl[string, string]{
		sprites:  set,
		fonts:    fonts,
		glyphs:   text.NewAtlas(fonts, 1024, 1024*1024),
		areas:    area.NewStore[string, string](),
		lastTick: time.Now(),
	}
}

func TestSyncPlacesAndRemovesAreas(t *testing.T) {
	h := newTestHud(t)
	a := h.AddArea(spriteArea("button", area.ZFirst))
	b := h.AddArea(spriteArea("icon", area.ZFirst))
	require.NoError(t, h.sync())

	zi := area.ZFirst.Index()
	require.NotNil(t, h.pools[zi])
	assert.Equal(t, 2, h.pools[zi].Count())
	assert.Equal(t, 0, h.areas.Record(a).Slot)
	assert.Equal(t, 1, h.areas.Record(b).Slot)

	h.RemoveArea(a)
	require.NoError(t, h.sync())

	assert.Nil(t, h.areas.Record(a))
	assert.Equal(t, 1, h.pools[zi].Count())
	assert.Equal(t, 0, h.areas.Record(b).Slot, "last occupant should move into the freed slot")
	assert.Equal(t, b, h.pools[zi].HandleAt(0))

	h.RemoveArea(b)
	require.NoError(t, h.sync())
	assert.Nil(t, h.pools[zi], "emptied pool should be dropped")
}

func TestSyncAssignsSlotsInHandleOrder(t *testing.T) {
	h := newTestHud(t)
	first := h.AddArea(spriteArea("button", area.ZSecond))
	second := h.AddArea(spriteArea("icon", area.ZSecond))
	third := h.AddArea(spriteArea("button", area.ZSecond))
	require.NoError(t, h.sync())

	zi := area.ZSecond.Index()
	assert.Equal(t, 3, h.pools[zi].Count())
	assert.Equal(t, 4, h.pools[zi].Capacity(), "capacity should double up from 1")
	assert.Equal(t, 0, h.areas.Record(first).Slot)
	assert.Equal(t, 1, h.areas.Record(second).Slot)
	assert.Equal(t, 2, h.areas.Record(third).Slot)
}

func TestSyncMigratesAreaAcrossZLevels(t *testing.T) {
	h := newTestHud(t)
	a := h.AddArea(spriteArea("button", area.ZFirst))
	b := h.AddArea(spriteArea("icon", area.ZFirst))
	require.NoError(t, h.sync())

	h.AreaMut(a).Z = area.ZThird
	require.NoError(t, h.sync())

	assert.Equal(t, 1, h.pools[area.ZFirst.Index()].Count())
	assert.Equal(t, 0, h.areas.Record(b).Slot)
	require.NotNil(t, h.pools[area.ZThird.Index()])
	assert.Equal(t, 1, h.pools[area.ZThird.Index()].Count())
	assert.Equal(t, 0, h.areas.Record(a).Slot)
	assert.Equal(t, a, h.pools[area.ZThird.Index()].HandleAt(0))
	assert.Equal(t, area.ZThird, h.areas.Record(a).LastZ)
}

func TestSyncEvictsDisabledAreas(t *testing.T) {
	h := newTestHud(t)
	a := h.AddArea(spriteArea("button", area.ZFourth))
	require.NoError(t, h.sync())
	zi := area.ZFourth.Index()
	require.NotNil(t, h.pools[zi])

	h.AreaMut(a).Enabled = false
	require.NoError(t, h.sync())
	assert.Nil(t, h.pools[zi])
	assert.Equal(t, area.NoSlot, h.areas.Record(a).Slot)

	h.AreaMut(a).Enabled = true
	require.NoError(t, h.sync())
	require.NotNil(t, h.pools[zi])
	assert.Equal(t, 0, h.areas.Record(a).Slot)
}

func TestSyncOverwritesMutatedAreaInPlace(t *testing.T) {
	h := newTestHud(t)
	a := h.AddArea(spriteArea("button", area.ZFirst))
	require.NoError(t, h.sync())

	h.AreaMut(a).XMax = 300
	require.NoError(t, h.sync())

	zi := area.ZFirst.Index()
	assert.Equal(t, 1, h.pools[zi].Count())
	assert.Equal(t, 0, h.areas.Record(a).Slot)
	raw := h.pools[zi].SlotBytes(0)
	xMax := math.Float32frombits(binary.LittleEndian.Uint32(raw[4:8]))
	assert.Equal(t, float32(300), xMax)
}

func TestSyncKeepsBytesWhenMutChangesNothing(t *testing.T) {
	h := newTestHud(t)
	a := h.AddArea(spriteArea("button", area.ZFirst))
	require.NoError(t, h.sync())

	zi := area.ZFirst.Index()
	before := append([]byte(nil), h.pools[zi].SlotBytes(0)...)

	_ = h.AreaMut(a)
	require.NoError(t, h.sync())

	assert.Equal(t, before, h.pools[zi].SlotBytes(0))
	assert.Equal(t, 0, h.areas.Record(a).Slot)
}

func TestSyncRemovalWinsOverMutation(t *testing.T) {
	h := newTestHud(t)
	a := h.AddArea(spriteArea("button", area.ZFirst))
	b := h.AddArea(spriteArea("icon", area.ZFirst))
	require.NoError(t, h.sync())

	h.AreaMut(a).XMax = 500
	h.RemoveArea(a)
	require.NoError(t, h.sync())

	assert.Nil(t, h.areas.Record(a))
	zi := area.ZFirst.Index()
	assert.Equal(t, 1, h.pools[zi].Count())
	assert.Equal(t, b, h.pools[zi].HandleAt(0))
}

func TestSyncRebuildsTextQuads(t *testing.T) {
	h := newTestHud(t)
	a := h.AddArea(area.Area[string, string]{
		XMin: 0, XMax: 200, YMin: 0, YMax: 50,
		Z:       area.ZSecond,
		Text:    &area.Text[string]{Content: "hi", Font: "main", Size: 16},
		Enabled: true,
	})
	require.NoError(t, h.sync())

	zi := area.ZSecond.Index()
	assert.Equal(t, 2, h.textCounts[zi], "one quad per glyph")
	assert.Len(t, h.textQuads[zi], 8)
	for _, v := range h.textQuads[zi] {
		assert.Equal(t, uint32(a), v.AreaID)
	}
	assert.Nil(t, h.pools[zi], "text-only areas must not occupy instance slots")

	h.AreaMut(a).Enabled = false
	require.NoError(t, h.sync())
	assert.Equal(t, 0, h.textCounts[zi])
}

func TestClearRemovesEverything(t *testing.T) {
	h := newTestHud(t)
	a := h.AddArea(spriteArea("button", area.ZFirst))
	h.AddArea(area.Area[string, string]{
		XMin: 0, XMax: 100, YMin: 0, YMax: 40,
		Z:       area.ZThird,
		Text:    &area.Text[string]{Content: "bye", Font: "main", Size: 14},
		Enabled: true,
	})
	require.NoError(t, h.sync())

	h.Clear()
	assert.Equal(t, 0, h.areas.Len())
	for zi := 0; zi < area.ZCount; zi++ {
		assert.Nil(t, h.pools[zi])
	}
	require.NoError(t, h.sync())
	for zi := 0; zi < area.ZCount; zi++ {
		assert.Equal(t, 0, h.textCounts[zi])
	}

	next := h.AddArea(spriteArea("icon", area.ZFirst))
	assert.Greater(t, uint32(next), uint32(a), "handles must not be reused after Clear")
}

func TestAddAreaPanicsOnUnknownAssets(t *testing.T) {
	h := newTestHud(t)
	ghost := "ghost"
	assert.PanicsWithValue(t, "hud: area references unknown sprite ghost", func() {
		h.AddArea(area.Area[string, string]{Sprite: &ghost, Enabled: true})
	})
	assert.PanicsWithValue(t, "hud: area references unknown font ghost", func() {
		h.AddArea(area.Area[string, string]{
			Text:    &area.Text[string]{Content: "x", Font: "ghost", Size: 12},
			Enabled: true,
		})
	})
}

func TestSyncPanicsOnUnknownSpriteReference(t *testing.T) {
	h := newTestHud(t)
	a := h.AddArea(spriteArea("button", area.ZFirst))
	require.NoError(t, h.sync())

	ghost := "ghost"
	h.AreaMut(a).Sprite = &ghost
	assert.Panics(t, func() { _ = h.sync() })
}

func TestAddSpriteRegistersAfterBuild(t *testing.T) {
	h := newTestHud(t)
	require.NoError(t, h.AddSprite("late", solidImage(8, 8)))
	assert.True(t, h.sprites.Contains("late"))

	a := h.AddArea(spriteArea("late", area.ZFirst))
	require.NoError(t, h.sync())
	assert.Equal(t, 0, h.areas.Record(a).Slot)

	assert.Panics(t, func() { _ = h.AddSprite("late", solidImage(8, 8)) })
}

func TestAnimationAdvancesWithElapsedTime(t *testing.T) {
	h := newTestHud(t)
	h.animationFPS = 4
	h.lastTick = time.Now().Add(-time.Second)
	require.NoError(t, h.sync())
	assert.Equal(t, uint32(4), h.frame)

	// The remainder stays banked: an immediate resync adds nothing.
	require.NoError(t, h.sync())
	assert.Equal(t, uint32(4), h.frame)
}

func TestAnimationFrozenAtZeroFPS(t *testing.T) {
	h := newTestHud(t)
	h.lastTick = time.Now().Add(-time.Hour)
	require.NoError(t, h.sync())
	assert.Equal(t, uint32(0), h.frame)
}

func TestHoveredAreaWithoutPicker(t *testing.T) {
	h := newTestHud(t)
	hd, ok := h.HoveredArea()
	assert.False(t, ok)
	assert.False(t, hd.Valid())
}

func TestBuilderPanicsOnDuplicateSprite(t *testing.T) {
	b := NewBuilder[string, string]()
	b.AddSprite("x", solidImage(4, 4))
	assert.PanicsWithValue(t, "hud: sprite x already registered with the builder", func() {
		b.AddSprite("x", solidImage(4, 4))
	})
	assert.PanicsWithValue(t, "hud: sprite empty dimensions must be greater than zero", func() {
		b.AddSprite("empty", image.NewRGBA(image.Rect(0, 0, 0, 0)))
	})
}

func TestBuilderSlicesAnimatedSheets(t *testing.T) {
	b := NewBuilder[string, string]()
	b.AddAnimatedSprite("walk", solidImage(64, 16), 16)
	require.Len(t, b.sprites, 1)
	assert.Len(t, b.sprites[0].frames, 4)
	assert.Equal(t, uint32(16*16), b.sprites[0].area)
	assert.Equal(t, image.Rect(16, 0, 32, 16), b.sprites[0].frames[1].Bounds())

	// Zero frame width means square frames cut by sheet height.
	b.AddAnimatedSprite("idle", solidImage(48, 16), 0)
	assert.Len(t, b.sprites[1].frames, 3)

	assert.PanicsWithValue(t, "hud: sprite sheet for bad is narrower than one frame", func() {
		b.AddAnimatedSprite("bad", solidImage(8, 16), 16)
	})
}

func TestBuildRequiresSprites(t *testing.T) {
	b := NewBuilder[string, string]()
	_, err := b.Build(nil, nil, 800, 600, 0)
	assert.Error(t, err)
}
