// package area defines the UI area records managed by the hud: screen-space
// rectangles with a z-level, an optional sprite, an optional text payload,
// and the stable handles used to address them. The Store tracks which
// handles have pending mutations or removals between frame syncs.
package area

// ZOrder determines the order in which UI areas are drawn. ZFirst is drawn
// first and ZFourth last, so ZFourth ends up on top of ZFirst. The z-levels
// are a small fixed set for performance reasons (transparency + rendering is
// hard). How areas overlap within the same ZOrder is undefined.
type ZOrder uint8

const (
	ZFirst ZOrder = iota
	ZSecond
	ZThird
	ZFourth

	// ZCount is the number of z-levels. Buffer pools are sized by it.
	ZCount = 4
)

// Index returns the z-level as a slice index in draw order.
func (z ZOrder) Index() int {
	return int(z)
}

// Handle identifies a UI area independent of where its draw data currently
// lives. Handles are assigned strictly increasing from 1 and are never
// reused, not even after RemoveArea or Clear. The zero Handle is the
// reserved "no hit" sentinel and never identifies an area.
type Handle uint32

// Valid reports whether the handle could identify an area. It does not
// check that the area still exists.
func (h Handle) Valid() bool {
	return h != 0
}

// Text is the optional text payload of an area. The text is laid out inside
// the area's rectangle: word-wrapped, horizontally centered, vertically
// middled.
type Text[F comparable] struct {
	// Content is the string to lay out and draw.
	Content string
	// Font identifies a font registered on the builder.
	Font F
	// Size is the font pixel size used for rasterization and layout.
	Size uint16
}

// Area is a rectangle on the screen that shows a sprite and/or text. These
// are the UI elements of the hud. Areas are drawn in ZOrder and mutated
// through the hud's AreaMut accessor. When the cursor hovers an opaque
// pixel of the area, the hud's HoveredArea reports its handle.
//
// Coordinates are in pixels with the origin at the window's top-left corner
// and Y growing downward.
type Area[S, F comparable] struct {
	XMin float32
	XMax float32
	YMin float32
	YMax float32
	Z    ZOrder
	// Sprite optionally references a sprite registered on the builder (or
	// added later through AddSprite). Nil means the area draws no sprite.
	Sprite *S
	// Text optionally carries a text payload laid out inside the rectangle.
	Text *Text[F]
	// Enabled toggles the area's participation in drawing and hit-testing.
	// Disabled areas are evicted from their instance buffer entirely rather
	// than flagged inactive.
	Enabled bool
}

// Record is an Area plus the synchronization bookkeeping the hud keeps per
// handle: the z-level the area was last synced under and the instance
// buffer slot it currently occupies.
type Record[S, F comparable] struct {
	Area Area[S, F]

	// LastZ is the z-level the area resided under after the previous sync.
	// When Area.Z differs, the sync pass evicts the area from LastZ's
	// buffer before placing it again.
	LastZ ZOrder

	// Slot is the area's slot in its z-level's instance buffer, or NoSlot
	// when the area is not resident (never synced, disabled, or without a
	// sprite payload).
	Slot int
}

// NoSlot marks a Record that does not occupy an instance buffer slot.
const NoSlot = -1
