// package model defines the GPU-facing data layouts of the hud: the shared
// quad geometry, per-area sprite instances, glyph vertices, the frame
// uniforms, and the sprite lookup tables. Every type carries an explicit
// Marshal matching its WGSL counterpart byte for byte.
package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// QuadVertex is one corner of the shared unit quad. All sprite instances
// are expanded from the same four corners; the instance data supplies the
// screen rectangle.
// Size: 8 bytes.
type QuadVertex struct {
	Position [2]float32 // offset 0: corner in unit-quad space, each component 0 or 1 (8 bytes)
}

// Size returns the size of the QuadVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (q *QuadVertex) Size() int {
	return int(unsafe.Sizeof(*q))
}

// Marshal serializes the QuadVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 8-byte buffer ready for GPU upload.
func (q *QuadVertex) Marshal() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(q.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(q.Position[1]))
	return buf
}

// QuadVertices returns the four corners of the unit quad in the winding
// the index pattern expects.
func QuadVertices() [4]QuadVertex {
	return [4]QuadVertex{
		{Position: [2]float32{0, 1}},
		{Position: [2]float32{1, 1}},
		{Position: [2]float32{1, 0}},
		{Position: [2]float32{0, 0}},
	}
}

// QuadVertexLayout describes the unit-quad vertex buffer (slot 0) to the
// sprite pipelines.
func QuadVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64((&QuadVertex{}).Size()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		},
	}
}

// Instance is the per-area draw record consumed by the instanced sprite
// pipelines. One Instance per resident area per frame; the vertex shader
// combines it with the unit quad and the sprite lookup tables.
// Matches the WGSL InstanceInput layout exactly (see render.wgsl).
// Size: 24 bytes.
type Instance struct {
	XMin        float32 // offset  0: left edge in window pixels (4 bytes)
	XMax        float32 // offset  4: right edge in window pixels (4 bytes)
	YMin        float32 // offset  8: top edge in window pixels (4 bytes)
	YMax        float32 // offset 12: bottom edge in window pixels (4 bytes)
	SpriteIndex uint32  // offset 16: index into the offset table selecting the sprite (4 bytes)
	AreaID      uint32  // offset 20: owning area handle, written by the picking pass (4 bytes)
}

// Size returns the size of the Instance struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (i *Instance) Size() int {
	return int(unsafe.Sizeof(*i))
}

// Marshal serializes the Instance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 24-byte buffer ready for GPU upload.
func (i *Instance) Marshal() []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(i.XMin))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(i.XMax))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(i.YMin))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(i.YMax))
	binary.LittleEndian.PutUint32(buf[16:20], i.SpriteIndex)
	binary.LittleEndian.PutUint32(buf[20:24], i.AreaID)
	return buf
}

// InstanceLayout describes the per-instance buffer (slot 1) to the sprite
// pipelines.
func InstanceLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64((&Instance{}).Size()),
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 1},
			{Format: wgpu.VertexFormatUint32, Offset: 16, ShaderLocation: 2},
			{Format: wgpu.VertexFormatUint32, Offset: 20, ShaderLocation: 3},
		},
	}
}

// GlyphVertex is one corner of a laid-out glyph quad. Text is not
// instanced: every glyph contributes four explicit vertices because each
// carries its own atlas rectangle.
// Matches the WGSL VertexInput layout of text_render.wgsl exactly.
// Size: 24 bytes.
type GlyphVertex struct {
	PosX       float32 // offset  0: corner x in window pixels (4 bytes)
	PosY       float32 // offset  4: corner y in window pixels (4 bytes)
	TexX       float32 // offset  8: normalized u in the glyph atlas layer (4 bytes)
	TexY       float32 // offset 12: normalized v in the glyph atlas layer (4 bytes)
	AtlasIndex uint32  // offset 16: glyph atlas array layer (4 bytes)
	AreaID     uint32  // offset 20: owning area handle for picking (4 bytes)
}

// Size returns the size of the GlyphVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GlyphVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GlyphVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 24-byte buffer ready for GPU upload.
func (g *GlyphVertex) Marshal() []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.PosX))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.PosY))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.TexX))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.TexY))
	binary.LittleEndian.PutUint32(buf[16:20], g.AtlasIndex)
	binary.LittleEndian.PutUint32(buf[20:24], g.AreaID)
	return buf
}

// GlyphVertexLayout describes the glyph vertex buffer to the text
// pipelines.
func GlyphVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64((&GlyphVertex{}).Size()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32, Offset: 4, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32, Offset: 8, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 3},
			{Format: wgpu.VertexFormatUint32, Offset: 16, ShaderLocation: 4},
			{Format: wgpu.VertexFormatUint32, Offset: 20, ShaderLocation: 5},
		},
	}
}

// Uniforms is the shared per-frame uniform block: the global animation
// frame counter and the window size used to map pixel coordinates to clip
// space.
// Matches the WGSL Uniforms struct layout exactly. Size: 12 bytes.
type Uniforms struct {
	CurrentFrame uint32  // offset 0: global animation frame counter (4 bytes)
	WindowWidth  float32 // offset 4: window width in pixels (4 bytes)
	WindowHeight float32 // offset 8: window height in pixels (4 bytes)
}

// Size returns the size of the Uniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (u *Uniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the Uniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 12-byte buffer ready for GPU upload.
func (u *Uniforms) Marshal() []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], u.CurrentFrame)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(u.WindowWidth))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(u.WindowHeight))
	return buf
}

// CursorPosition is the picking compute shader's cursor uniform, in pixels
// from the window's top-left corner.
// Size: 8 bytes.
type CursorPosition struct {
	X uint32 // offset 0: cursor x in pixels (4 bytes)
	Y uint32 // offset 4: cursor y in pixels (4 bytes)
}

// Size returns the size of the CursorPosition struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (c *CursorPosition) Size() int {
	return int(unsafe.Sizeof(*c))
}

// Marshal serializes the CursorPosition struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 8-byte buffer ready for GPU upload.
func (c *CursorPosition) Marshal() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], c.X)
	binary.LittleEndian.PutUint32(buf[4:8], c.Y)
	return buf
}

// OffsetEntry is one row of the per-sprite offset table: where the
// sprite's frames start in the allocation table and how many there are.
// The vertex shader resolves the current animation frame from it.
// Size: 8 bytes.
type OffsetEntry struct {
	Offset uint32 // offset 0: first frame index in the allocation table (4 bytes)
	Count  uint32 // offset 4: number of frames, 1 for inanimate sprites (4 bytes)
}

// Size returns the size of the OffsetEntry struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (o *OffsetEntry) Size() int {
	return int(unsafe.Sizeof(*o))
}

// Marshal serializes the OffsetEntry struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 8-byte buffer ready for GPU upload.
func (o *OffsetEntry) Marshal() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], o.Offset)
	binary.LittleEndian.PutUint32(buf[4:8], o.Count)
	return buf
}

// AllocationEntry is one row of the flattened allocation table: the atlas
// placement of a single sprite frame. UVs are normalized by the largest
// atlas layer size.
// Size: 20 bytes.
type AllocationEntry struct {
	XMin       float32 // offset  0: normalized left edge in the atlas layer (4 bytes)
	XMax       float32 // offset  4: normalized right edge (4 bytes)
	YMin       float32 // offset  8: normalized top edge (4 bytes)
	YMax       float32 // offset 12: normalized bottom edge (4 bytes)
	AtlasIndex uint32  // offset 16: atlas array layer holding the frame (4 bytes)
}

// Size returns the size of the AllocationEntry struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (a *AllocationEntry) Size() int {
	return int(unsafe.Sizeof(*a))
}

// Marshal serializes the AllocationEntry struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload.
func (a *AllocationEntry) Marshal() []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(a.XMin))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(a.XMax))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(a.YMin))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(a.YMax))
	binary.LittleEndian.PutUint32(buf[16:20], a.AtlasIndex)
	return buf
}

// QuadIndexPattern returns the shared index stream for quads built from
// four vertices each: 0,1,2,0,2,3 offset by 4 per quad. The first six
// entries double as the index buffer of the instanced sprite draw.
//
// Parameters:
//   - quads: the number of quads the stream must cover
//
// Returns:
//   - []uint32: 6*quads indices
func QuadIndexPattern(quads int) []uint32 {
	out := make([]uint32, 0, quads*6)
	for q := 0; q < quads; q++ {
		base := uint32(q * 4)
		out = append(out, base, base+1, base+2, base, base+2, base+3)
	}
	return out
}
