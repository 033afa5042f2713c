package model

import (
	_ "embed"
)

// RenderShaderSource is the WGSL module for the visible sprite pass:
// instanced unit quads, frame lookup through the offset/allocation tables,
// alpha-blended atlas sampling.
//
//go:embed shaders/render.wgsl
var RenderShaderSource string

// PickingRenderShaderSource is the WGSL module for the sprite picking
// pass. Same geometry and draw order as the visible pass, but fragments
// write the owning area handle into the R32Uint target and transparent
// pixels are discarded.
//
//go:embed shaders/cursor_picking_render.wgsl
var PickingRenderShaderSource string

// PickingComputeShaderSource is the WGSL module of the single-thread
// compute pass that reads the picking target at the cursor pixel into the
// result storage buffer.
//
//go:embed shaders/cursor_picking_compute.wgsl
var PickingComputeShaderSource string

// TextRenderShaderSource is the WGSL module for the visible text pass:
// pre-laid-out glyph quads sampling coverage from the R8 glyph atlas.
//
//go:embed shaders/text_render.wgsl
var TextRenderShaderSource string

// TextPickingShaderSource is the WGSL module for the text picking pass,
// writing area handles for sufficiently covered glyph pixels.
//
//go:embed shaders/cursor_picking_text_render.wgsl
var TextPickingShaderSource string
