package hud

import (
	"fmt"

	"github.com/Carmen-Shannon/hud-go/common"
	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/Carmen-Shannon/hud-go/hud/model"
	"github.com/Carmen-Shannon/hud-go/hud/picker"
	"github.com/Carmen-Shannon/hud-go/hud/text"
	"github.com/cogentcore/webgpu/wgpu"
)

// gpuState bundles every device resource the hud owns. The sync and render
// paths read it through hudImpl; all creation and release lives here.
type gpuState struct {
	atlasTexture    *wgpu.Texture
	atlasView       *wgpu.TextureView
	atlasSampler    *wgpu.Sampler
	atlasLayerSize  int
	atlasLayerCount int

	offsetBuffer     *wgpu.Buffer
	allocationBuffer *wgpu.Buffer

	spriteLayout *wgpu.BindGroupLayout
	spriteGroup  *wgpu.BindGroup

	uniformLayout *wgpu.BindGroupLayout
	uniformGroup  *wgpu.BindGroup
	uniformBuffer *wgpu.Buffer

	quadVertexBuffer *wgpu.Buffer
	indexBuffer      *wgpu.Buffer
	indexQuads       int

	renderPipeline  *wgpu.RenderPipeline
	pickingPipeline *wgpu.RenderPipeline

	glyphTexture *wgpu.Texture
	glyphView    *wgpu.TextureView
	glyphSampler *wgpu.Sampler
	textLayout   *wgpu.BindGroupLayout
	textGroup    *wgpu.BindGroup

	textPipeline        *wgpu.RenderPipeline
	textPickingPipeline *wgpu.RenderPipeline

	// instanceBuffers hold the per-z sprite instances; nil while the
	// z-level is empty. textBuffers hold the per-z glyph vertices and are
	// created up front at textBufferQuads capacity.
	instanceBuffers [area.ZCount]*wgpu.Buffer
	textBuffers     [area.ZCount]*wgpu.Buffer
	textBufferQuads [area.ZCount]int
}

// initialTextQuads is the starting capacity of each per-z glyph vertex
// buffer, in quads. Buffers double from here and never shrink.
const initialTextQuads = 256

func (h *hudImpl[S, F]) initGPU(surfaceFormat wgpu.TextureFormat) error {
	h.gpu = &gpuState{}
	if err := h.createLayouts(); err != nil {
		return err
	}
	if err := h.createSamplers(); err != nil {
		return err
	}
	if err := h.uploadAtlasTexture(); err != nil {
		return err
	}
	if err := h.writeTables(); err != nil {
		return err
	}
	if err := h.createUniformResources(); err != nil {
		return err
	}
	if err := h.createGeometry(); err != nil {
		return err
	}
	if err := h.createPipelines(surfaceFormat); err != nil {
		return err
	}
	if err := h.createTextResources(); err != nil {
		return err
	}
	p, err := picker.New(h.device, h.gpu.uniformLayout, h.width, h.height)
	if err != nil {
		return err
	}
	h.pick = p
	return nil
}

func (h *hudImpl[S, F]) createLayouts() error {
	spriteBGL, err := h.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "HUD Sprite Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2DArray,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create sprite bind group layout: %w", err)
	}
	h.gpu.spriteLayout = spriteBGL

	uniformBGL, err := h.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "HUD Uniform Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageCompute,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create uniform bind group layout: %w", err)
	}
	h.gpu.uniformLayout = uniformBGL

	textBGL, err := h.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "HUD Glyph Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2DArray,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create glyph bind group layout: %w", err)
	}
	h.gpu.textLayout = textBGL
	return nil
}

func (h *hudImpl[S, F]) createSamplers() error {
	spriteSampler, err := h.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "HUD Sprite Atlas Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create sprite atlas sampler: %w", err)
	}
	h.gpu.atlasSampler = spriteSampler

	glyphSampler, err := h.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "HUD Glyph Atlas Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create glyph atlas sampler: %w", err)
	}
	h.gpu.glyphSampler = glyphSampler
	return nil
}

// uploadAtlasTexture (re)creates the sprite atlas array texture at the
// atlas set's current dimensions and uploads every layer image. Called at
// Build and again whenever AddSprite changes the layer size or count.
func (h *hudImpl[S, F]) uploadAtlasTexture() error {
	size := h.sprites.LayerSize()
	count := h.sprites.LayerCount()
	tex, err := h.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "HUD Sprite Atlas Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(size),
			Height:             uint32(size),
			DepthOrArrayLayers: uint32(count),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageCopyDst | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create sprite atlas texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("hud: failed to create sprite atlas view: %w", err)
	}
	if h.gpu.atlasView != nil {
		h.gpu.atlasView.Release()
	}
	if h.gpu.atlasTexture != nil {
		h.gpu.atlasTexture.Release()
	}
	h.gpu.atlasTexture = tex
	h.gpu.atlasView = view
	h.gpu.atlasLayerSize = size
	h.gpu.atlasLayerCount = count
	for i := 0; i < count; i++ {
		h.writeAtlasLayer(i)
	}
	return nil
}

// writeAtlasLayer uploads one layer's CPU image into its array slice. The
// image may be smaller than the texture extent; it sits at the origin and
// the lookup tables normalize UVs by the largest layer size.
func (h *hudImpl[S, F]) writeAtlasLayer(layer int) {
	img := h.sprites.LayerImage(layer)
	if img == nil {
		return
	}
	b := img.Bounds()
	h.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  h.gpu.atlasTexture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: uint32(layer)},
		},
		img.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * uint32(b.Dx()),
			RowsPerImage: uint32(b.Dy()),
		},
		&wgpu.Extent3D{
			Width:              uint32(b.Dx()),
			Height:             uint32(b.Dy()),
			DepthOrArrayLayers: 1,
		},
	)
}

// writeTables recreates the offset and allocation storage buffers from the
// atlas set and rebuilds the sprite bind group around them.
func (h *hudImpl[S, F]) writeTables() error {
	offsets, allocations := h.sprites.Tables()
	offsetData := make([]byte, 0, len(offsets)*(&model.OffsetEntry{}).Size())
	for i := range offsets {
		offsetData = append(offsetData, offsets[i].Marshal()...)
	}
	allocationData := make([]byte, 0, len(allocations)*(&model.AllocationEntry{}).Size())
	for i := range allocations {
		allocationData = append(allocationData, allocations[i].Marshal()...)
	}

	offsetBuf, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "HUD Sprite Offset Buffer",
		Size:             uint64(len(offsetData)),
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create offset buffer: %w", err)
	}
	h.queue.WriteBuffer(offsetBuf, 0, offsetData)

	allocationBuf, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "HUD Sprite Allocation Buffer",
		Size:             uint64(len(allocationData)),
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		offsetBuf.Release()
		return fmt.Errorf("hud: failed to create allocation buffer: %w", err)
	}
	h.queue.WriteBuffer(allocationBuf, 0, allocationData)

	group, err := h.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "HUD Sprite Bind Group",
		Layout: h.gpu.spriteLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: offsetBuf, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: allocationBuf, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 2, TextureView: h.gpu.atlasView},
			{Binding: 3, Sampler: h.gpu.atlasSampler},
		},
	})
	if err != nil {
		offsetBuf.Release()
		allocationBuf.Release()
		return fmt.Errorf("hud: failed to create sprite bind group: %w", err)
	}

	if h.gpu.spriteGroup != nil {
		h.gpu.spriteGroup.Release()
	}
	if h.gpu.offsetBuffer != nil {
		h.gpu.offsetBuffer.Release()
	}
	if h.gpu.allocationBuffer != nil {
		h.gpu.allocationBuffer.Release()
	}
	h.gpu.offsetBuffer = offsetBuf
	h.gpu.allocationBuffer = allocationBuf
	h.gpu.spriteGroup = group
	return nil
}

func (h *hudImpl[S, F]) createUniformResources() error {
	u := model.Uniforms{
		CurrentFrame: 0,
		WindowWidth:  float32(h.width),
		WindowHeight: float32(h.height),
	}
	buf, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "HUD Uniform Buffer",
		Size:             uint64(u.Size()),
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create uniform buffer: %w", err)
	}
	h.gpu.uniformBuffer = buf
	h.queue.WriteBuffer(buf, 0, u.Marshal())

	group, err := h.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "HUD Uniform Bind Group",
		Layout: h.gpu.uniformLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create uniform bind group: %w", err)
	}
	h.gpu.uniformGroup = group
	return nil
}

func (h *hudImpl[S, F]) createGeometry() error {
	verts := model.QuadVertices()
	vertData := make([]byte, 0, len(verts)*(&model.QuadVertex{}).Size())
	for i := range verts {
		vertData = append(vertData, verts[i].Marshal()...)
	}
	vb, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "HUD Quad Vertex Buffer",
		Size:             uint64(len(vertData)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create quad vertex buffer: %w", err)
	}
	h.gpu.quadVertexBuffer = vb
	h.queue.WriteBuffer(vb, 0, vertData)

	// One quad to start; the text path grows it on demand.
	indexData := common.SliceToBytes(model.QuadIndexPattern(1))
	ib, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "HUD Quad Index Buffer",
		Size:             uint64(len(indexData)),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create quad index buffer: %w", err)
	}
	h.gpu.indexBuffer = ib
	h.gpu.indexQuads = 1
	h.queue.WriteBuffer(ib, 0, indexData)
	return nil
}

// ensureIndexCapacity grows the shared quad index buffer to cover at least
// the requested number of quads, doubling until it fits.
func (h *hudImpl[S, F]) ensureIndexCapacity(quads int) error {
	if quads <= h.gpu.indexQuads {
		return nil
	}
	capacity := h.gpu.indexQuads
	for capacity < quads {
		capacity *= 2
	}
	indexData := common.SliceToBytes(model.QuadIndexPattern(capacity))
	ib, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "HUD Quad Index Buffer",
		Size:             uint64(len(indexData)),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to grow quad index buffer: %w", err)
	}
	h.queue.WriteBuffer(ib, 0, indexData)
	h.gpu.indexBuffer.Release()
	h.gpu.indexBuffer = ib
	logger().Debug("hud: index buffer grown", "quads", capacity, "was", h.gpu.indexQuads)
	h.gpu.indexQuads = capacity
	return nil
}

func (h *hudImpl[S, F]) createPipelines(surfaceFormat wgpu.TextureFormat) error {
	spriteLayout, err := h.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "HUD Sprite Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{h.gpu.spriteLayout, h.gpu.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create sprite pipeline layout: %w", err)
	}
	defer spriteLayout.Release()
	textLayout, err := h.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "HUD Text Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{h.gpu.textLayout, h.gpu.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create text pipeline layout: %w", err)
	}
	defer textLayout.Release()

	alphaBlend := &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
		Alpha: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
	}
	spriteVertexLayouts := []wgpu.VertexBufferLayout{model.QuadVertexLayout(), model.InstanceLayout()}
	textVertexLayouts := []wgpu.VertexBufferLayout{model.GlyphVertexLayout()}

	if h.gpu.renderPipeline, err = h.createRenderPipeline(
		"HUD Render Pipeline", model.RenderShaderSource,
		spriteLayout, spriteVertexLayouts, surfaceFormat, alphaBlend,
	); err != nil {
		return err
	}
	if h.gpu.pickingPipeline, err = h.createRenderPipeline(
		"HUD Picking Render Pipeline", model.PickingRenderShaderSource,
		spriteLayout, spriteVertexLayouts, wgpu.TextureFormatR32Uint, nil,
	); err != nil {
		return err
	}
	if h.gpu.textPipeline, err = h.createRenderPipeline(
		"HUD Text Render Pipeline", model.TextRenderShaderSource,
		textLayout, textVertexLayouts, surfaceFormat, alphaBlend,
	); err != nil {
		return err
	}
	if h.gpu.textPickingPipeline, err = h.createRenderPipeline(
		"HUD Text Picking Render Pipeline", model.TextPickingShaderSource,
		textLayout, textVertexLayouts, wgpu.TextureFormatR32Uint, nil,
	); err != nil {
		return err
	}
	return nil
}

func (h *hudImpl[S, F]) createRenderPipeline(label, source string, layout *wgpu.PipelineLayout, buffers []wgpu.VertexBufferLayout, format wgpu.TextureFormat, blend *wgpu.BlendState) (*wgpu.RenderPipeline, error) {
	module, err := h.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("hud: failed to create shader module for %s: %w", label, err)
	}
	defer module.Release()

	pipeline, err := h.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					Blend:     blend,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("hud: failed to create %s: %w", label, err)
	}
	return pipeline, nil
}

func (h *hudImpl[S, F]) createTextResources() error {
	size := h.glyphs.LayerSize()
	count := h.glyphs.LayerCount()
	tex, err := h.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "HUD Glyph Atlas Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(size),
			Height:             uint32(size),
			DepthOrArrayLayers: uint32(count),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageCopyDst | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create glyph atlas texture: %w", err)
	}
	h.gpu.glyphTexture = tex
	view, err := tex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("hud: failed to create glyph atlas view: %w", err)
	}
	h.gpu.glyphView = view

	group, err := h.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "HUD Glyph Bind Group",
		Layout: h.gpu.textLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: h.gpu.glyphSampler},
		},
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create glyph bind group: %w", err)
	}
	h.gpu.textGroup = group

	stride := (&model.GlyphVertex{}).Size()
	for zi := 0; zi < area.ZCount; zi++ {
		buf, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            fmt.Sprintf("HUD Text Vertex Buffer Z%d", zi),
			Size:             uint64(initialTextQuads * 4 * stride),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return fmt.Errorf("hud: failed to create text vertex buffer for z %d: %w", zi, err)
		}
		h.gpu.textBuffers[zi] = buf
		h.gpu.textBufferQuads[zi] = initialTextQuads
	}
	return nil
}

// writeGlyphUpload copies one freshly rasterized glyph into its spot in the
// glyph atlas texture.
func (h *hudImpl[S, F]) writeGlyphUpload(u text.Upload) {
	h.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  h.gpu.glyphTexture,
			MipLevel: 0,
			Origin: wgpu.Origin3D{
				X: uint32(u.Origin.X),
				Y: uint32(u.Origin.Y),
				Z: uint32(u.Layer),
			},
		},
		u.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(u.Width),
			RowsPerImage: uint32(u.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(u.Width),
			Height:             uint32(u.Height),
			DepthOrArrayLayers: 1,
		},
	)
}

// recreateInstanceBuffer replaces the z-level's GPU instance buffer with
// one sized to the staging buffer's capacity and rewrites it in full.
func (h *hudImpl[S, F]) recreateInstanceBuffer(zi int) error {
	pool := h.pools[zi]
	stride := (&model.Instance{}).Size()
	buf, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            fmt.Sprintf("HUD Instance Buffer Z%d", zi),
		Size:             uint64(pool.Capacity() * stride),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("hud: failed to create instance buffer for z %d: %w", zi, err)
	}
	h.queue.WriteBuffer(buf, 0, pool.Bytes())
	if h.gpu.instanceBuffers[zi] != nil {
		h.gpu.instanceBuffers[zi].Release()
	}
	h.gpu.instanceBuffers[zi] = buf
	logger().Debug("hud: instance buffer recreated", "z", zi, "capacity", pool.Capacity())
	return nil
}

func (h *hudImpl[S, F]) dropInstanceBuffer(zi int) {
	if h.gpu == nil || h.gpu.instanceBuffers[zi] == nil {
		return
	}
	h.gpu.instanceBuffers[zi].Release()
	h.gpu.instanceBuffers[zi] = nil
}

func (g *gpuState) release() {
	for zi := range g.instanceBuffers {
		if g.instanceBuffers[zi] != nil {
			g.instanceBuffers[zi].Release()
			g.instanceBuffers[zi] = nil
		}
		if g.textBuffers[zi] != nil {
			g.textBuffers[zi].Release()
			g.textBuffers[zi] = nil
		}
	}
	if g.textPickingPipeline != nil {
		g.textPickingPipeline.Release()
	}
	if g.textPipeline != nil {
		g.textPipeline.Release()
	}
	if g.pickingPipeline != nil {
		g.pickingPipeline.Release()
	}
	if g.renderPipeline != nil {
		g.renderPipeline.Release()
	}
	if g.textGroup != nil {
		g.textGroup.Release()
	}
	if g.glyphView != nil {
		g.glyphView.Release()
	}
	if g.glyphTexture != nil {
		g.glyphTexture.Release()
	}
	if g.glyphSampler != nil {
		g.glyphSampler.Release()
	}
	if g.indexBuffer != nil {
		g.indexBuffer.Release()
	}
	if g.quadVertexBuffer != nil {
		g.quadVertexBuffer.Release()
	}
	if g.uniformGroup != nil {
		g.uniformGroup.Release()
	}
	if g.uniformBuffer != nil {
		g.uniformBuffer.Release()
	}
	if g.spriteGroup != nil {
		g.spriteGroup.Release()
	}
	if g.allocationBuffer != nil {
		g.allocationBuffer.Release()
	}
	if g.offsetBuffer != nil {
		g.offsetBuffer.Release()
	}
	if g.atlasView != nil {
		g.atlasView.Release()
	}
	if g.atlasTexture != nil {
		g.atlasTexture.Release()
	}
	if g.atlasSampler != nil {
		g.atlasSampler.Release()
	}
	if g.textLayout != nil {
		g.textLayout.Release()
	}
	if g.uniformLayout != nil {
		g.uniformLayout.Release()
	}
	if g.spriteLayout != nil {
		g.spriteLayout.Release()
	}
}
