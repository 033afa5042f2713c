// package picker runs cursor picking on the GPU. Every frame the area IDs
// under each pixel are rendered into an R32Uint target, a single compute
// invocation copies the texel under the cursor into a storage buffer, and
// the buffer hops through a mappable staging copy back to the CPU. The
// result read after submission is therefore one to two frames stale, which
// is the price of never blocking the render loop on a texture readback.
package picker

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/hud-go/common"
	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/Carmen-Shannon/hud-go/hud/model"
	"github.com/cogentcore/webgpu/wgpu"
)

const resultSize = 4

// Picker owns the picking target texture, the cursor uniform, the compute
// pipeline that samples the hovered texel, and the readback channel the
// map callback delivers results on.
type Picker struct {
	device *wgpu.Device

	texture *wgpu.Texture
	view    *wgpu.TextureView

	resultBuffer  *wgpu.Buffer
	stagingBuffer *wgpu.Buffer
	cursorBuffer  *wgpu.Buffer

	layout    *wgpu.BindGroupLayout
	bindGroup *wgpu.BindGroup
	pipeline  *wgpu.ComputePipeline

	// results carries area IDs from the map callback, which runs on a
	// driver thread, back to the owning thread. Sends never block; if
	// the channel is full the frame's result is dropped and a newer one
	// wins.
	results chan uint32

	cursorX, cursorY uint32
	cursorMoved      bool
	hovered          area.Handle
}

// New creates the picking resources for a surface of the given size.
//
// Parameters:
//   - device: the device all resources are created on
//   - uniformLayout: the shared HUD uniform bind group layout (group 0 of
//     the compute pipeline)
//   - width, height: the surface size in pixels
//
// Returns:
//   - *Picker: the ready picker
//   - error: when any GPU resource fails to create
func New(device *wgpu.Device, uniformLayout *wgpu.BindGroupLayout, width, height uint32) (*Picker, error) {
	p := &Picker{
		device:  device,
		results: make(chan uint32, 8),
	}

	var err error
	p.resultBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "HUD Picking Result Buffer",
		Size:  resultSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("picker: failed to create result buffer: %w", err)
	}
	p.stagingBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "HUD Picking Staging Buffer",
		Size:  resultSize,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("picker: failed to create staging buffer: %w", err)
	}
	p.cursorBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "HUD Cursor Position Buffer",
		Size:  uint64((&model.CursorPosition{}).Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("picker: failed to create cursor buffer: %w", err)
	}

	p.layout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "HUD Picking Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeStorage,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeUint,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("picker: failed to create bind group layout: %w", err)
	}

	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "HUD Picking Compute Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: model.PickingComputeShaderSource,
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("picker: failed to create compute shader: %w", err)
	}
	defer shader.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "HUD Picking Compute Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{uniformLayout, p.layout},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("picker: failed to create pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	p.pipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "HUD Picking Compute Pipeline",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("picker: failed to create compute pipeline: %w", err)
	}

	if err := p.createTarget(width, height); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

// createTarget builds the R32Uint picking texture and the bind group that
// references its view.
func (p *Picker) createTarget(width, height uint32) error {
	var err error
	p.texture, err = p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "HUD Picking Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR32Uint,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("picker: failed to create picking texture: %w", err)
	}
	p.view, err = p.texture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("picker: failed to create picking texture view: %w", err)
	}
	p.bindGroup, err = p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "HUD Picking Bind Group",
		Layout: p.layout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  p.resultBuffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
			{
				Binding:     1,
				TextureView: p.view,
			},
			{
				Binding: 2,
				Buffer:  p.cursorBuffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("picker: failed to create bind group: %w", err)
	}
	return nil
}

// Resize recreates the picking target for a new surface size.
func (p *Picker) Resize(width, height uint32) error {
	p.releaseTarget()
	return p.createTarget(width, height)
}

// View returns the render target the picking pass draws area IDs into.
func (p *Picker) View() *wgpu.TextureView {
	return p.view
}

// SetCursor records the latest cursor position. The GPU uniform is only
// written when the position actually changed, on the next FlushCursor.
func (p *Picker) SetCursor(x, y uint32) {
	p.cursorX, p.cursorY = x, y
	p.cursorMoved = true
}

// FlushCursor uploads the cursor uniform if the cursor moved.
func (p *Picker) FlushCursor(queue *wgpu.Queue) {
	if !p.cursorMoved {
		return
	}
	cur := model.CursorPosition{X: p.cursorX, Y: p.cursorY}
	queue.WriteBuffer(p.cursorBuffer, 0, common.StructToBytes(&cur))
	p.cursorMoved = false
}

// EncodeCompute records the picking compute dispatch and the copy of its
// result into the mappable staging buffer. The picking render pass must
// already be recorded on the encoder.
func (p *Picker) EncodeCompute(encoder *wgpu.CommandEncoder, uniforms *wgpu.BindGroup) {
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, uniforms, nil)
	pass.SetBindGroup(1, p.bindGroup, nil)
	pass.DispatchWorkgroups(1, 1, 1)
	pass.End()
	encoder.CopyBufferToBuffer(p.resultBuffer, 0, p.stagingBuffer, 0, resultSize)
}

// PostRender maps the staging buffer and waits for the device so the map
// callback delivers this frame's area ID onto the results channel. Call
// it after the command buffer from the frame has been submitted.
func (p *Picker) PostRender() error {
	err := p.stagingBuffer.MapAsync(wgpu.MapModeRead, 0, resultSize, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			return
		}
		raw := p.stagingBuffer.GetMappedRange(0, resultSize)
		id := binary.LittleEndian.Uint32(raw)
		p.stagingBuffer.Unmap()
		p.deliver(id)
	})
	if err != nil {
		return fmt.Errorf("picker: failed to map staging buffer: %w", err)
	}
	p.device.Poll(true, nil)
	return nil
}

// deliver hands a readback result to the owning thread without blocking
// the driver thread the map callback runs on.
func (p *Picker) deliver(id uint32) {
	select {
	case p.results <- id:
	default:
	}
}

// Drain consumes every pending readback, keeping the newest. The zero ID
// means the cursor was over no area.
func (p *Picker) Drain() {
	for {
		select {
		case id := <-p.results:
			p.hovered = area.Handle(id)
		default:
			return
		}
	}
}

// Hovered returns the area under the cursor as of the last drained
// readback.
func (p *Picker) Hovered() (area.Handle, bool) {
	if !p.hovered.Valid() {
		return 0, false
	}
	return p.hovered, true
}

func (p *Picker) releaseTarget() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.view != nil {
		p.view.Release()
		p.view = nil
	}
	if p.texture != nil {
		p.texture.Release()
		p.texture = nil
	}
}

// Release frees every GPU resource the picker owns.
func (p *Picker) Release() {
	p.releaseTarget()
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.cursorBuffer != nil {
		p.cursorBuffer.Release()
		p.cursorBuffer = nil
	}
	if p.stagingBuffer != nil {
		p.stagingBuffer.Release()
		p.stagingBuffer = nil
	}
	if p.resultBuffer != nil {
		p.resultBuffer.Release()
		p.resultBuffer = nil
	}
}
