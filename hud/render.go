package hud

import (
	"fmt"

	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/cogentcore/webgpu/wgpu"
)

// Render synchronizes all pending area mutations, draws the visible areas
// into the host's render pass, and records the picking work into a fresh
// command buffer. The host submits the returned buffer after its own and
// releases it, then calls PostRenderWork.
//
// Parameters:
//   - pass: the host's render pass, targeting the surface
//
// Returns:
//   - *wgpu.CommandBuffer: the picking passes, to submit after the host's
//   - error: a wrapped GPU error from synchronization or recording
func (h *hudImpl[S, F]) Render(pass *wgpu.RenderPassEncoder) (*wgpu.CommandBuffer, error) {
	if err := h.sync(); err != nil {
		return nil, err
	}
	h.draw(pass, h.gpu.renderPipeline, h.gpu.textPipeline)

	encoder, err := h.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("hud: failed to create picking command encoder: %w", err)
	}
	pickPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "HUD Picking Render Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       h.pick.View(),
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
	})
	h.draw(pickPass, h.gpu.pickingPipeline, h.gpu.textPickingPipeline)
	pickPass.End()
	h.pick.EncodeCompute(encoder, h.gpu.uniformGroup)

	cb, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return nil, fmt.Errorf("hud: failed to record picking commands: %w", err)
	}
	encoder.Release()
	return cb, nil
}

// draw records the z-ordered draws into the pass. The visible and picking
// passes share this so the picking target sees the exact same overdraw
// order; only the pipelines differ. The uniform bind group occupies group
// 1 in every pipeline layout, so binding it once up front stays valid
// across the pipeline switches.
func (h *hudImpl[S, F]) draw(pass *wgpu.RenderPassEncoder, spritePipeline, textPipeline *wgpu.RenderPipeline) {
	pass.SetBindGroup(1, h.gpu.uniformGroup, nil)
	pass.SetIndexBuffer(h.gpu.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	for zi := 0; zi < area.ZCount; zi++ {
		if pool := h.pools[zi]; pool != nil && pool.Count() > 0 && h.gpu.instanceBuffers[zi] != nil {
			pass.SetPipeline(spritePipeline)
			pass.SetBindGroup(0, h.gpu.spriteGroup, nil)
			pass.SetVertexBuffer(0, h.gpu.quadVertexBuffer, 0, wgpu.WholeSize)
			pass.SetVertexBuffer(1, h.gpu.instanceBuffers[zi], 0, wgpu.WholeSize)
			pass.DrawIndexed(6, uint32(pool.Count()), 0, 0, 0)
		}
		if h.textCounts[zi] > 0 {
			pass.SetPipeline(textPipeline)
			pass.SetBindGroup(0, h.gpu.textGroup, nil)
			pass.SetVertexBuffer(0, h.gpu.textBuffers[zi], 0, wgpu.WholeSize)
			pass.DrawIndexed(uint32(h.textCounts[zi]*6), 1, 0, 0, 0)
		}
	}
}

// PostRenderWork starts the asynchronous map of the picking staging
// buffer. Call once per frame, after submitting the command buffer
// returned by Render; the result is consumed at the next frame's sync.
func (h *hudImpl[S, F]) PostRenderWork() error {
	if h.pick == nil {
		return nil
	}
	return h.pick.PostRender()
}

// Resize adapts the hud to the new window size: the picking target is
// recreated and the window-size uniform refreshed at the next sync. Zero
// dimensions (minimized windows) are ignored.
func (h *hudImpl[S, F]) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	if width == h.width && height == h.height {
		return
	}
	h.width = width
	h.height = height
	h.uniformsDirty = true
	if h.pick != nil {
		if err := h.pick.Resize(width, height); err != nil {
			logger().Warn("hud: failed to resize picking target", "error", err)
		}
	}
}
