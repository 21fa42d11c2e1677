package native

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the row alignment WebGPU requires for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// ensureFrame (re)creates the offscreen color attachment at target size.
func (c *Context) ensureFrame() error {
	w, h := uint32(c.target.Width()), uint32(c.target.Height()) //nolint:gosec // target dimensions are positive ints
	if c.frameTex != nil && c.frameW == w && c.frameH == h {
		return nil
	}
	c.destroyFrame()

	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "shadergen_frame",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("native: create frame texture: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "shadergen_frame_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return fmt.Errorf("native: create frame view: %w", err)
	}
	c.frameTex, c.frameView = tex, view
	c.frameW, c.frameH = w, h
	// A new attachment has undefined contents.
	c.pendingClear = true
	return nil
}

func (c *Context) destroyFrame() {
	if c.device == nil {
		return
	}
	if c.frameView != nil {
		c.device.DestroyTextureView(c.frameView)
		c.frameView = nil
	}
	if c.frameTex != nil {
		c.device.DestroyTexture(c.frameTex)
		c.frameTex = nil
	}
	c.frameW, c.frameH = 0, 0
}

// encodeSubmitReadback records one render pass drawing count vertices,
// copies the frame to a staging buffer, submits, waits and reads the
// pixels back into the target.
func (c *Context) encodeSubmitReadback(po *pipelineObject, slots []vertexSlot, first, count int) error {
	w, h := c.frameW, c.frameH

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "shadergen_encoder",
	})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("shadergen_frame"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpLoad
	if c.pendingClear {
		loadOp = gputypes.LoadOpClear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "shadergen_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       c.frameView,
			LoadOp:     loadOp,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: c.clearColor,
		}},
	})
	vp := c.viewport
	rp.SetViewport(float32(vp[0]), float32(vp[1]), float32(vp[2]), float32(vp[3]), 0, 1)
	rp.SetPipeline(po.pipeline)
	for i, s := range slots {
		rp.SetVertexBuffer(uint32(i), s.buf, 0) //nolint:gosec // slot count is small
	}
	if count > 0 {
		rp.Draw(uint32(count), 1, uint32(first), 0) //nolint:gosec // validated non-negative
	}
	rp.End()

	// CopyTextureToBuffer requires the texture in copy-source layout.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: c.frameTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "shadergen_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer c.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(c.frameTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: c.frameTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	// Back to attachment layout for the next frame's pass.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: c.frameTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	if _, err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	if err := c.device.WaitIdle(); err != nil {
		return fmt.Errorf("native: wait for GPU: %w", err)
	}

	mapping, err := c.device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return fmt.Errorf("native: map staging buffer: %w", err)
	}
	pixels := unsafe.Slice((*byte)(mapping.Ptr), stagingSize)
	c.target.CopyRows(pixels, int(alignedBytesPerRow))
	if err := c.device.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("native: unmap staging buffer: %w", err)
	}
	slogger().Debug("native: frame read back", "width", w, "height", h, "vertices", count)
	return nil
}
