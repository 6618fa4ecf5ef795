package render

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// DrawItem is one (Transform, MeshRenderer, [MaterialOverride]) entity
// extracted by the engine for a frame; render stays decoupled from the ECS.
type DrawItem struct {
	Model         mgl32.Mat4
	NormalMatrix  mgl32.Mat3
	BaseColor     [4]float32
	Roughness     float32
	Metallic      float32
	Emission      [3]float32
	VertexBuffer  *wgpu.Buffer
	IndexBuffer   *wgpu.Buffer
	IndexCount    uint32
	Hidden        bool
}

type PointLightItem struct {
	Position  mgl32.Vec3
	Color     [3]float32
	Intensity float32
	Range     float32
}

type DirectionalLightItem struct {
	Direction        mgl32.Vec3
	Color            [3]float32
	Intensity        float32
	ShadowHalfExtent float32
}

// SplatItem is one GaussianSplat entity's CPU data, already resolved from
// its cache entry by the engine.
type SplatItem struct {
	Positions      []mgl32.Vec3
	StorageBuffer  *wgpu.Buffer
	SortedIndexBuf *wgpu.Buffer
	Count          int
}

type FrameInputs struct {
	ViewMatrix       mgl32.Mat4
	ProjMatrix       mgl32.Mat4
	Draws            []DrawItem
	PointLights      []PointLightItem
	DirectionalLight *DirectionalLightItem
	Splats           []SplatItem
}

// SortSplatIndices computes each splat's view-space z and returns an index
// array ordered farthest-first (ascending z in view space looking down -Z),
// correct for premultiplied-alpha OVER compositing (§4.2.5).
func SortSplatIndices(positions []mgl32.Vec3, view mgl32.Mat4) []uint32 {
	type zi struct {
		z float32
		i uint32
	}
	zs := make([]zi, len(positions))
	for i, p := range positions {
		v := view.Mul4x1(mgl32.Vec4{p.X(), p.Y(), p.Z(), 1})
		zs[i] = zi{z: v.Z(), i: uint32(i)}
	}
	sort.Slice(zs, func(a, b int) bool { return zs[a].z < zs[b].z })
	out := make([]uint32, len(zs))
	for i, e := range zs {
		out[i] = e.i
	}
	return out
}

// Execute walks the compiled pass order once, dispatching draws per pass
// type as described in §4.2.4. GPU command submission is encapsulated here
// so the engine's frame loop stays free of wgpu plumbing.
func (p *Pipeline) Execute(frame FrameInputs) error {
	surfaceTexture, err := p.gpu.Surface.GetCurrentTexture()
	if err != nil {
		// Surface lost/outdated: reconfigure and skip this frame (§4.2.7).
		p.gpu.Resize(p.gpu.Width, p.gpu.Height)
		return nil
	}
	swapchainView, err := surfaceTexture.Texture.CreateView(nil)
	if err != nil {
		return err
	}

	if err := p.EnsureDrawUniformCapacity(len(frame.Draws)); err != nil {
		return err
	}
	for i, d := range frame.Draws {
		p.writeDrawUniform(i, d)
	}
	p.writeCameraUniform(frame)
	p.sortAndUploadSplatOrder(frame)

	encoder, err := p.gpu.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "frame"})
	if err != nil {
		return err
	}

	for _, cp := range p.passes {
		view := p.resolveColorView(cp, swapchainView)
		switch cp.def.Type {
		case PassShadow:
			p.executeShadowPass(encoder, cp, frame)
		case PassRasterize:
			p.executeRasterizePass(encoder, cp, view, frame)
		case PassSplat:
			p.executeSplatPass(encoder, cp, view, frame)
		case PassFullscreen:
			p.executeFullscreenPass(encoder, cp, view)
		}
	}

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	p.gpu.Queue.Submit(cmdBuf)
	p.gpu.Surface.Present()
	return nil
}

func (p *Pipeline) resolveColorView(cp *compiledPass, swapchainView *wgpu.TextureView) *wgpu.TextureView {
	for _, slot := range cp.colorSlots {
		name := cp.def.Outputs[slot]
		if name == "swapchain" {
			return swapchainView
		}
		if res, ok := p.resources[name]; ok {
			return res.view
		}
	}
	return swapchainView
}

func (p *Pipeline) writeDrawUniform(index int, d DrawItem) {
	data := make([]byte, DrawUniformStride)
	writeMat4(data[0:64], d.Model)
	writeMat3Padded(data[64:112], d.NormalMatrix)
	writeVec4(data[112:128], d.BaseColor)
	p.gpu.Queue.WriteBuffer(p.drawUniforms, uint64(index*DrawUniformStride), data)
}

// writeCameraUniform uploads the active view/projection and the scene's
// single directional light to the group-0 uniform every camera-consuming
// pass binds (§4.2.3, §4.2.4). Point lights stay engine-side only; the
// built-in fallback shaders don't carry the full light list.
func (p *Pipeline) writeCameraUniform(frame FrameInputs) {
	data := make([]byte, cameraUniformSize)
	writeMat4(data[0:64], frame.ViewMatrix)
	writeMat4(data[64:128], frame.ProjMatrix)

	dir := mgl32.Vec3{0, -1, 0}
	color := [3]float32{1, 1, 1}
	intensity := float32(1)
	if frame.DirectionalLight != nil {
		dir = frame.DirectionalLight.Direction
		color = frame.DirectionalLight.Color
		intensity = frame.DirectionalLight.Intensity
	}
	writeVec4(data[128:144], [4]float32{dir.X(), dir.Y(), dir.Z(), 0})
	writeVec4(data[144:160], [4]float32{color[0] * intensity, color[1] * intensity, color[2] * intensity, 1})

	p.gpu.Queue.WriteBuffer(p.cameraUniforms, 0, data)
}

// sortAndUploadSplatOrder computes each splat's back-to-front draw order
// (§4.2.3 step 4, §4.5 step 17) and uploads it to the splat's own sorted-
// index buffer. Splats without a SortedIndexBuf are skipped; the engine's
// buildFrameInputs does not set one, and no pass binds that buffer.
func (p *Pipeline) sortAndUploadSplatOrder(frame FrameInputs) {
	for _, s := range frame.Splats {
		if len(s.Positions) == 0 || s.SortedIndexBuf == nil {
			continue
		}
		order := SortSplatIndices(s.Positions, frame.ViewMatrix)
		data := make([]byte, len(order)*4)
		for i, idx := range order {
			binary.LittleEndian.PutUint32(data[i*4:i*4+4], idx)
		}
		p.gpu.Queue.WriteBuffer(s.SortedIndexBuf, 0, data)
	}
}

func writeMat4(dst []byte, m mgl32.Mat4) {
	for i, f := range m {
		writeFloat32(dst[i*4:i*4+4], f)
	}
}

func writeMat3Padded(dst []byte, m mgl32.Mat3) {
	// std140 mat3 pads each column to 16 bytes; 3 columns = 48 bytes.
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			writeFloat32(dst[col*16+row*4:col*16+row*4+4], m[col*3+row])
		}
	}
}

func writeVec4(dst []byte, v [4]float32) {
	for i, f := range v {
		writeFloat32(dst[i*4:i*4+4], f)
	}
}

func writeFloat32(dst []byte, f float32) {
	u := math.Float32bits(f)
	dst[0] = byte(u)
	dst[1] = byte(u >> 8)
	dst[2] = byte(u >> 16)
	dst[3] = byte(u >> 24)
}

func (p *Pipeline) executeShadowPass(encoder *wgpu.CommandEncoder, cp *compiledPass, frame FrameInputs) {
	if frame.DirectionalLight == nil {
		return
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: cp.def.Name,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			DepthLoadOp:  wgpu.LoadOpClear,
			DepthStoreOp: wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	pass.SetPipeline(cp.pipeline)
	if cp.cameraBindGroup != nil {
		pass.SetBindGroup(0, cp.cameraBindGroup, nil)
	}
	if cp.drawBindGroup != nil {
		pass.SetBindGroup(1, cp.drawBindGroup, nil)
	}
	for i, d := range frame.Draws {
		if d.Hidden || d.VertexBuffer == nil {
			continue
		}
		pass.SetVertexBuffer(0, d.VertexBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(d.IndexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(d.IndexCount, 1, 0, 0, uint32(i))
	}
	pass.End()
}

func (p *Pipeline) executeRasterizePass(encoder *wgpu.CommandEncoder, cp *compiledPass, view *wgpu.TextureView, frame FrameInputs) {
	var attachments []wgpu.RenderPassColorAttachment
	for range cp.colorSlots {
		attachments = append(attachments, wgpu.RenderPassColorAttachment{
			View:    view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		})
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  cp.def.Name,
		ColorAttachments:       attachments,
		DepthStencilAttachment: shadowlessDepthAttachment(cp),
	})
	pass.SetPipeline(cp.pipeline)
	if cp.cameraBindGroup != nil {
		pass.SetBindGroup(0, cp.cameraBindGroup, nil)
	}
	if cp.drawBindGroup != nil {
		pass.SetBindGroup(1, cp.drawBindGroup, nil)
	}
	for i, d := range frame.Draws {
		if d.Hidden || d.VertexBuffer == nil {
			continue
		}
		pass.SetVertexBuffer(0, d.VertexBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(d.IndexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(d.IndexCount, 1, 0, 0, uint32(i))
	}
	pass.End()
}

func shadowlessDepthAttachment(cp *compiledPass) *wgpu.RenderPassDepthStencilAttachment {
	if !cp.hasDepth {
		return nil
	}
	return &wgpu.RenderPassDepthStencilAttachment{
		DepthLoadOp:     wgpu.LoadOpClear,
		DepthStoreOp:    wgpu.StoreOpStore,
		DepthClearValue: 1.0,
	}
}

func (p *Pipeline) executeSplatPass(encoder *wgpu.CommandEncoder, cp *compiledPass, view *wgpu.TextureView, frame FrameInputs) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: cp.def.Name,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View: view, LoadOp: wgpu.LoadOpLoad, StoreOp: wgpu.StoreOpStore,
		}},
	})
	pass.SetPipeline(cp.pipeline)
	if cp.cameraBindGroup != nil {
		pass.SetBindGroup(0, cp.cameraBindGroup, nil)
	}
	for _, s := range frame.Splats {
		if s.Count == 0 {
			continue
		}
		pass.Draw(uint32(6*s.Count), 1, 0, 0)
	}
	pass.End()
}

func (p *Pipeline) executeFullscreenPass(encoder *wgpu.CommandEncoder, cp *compiledPass, view *wgpu.TextureView) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: cp.def.Name,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View: view, LoadOp: wgpu.LoadOpClear, StoreOp: wgpu.StoreOpStore,
		}},
	})
	pass.SetPipeline(cp.pipeline)
	if cp.bindGroup != nil {
		pass.SetBindGroup(0, cp.bindGroup, nil)
	}
	pass.Draw(3, 1, 0, 0)
	pass.End()
}
