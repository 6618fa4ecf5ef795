package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// DrawUniformStride is the fixed per-entity stride (model matrix, normal
// matrix, material params) within the draws storage buffer, indexed per
// draw call by instance_index. 256 bytes keeps every entry aligned to the
// most permissive GPU minimum binding alignment even though a storage
// buffer array doesn't strictly require it.
const DrawUniformStride = 256

// MaxPointLights caps how many point lights the engine collects into
// FrameInputs.PointLights each frame. Execute does not upload them.
const MaxPointLights = 32

// cameraUniformSize is view (64) + proj (64) + light_dir (16) + light_color
// (16), matching CameraUniform in builtin_shaders.go byte for byte.
const cameraUniformSize = 160

type compiledResource struct {
	def   ResourceDef
	view  *wgpu.TextureView
	tex   *wgpu.Texture
	isVP  bool // true if sized off the viewport (rebuilt on resize)
	fracN int  // >1 for "viewport/N" sizing
}

type compiledPass struct {
	def        PassDef
	pipeline   *wgpu.RenderPipeline
	colorSlots []string
	depthSlot  string
	hasDepth   bool
	inputSlot  string // first input resource name, fullscreen passes only

	cameraBindGroup *wgpu.BindGroup // group 0: camera+light uniform (rasterize/shadow/splat)
	drawBindGroup   *wgpu.BindGroup // group 1: per-draw storage buffer (rasterize/shadow)
	bindGroup       *wgpu.BindGroup // group 0: input texture+sampler (fullscreen)
}

func passUsesCamera(t PassType) bool {
	return t == PassRasterize || t == PassShadow || t == PassSplat
}

func passUsesDrawBuffer(t PassType) bool {
	return t == PassRasterize || t == PassShadow
}

// Pipeline is a compiled DAG ready to execute per frame. Compile failures
// (bad shader, cycle) leave any previously-compiled Pipeline untouched so
// the engine can keep rendering the last good pipeline (§4.2.7).
type Pipeline struct {
	gpu       *GpuState
	def       *PipelineDef
	order     []PassDef
	resources map[string]*compiledResource
	passes    []*compiledPass

	cameraUniforms *wgpu.Buffer
	sampler        *wgpu.Sampler

	drawUniforms *wgpu.Buffer
	drawCount    int
}

// Compile builds a fresh Pipeline from a parsed YAML description. On any
// error the caller should keep using its previous Pipeline, per §4.2.7.
func Compile(gpu *GpuState, def *PipelineDef) (*Pipeline, error) {
	for _, p := range def.Passes {
		if err := validatePassType(p.Type); err != nil {
			return nil, err
		}
	}

	order, err := BuildExecutionOrder(def.Passes)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{gpu: gpu, def: def, order: order, resources: map[string]*compiledResource{}}

	cameraBuf, err := gpu.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "camera-uniform",
		Size:  cameraUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create camera uniform buffer: %w", err)
	}
	p.cameraUniforms = cameraBuf

	sampler, err := gpu.Device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:        "pipeline-sampler",
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline sampler: %w", err)
	}
	p.sampler = sampler

	width, height := gpu.Width, gpu.Height
	if def.Settings.Resolution[0] > 0 {
		width, height = def.Settings.Resolution[0], def.Settings.Resolution[1]
	}
	for _, rd := range def.Resources {
		res, err := p.allocateResource(rd, width, height)
		if err != nil {
			return nil, fmt.Errorf("allocate resource %q: %w", rd.Name, err)
		}
		p.resources[rd.Name] = res
	}

	for _, pd := range order {
		cp, err := p.compilePass(pd)
		if err != nil {
			return nil, fmt.Errorf("compile pass %q: %w", pd.Name, err)
		}
		p.passes = append(p.passes, cp)
	}

	if err := p.EnsureDrawUniformCapacity(1); err != nil {
		return nil, fmt.Errorf("allocate draw uniform pool: %w", err)
	}

	return p, nil
}

func (p *Pipeline) allocateResource(rd ResourceDef, vpW, vpH int) (*compiledResource, error) {
	w, h, isVP, fracN := resolveSize(rd.Size, vpW, vpH)
	format, hasDepth := textureFormatOf(rd.Format)

	usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
	tex, err := p.gpu.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     rd.Name,
		Size:      wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		Format:    format,
		Usage:     usage,
		Dimension: wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	_ = hasDepth
	return &compiledResource{def: rd, view: view, tex: tex, isVP: isVP, fracN: fracN}, nil
}

// resolveSize parses "viewport", "viewport/N", or "WxH" per §4.2.1.
func resolveSize(size string, vpW, vpH int) (w, h int, isVP bool, fracN int) {
	if size == "viewport" {
		return vpW, vpH, true, 1
	}
	if rest, ok := strings.CutPrefix(size, "viewport/"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			n = 1
		}
		return vpW / n, vpH / n, true, n
	}
	if wStr, hStr, ok := strings.Cut(size, "x"); ok {
		w, _ = strconv.Atoi(wStr)
		h, _ = strconv.Atoi(hStr)
		return w, h, false, 1
	}
	return vpW, vpH, true, 1
}

func textureFormatOf(name string) (wgpu.TextureFormat, bool) {
	switch name {
	case "Rgba8":
		return wgpu.TextureFormatRGBA8Unorm, false
	case "Rgba16F":
		return wgpu.TextureFormatRGBA16Float, false
	case "Rg16F":
		return wgpu.TextureFormatRG16Float, false
	case "R16F":
		return wgpu.TextureFormatR16Float, false
	case "Rgba32F":
		return wgpu.TextureFormatRGBA32Float, false
	case "Depth32F":
		return wgpu.TextureFormatDepth32Float, true
	case "Depth24Plus":
		return wgpu.TextureFormatDepth24Plus, true
	default:
		return wgpu.TextureFormatRGBA8Unorm, false
	}
}

func (p *Pipeline) compilePass(pd PassDef) (*compiledPass, error) {
	source, fromBuiltin := p.resolveShaderSource(pd)
	if source == "" {
		return nil, fmt.Errorf("no shader source for pass %q (declared %q, no built-in fallback)", pd.Name, pd.Shader)
	}
	_ = fromBuiltin

	shader, err := p.gpu.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          pd.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return nil, fmt.Errorf("shader compile: %w", err)
	}

	colorSlots := pd.ColorTargets()
	depthSlot, hasDepth := pd.DepthTarget()

	var targets []wgpu.ColorTargetState
	blend := blendStateFor(pd.Type)
	for range colorSlots {
		targets = append(targets, wgpu.ColorTargetState{
			Format:    wgpu.TextureFormatRGBA8Unorm,
			Blend:     &blend,
			WriteMask: wgpu.ColorWriteMaskAll,
		})
	}

	var depthStencil *wgpu.DepthStencilState
	if hasDepth {
		depthStencil = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
		}
	}

	vertexLayout := vertexLayoutFor(pd.Type)

	pipeline, err := p.gpu.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: pd.Name,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets:    targets,
		},
		DepthStencil: depthStencil,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}

	cp := &compiledPass{def: pd, pipeline: pipeline, colorSlots: colorSlots, depthSlot: depthSlot, hasDepth: hasDepth}

	if passUsesCamera(pd.Type) {
		bg, err := p.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  pd.Name + "-camera",
			Layout: pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: p.cameraUniforms, Size: cameraUniformSize},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create camera bind group for pass %q: %w", pd.Name, err)
		}
		cp.cameraBindGroup = bg
	}

	if pd.Type == PassFullscreen {
		cp.inputSlot = firstInputResourceName(pd)
		if res, ok := p.resources[cp.inputSlot]; ok {
			bg, err := p.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:  pd.Name + "-input",
				Layout: pipeline.GetBindGroupLayout(0),
				Entries: []wgpu.BindGroupEntry{
					{Binding: 0, TextureView: res.view},
					{Binding: 1, Sampler: p.sampler},
				},
			})
			if err != nil {
				return nil, fmt.Errorf("create input bind group for pass %q: %w", pd.Name, err)
			}
			cp.bindGroup = bg
		}
	}

	return cp, nil
}

// firstInputResourceName picks a pass's sole fullscreen input deterministically;
// YAML map iteration order isn't, so this sorts like ColorTargets does.
func firstInputResourceName(pd PassDef) string {
	var names []string
	for _, name := range pd.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func (p *Pipeline) resolveShaderSource(pd PassDef) (string, bool) {
	if pd.Shader != "" {
		if src, err := crossCompileShader(pd.Shader); err == nil {
			return src, false
		}
	}
	src, ok := builtinShaderFor(pd.Name)
	return src, ok
}

// crossCompileShader is the out-of-scope collaborator interface point for
// the shader cross-compiler; a real build wires this to the project's
// compiler and this always falls through to the built-in source.
var crossCompileShaderHook func(path string) (string, error)

func crossCompileShader(path string) (string, error) {
	if crossCompileShaderHook != nil {
		return crossCompileShaderHook(path)
	}
	return "", fmt.Errorf("no shader cross-compiler configured")
}

func blendStateFor(t PassType) wgpu.BlendState {
	if t == PassSplat {
		return wgpu.BlendState{
			Color: wgpu.BlendComponent{Operation: wgpu.BlendOperationAdd, SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha},
			Alpha: wgpu.BlendComponent{Operation: wgpu.BlendOperationAdd, SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha},
		}
	}
	return wgpu.BlendState{
		Color: wgpu.BlendComponent{Operation: wgpu.BlendOperationAdd, SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorZero},
		Alpha: wgpu.BlendComponent{Operation: wgpu.BlendOperationAdd, SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorZero},
	}
}

func vertexLayoutFor(t PassType) []wgpu.VertexBufferLayout {
	switch t {
	case PassRasterize, PassShadow:
		return []wgpu.VertexBufferLayout{meshVertexLayout()}
	default:
		return nil
	}
}

func meshVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 8 * 4, // position(3) + normal(3) + uv(2), float32
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}
}

// EnsureDrawUniformCapacity grows the draws storage buffer to hold at least
// n entities at DrawUniformStride each, rebuilding every pass's group-1 bind
// group against the new buffer since the old one no longer exists.
func (p *Pipeline) EnsureDrawUniformCapacity(n int) error {
	if n < 1 {
		n = 1
	}
	if n <= p.drawCount && p.drawUniforms != nil {
		return nil
	}
	if p.drawUniforms != nil {
		p.drawUniforms.Release()
	}
	buf, err := p.gpu.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "draw-storage-pool",
		Size:             uint64(n * DrawUniformStride),
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return err
	}
	p.drawUniforms = buf
	p.drawCount = n
	return p.rebuildDrawBindGroups()
}

// rebuildDrawBindGroups recreates every rasterize/shadow pass's group-1 bind
// group against the current draws storage buffer.
func (p *Pipeline) rebuildDrawBindGroups() error {
	for _, cp := range p.passes {
		if !passUsesDrawBuffer(cp.def.Type) {
			continue
		}
		bg, err := p.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  cp.def.Name + "-draws",
			Layout: cp.pipeline.GetBindGroupLayout(1),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: p.drawUniforms, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			return fmt.Errorf("rebuild draw bind group for pass %q: %w", cp.def.Name, err)
		}
		cp.drawBindGroup = bg
	}
	return nil
}

// Resize rebuilds every viewport-sized resource at the new dimensions
// (§4.2.6), plus the fullscreen-pass input bind groups that reference those
// resources' texture views, so a resized window never renders a pass
// against a stale view.
func (p *Pipeline) Resize(width, height int) error {
	for name, res := range p.resources {
		if !res.isVP {
			continue
		}
		w, h := width/res.fracN, height/res.fracN
		rebuilt, err := p.allocateResource(res.def, w, h)
		if err != nil {
			return fmt.Errorf("resize resource %q: %w", name, err)
		}
		p.resources[name] = rebuilt
	}

	for _, cp := range p.passes {
		if cp.def.Type != PassFullscreen || cp.inputSlot == "" {
			continue
		}
		res, ok := p.resources[cp.inputSlot]
		if !ok {
			continue
		}
		bg, err := p.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  cp.def.Name + "-input",
			Layout: cp.pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: res.view},
				{Binding: 1, Sampler: p.sampler},
			},
		})
		if err != nil {
			return fmt.Errorf("rebuild input bind group for pass %q: %w", cp.def.Name, err)
		}
		cp.bindGroup = bg
	}
	return nil
}

func (p *Pipeline) Order() []PassDef { return p.order }
