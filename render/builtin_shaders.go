package render

// Built-in fallback shader sources, selected when a pass's declared shader
// path fails to cross-compile. Kept minimal: they exist so a pipeline never
// hard-fails purely because a shader asset is missing, but they still bind
// and consume the camera/light/draw uniforms a real compiled shader would
// (§4.2.3, §4.2.7) rather than rendering in a vacuum.

// cameraUniformWgsl is shared by every pass type that needs the active
// camera and the scene's single directional light (rasterize, shadow,
// splat). No point-light data reaches the GPU: the pipeline uploads only
// this camera block, so built-in and cross-compiled shaders alike see the
// directional light and nothing else.
const cameraUniformWgsl = `
struct CameraUniform {
  view: mat4x4<f32>,
  proj: mat4x4<f32>,
  light_dir: vec4<f32>,
  light_color: vec4<f32>,
};
@group(0) @binding(0) var<uniform> camera: CameraUniform;
`

const drawStorageWgsl = `
struct DrawUniform {
  model: mat4x4<f32>,
  normal_mat: mat3x3<f32>,
  base_color: vec4<f32>,
  pad: array<vec4<f32>, 8>, // fills each entry to DrawUniformStride (256 bytes)
};
@group(1) @binding(0) var<storage, read> draws: array<DrawUniform>;
`

const builtinGbufferWgsl = cameraUniformWgsl + drawStorageWgsl + `
struct VsOut {
  @builtin(position) clip_position: vec4<f32>,
  @location(0) world_normal: vec3<f32>,
  @location(1) uv: vec2<f32>,
  @location(2) base_color: vec4<f32>,
};

@vertex
fn vs_main(
  @location(0) position: vec3<f32>,
  @location(1) normal: vec3<f32>,
  @location(2) uv: vec2<f32>,
  @builtin(instance_index) instance: u32,
) -> VsOut {
  let d = draws[instance];
  var out: VsOut;
  out.clip_position = camera.proj * camera.view * d.model * vec4<f32>(position, 1.0);
  out.world_normal = normalize(d.normal_mat * normal);
  out.uv = uv;
  out.base_color = d.base_color;
  return out;
}

@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
  let ndotl = max(dot(normalize(in.world_normal), normalize(-camera.light_dir.xyz)), 0.0);
  let lit = camera.light_color.rgb * ndotl + vec3<f32>(0.05, 0.05, 0.05);
  return vec4<f32>(in.base_color.rgb * lit, in.base_color.a);
}
`

const builtinShadowWgsl = cameraUniformWgsl + drawStorageWgsl + `
@vertex
fn vs_main(
  @location(0) position: vec3<f32>,
  @builtin(instance_index) instance: u32,
) -> @builtin(position) vec4<f32> {
  let d = draws[instance];
  return camera.proj * camera.view * d.model * vec4<f32>(position, 1.0);
}
`

const builtinSplatWgsl = cameraUniformWgsl + `
struct VsOut {
  @builtin(position) clip_position: vec4<f32>,
  @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, @builtin(instance_index) ii: u32) -> VsOut {
  var out: VsOut;
  out.clip_position = camera.proj * camera.view * vec4<f32>(0.0, 0.0, 0.0, 1.0);
  out.color = camera.light_color;
  return out;
}

@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
  return in.color;
}
`

// fullscreenTriangleWgsl draws the standard 3-vertex, no-vertex-buffer
// fullscreen triangle and hands the fragment stage a 0..1 uv.
const fullscreenTriangleWgsl = `
@group(0) @binding(0) var input_tex: texture_2d<f32>;
@group(0) @binding(1) var input_sampler: sampler;

struct VsOut {
  @builtin(position) clip_position: vec4<f32>,
  @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32) -> VsOut {
  var out: VsOut;
  let x = f32((vi << 1u) & 2u);
  let y = f32(vi & 2u);
  out.uv = vec2<f32>(x, y);
  out.clip_position = vec4<f32>(x * 2.0 - 1.0, 1.0 - y * 2.0, 0.0, 1.0);
  return out;
}
`

const builtinLightWgsl = fullscreenTriangleWgsl + `
@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
  return textureSample(input_tex, input_sampler, in.uv);
}
`

const builtinBloomWgsl = fullscreenTriangleWgsl + `
@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
  let c = textureSample(input_tex, input_sampler, in.uv);
  let bright = max(c.rgb - vec3<f32>(1.0, 1.0, 1.0), vec3<f32>(0.0, 0.0, 0.0));
  return vec4<f32>(bright, c.a);
}
`

const builtinTonemapWgsl = fullscreenTriangleWgsl + `
@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
  let c = textureSample(input_tex, input_sampler, in.uv).rgb;
  let mapped = c / (c + vec3<f32>(1.0, 1.0, 1.0));
  return vec4<f32>(mapped, 1.0);
}
`

const builtinFxaaWgsl = fullscreenTriangleWgsl + `
@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
  return textureSample(input_tex, input_sampler, in.uv);
}
`
