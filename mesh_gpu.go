package naive

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// meshGpuEntry is one mesh's uploaded vertex/index buffers, keyed by the
// MeshAsset's cache handle and version so a hot-reloaded mesh gets re-
// uploaded instead of reusing stale GPU memory.
type meshGpuEntry struct {
	version uint
	vertex  *wgpu.Buffer
	index   *wgpu.Buffer
	count   uint32
}

// MeshGpuCache uploads MeshAsset CPU data to GPU buffers on first use and
// keeps them around by handle, independent of the CPU-side AssetCache so a
// path invalidation doesn't force a re-upload until the handle's version
// actually changes.
type MeshGpuCache struct {
	device *wgpu.Device
	byId   map[uint32]*meshGpuEntry
}

func NewMeshGpuCache(device *wgpu.Device) *MeshGpuCache {
	return &MeshGpuCache{device: device, byId: map[uint32]*meshGpuEntry{}}
}

// Get returns the vertex buffer, index buffer and index count for handle,
// uploading it the first time (or after its cached asset version changes).
func (c *MeshGpuCache) Get(handle uint32, asset MeshAsset) (*wgpu.Buffer, *wgpu.Buffer, uint32) {
	if e, ok := c.byId[handle]; ok && e.version == asset.Version {
		return e.vertex, e.index, e.count
	}
	vertexBuf, err := c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "mesh vertex buffer",
		Contents: wgpu.ToBytes(asset.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, nil, 0
	}
	indexBuf, err := c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "mesh index buffer",
		Contents: wgpu.ToBytes(asset.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		return nil, nil, 0
	}
	e := &meshGpuEntry{version: asset.Version, vertex: vertexBuf, index: indexBuf, count: uint32(len(asset.Indices))}
	c.byId[handle] = e
	return e.vertex, e.index, e.count
}
