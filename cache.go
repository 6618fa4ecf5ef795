package naive

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MeshHandle, MaterialHandle and SplatHandle are opaque, stable indices into
// their respective caches. Components only ever store the handle; the cache
// owns the referent and may swap it out on hot-reload without invalidating
// the handle value itself (strictly additive except for explicit invalidation,
// per the name-registry/cache invariants).
type MeshHandle uint32
type MaterialHandle uint32
type SplatHandle uint32

const InvalidMeshHandle MeshHandle = 0
const InvalidMaterialHandle MaterialHandle = 0
const InvalidSplatHandle SplatHandle = 0

// MeshVertex is the vertex layout used by every rasterize/shadow pass.
type MeshVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

type MeshAsset struct {
	Path     string
	Version  uint
	Vertices []MeshVertex
	Indices  []uint32
}

type MaterialAsset struct {
	Path      string
	Version   uint
	BaseColor [4]float32
	Roughness float32
	Metallic  float32
	Emission  [3]float32
}

type SplatAsset struct {
	Path      string
	Version   uint
	Positions []mgl32.Vec3
	Scales    []mgl32.Vec3
	Rotations []mgl32.Quat
	Opacity   []float32
	Color     [][3]float32
}

// AssetCache is a by-path registry of loaded resources, keyed additionally by
// a stable opaque handle so components never hold raw paths. Loading is
// strictly additive; invalidate() is only called from the hot-reload path.
type AssetCache[A any] struct {
	byPath   map[string]uint32
	byHandle map[uint32]A
	nextId   uint32
}

func NewAssetCache[A any]() *AssetCache[A] {
	return &AssetCache[A]{
		byPath:   make(map[string]uint32),
		byHandle: map[uint32]A{},
	}
}

// GetOrLoad returns the existing handle for path, or calls load and registers
// the result under a fresh handle. load errors are propagated unchanged so
// callers can log-and-skip per the asset-missing error policy (§7).
func (c *AssetCache[A]) GetOrLoad(path string, load func(string) (A, error)) (uint32, error) {
	if id, ok := c.byPath[path]; ok {
		return id, nil
	}
	asset, err := load(path)
	if err != nil {
		return 0, fmt.Errorf("load asset %q: %w", path, err)
	}
	c.nextId++
	id := c.nextId
	c.byPath[path] = id
	c.byHandle[id] = asset
	return id, nil
}

func (c *AssetCache[A]) Get(handle uint32) (A, bool) {
	a, ok := c.byHandle[handle]
	return a, ok
}

// Invalidate drops the cached entry for path so the next GetOrLoad call
// reloads it from disk. Used by the material and splat hot-reload paths.
func (c *AssetCache[A]) Invalidate(path string) {
	id, ok := c.byPath[path]
	if !ok {
		return
	}
	delete(c.byPath, path)
	delete(c.byHandle, id)
}

// AssetServer owns the three by-path caches named in the data model (§3).
type AssetServer struct {
	Meshes    *AssetCache[MeshAsset]
	Materials *AssetCache[MaterialAsset]
	Splats    *AssetCache[SplatAsset]
}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		Meshes:    NewAssetCache[MeshAsset](),
		Materials: NewAssetCache[MaterialAsset](),
		Splats:    NewAssetCache[SplatAsset](),
	}
}

func (s *AssetServer) LoadMesh(path string) (MeshHandle, error) {
	id, err := s.Meshes.GetOrLoad(path, loadMeshAsset)
	return MeshHandle(id), err
}

func (s *AssetServer) LoadMaterial(path string) (MaterialHandle, error) {
	id, err := s.Materials.GetOrLoad(path, loadMaterialAsset)
	return MaterialHandle(id), err
}

func (s *AssetServer) LoadSplat(path string) (SplatHandle, error) {
	id, err := s.Splats.GetOrLoad(path, loadSplatAsset)
	return SplatHandle(id), err
}
