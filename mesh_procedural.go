package naive

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// GltfLoader is the collaborator interface point for glTF mesh loading
// (out of scope for the engine core per spec §1; a real build wires this to
// the project's glTF importer). The zero value returns an error so missing
// meshes are logged and skipped rather than causing a panic (§7).
var GltfLoader func(path string) (MeshAsset, error)

func loadMeshAsset(path string) (MeshAsset, error) {
	if rest, ok := strings.CutPrefix(path, "procedural:"); ok {
		switch rest {
		case "cube":
			return proceduralCube(), nil
		case "sphere":
			return proceduralSphere(24, 16), nil
		default:
			return MeshAsset{}, fmt.Errorf("unknown procedural mesh %q", rest)
		}
	}
	if GltfLoader != nil {
		return GltfLoader(path)
	}
	return MeshAsset{}, fmt.Errorf("no glTF loader configured for %q", path)
}

func proceduralCube() MeshAsset {
	// 24 vertices (4 per face, each with its own normal) so shading is flat per face.
	faces := []struct {
		normal mgl32.Vec3
		corners [4]mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-.5, -.5, .5}, {.5, -.5, .5}, {.5, .5, .5}, {-.5, .5, .5}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{.5, -.5, -.5}, {-.5, -.5, -.5}, {-.5, .5, -.5}, {.5, .5, -.5}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-.5, .5, .5}, {.5, .5, .5}, {.5, .5, -.5}, {-.5, .5, -.5}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-.5, -.5, -.5}, {.5, -.5, -.5}, {.5, -.5, .5}, {-.5, -.5, .5}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{.5, -.5, .5}, {.5, -.5, -.5}, {.5, .5, -.5}, {.5, .5, .5}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-.5, -.5, -.5}, {-.5, -.5, .5}, {-.5, .5, .5}, {-.5, .5, -.5}}},
	}

	uvs := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	var verts []MeshVertex
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(verts))
		for i, c := range f.corners {
			verts = append(verts, MeshVertex{Position: c, Normal: f.normal, UV: uvs[i]})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return MeshAsset{Path: "procedural:cube", Vertices: verts, Indices: indices}
}

func proceduralSphere(segments, rings int) MeshAsset {
	var verts []MeshVertex
	for ring := 0; ring <= rings; ring++ {
		theta := float32(ring) / float32(rings) * math.Pi
		for seg := 0; seg <= segments; seg++ {
			phi := float32(seg) / float32(segments) * 2 * math.Pi
			x := float32(math.Sin(float64(theta))) * float32(math.Cos(float64(phi)))
			y := float32(math.Cos(float64(theta)))
			z := float32(math.Sin(float64(theta))) * float32(math.Sin(float64(phi)))
			n := mgl32.Vec3{x, y, z}
			verts = append(verts, MeshVertex{
				Position: n.Mul(0.5),
				Normal:   n,
				UV:       mgl32.Vec2{float32(seg) / float32(segments), float32(ring) / float32(rings)},
			})
		}
	}

	var indices []uint32
	stride := uint32(segments + 1)
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			a := uint32(ring)*stride + uint32(seg)
			b := a + stride
			indices = append(indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return MeshAsset{Path: "procedural:sphere", Vertices: verts, Indices: indices}
}
