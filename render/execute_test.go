package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSortSplatIndicesOrdersFarthestFirst(t *testing.T) {
	// Camera looking down -Z from the origin: view transforms world -Z into
	// increasingly negative view-space Z as points get farther away.
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	positions := []mgl32.Vec3{
		{0, 0, -1}, // near
		{0, 0, -10}, // far
		{0, 0, -5}, // mid
	}

	order := SortSplatIndices(positions, view)
	if len(order) != 3 {
		t.Fatalf("expected 3 indices, got %d", len(order))
	}
	if order[0] != 1 || order[1] != 2 || order[2] != 0 {
		t.Fatalf("expected farthest-first order [1 2 0], got %v", order)
	}
}

func TestSortSplatIndicesEmptyInput(t *testing.T) {
	order := SortSplatIndices(nil, mgl32.Ident4())
	if len(order) != 0 {
		t.Fatalf("expected empty order for empty input, got %v", order)
	}
}

func TestPassDefColorTargetsOrdersBySlotPriority(t *testing.T) {
	p := PassDef{
		Outputs: map[string]string{
			"emission": "gbuffer_emission",
			"color":    "gbuffer_color",
			"normal":   "gbuffer_normal",
			"depth":    "gbuffer_depth",
		},
	}

	slots := p.ColorTargets()
	if len(slots) != 3 {
		t.Fatalf("expected depth excluded, 3 color targets, got %v", slots)
	}
	if slots[0] != "color" || slots[1] != "normal" || slots[2] != "emission" {
		t.Fatalf("expected [color normal emission] priority order, got %v", slots)
	}
}

func TestPassDefDepthTarget(t *testing.T) {
	p := PassDef{Outputs: map[string]string{"color": "c", "depth": "d"}}
	name, ok := p.DepthTarget()
	if !ok || name != "d" {
		t.Fatalf("expected depth target 'd', got %q %v", name, ok)
	}

	p2 := PassDef{Outputs: map[string]string{"color": "c"}}
	if _, ok := p2.DepthTarget(); ok {
		t.Fatal("expected no depth target when outputs lack one")
	}
}
