package naive

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTransformHierarchySystem_RootWorldMatrixIsLocal(t *testing.T) {
	ecs := MakeEcs()
	e := ecs.addEntity()
	tr := IdentityTransform()
	tr.Position = mgl32.Vec3{1, 2, 3}
	ecs.addComponents(e, tr)

	TransformHierarchySystem(&ecs)

	got := GetComponent[Transform](&ecs, e)
	want := tr.LocalMatrix()
	if got.WorldMatrix != want {
		t.Errorf("expected root world matrix to equal its local matrix, got %v want %v", got.WorldMatrix, want)
	}
	if got.Dirty {
		t.Error("expected Dirty cleared after resolution")
	}
}

func TestTransformHierarchySystem_ChildComposesWithParent(t *testing.T) {
	ecs := MakeEcs()
	parent := ecs.addEntity()
	parentT := IdentityTransform()
	parentT.Position = mgl32.Vec3{10, 0, 0}
	ecs.addComponents(parent, parentT)

	child := ecs.addEntity()
	childT := IdentityTransform()
	childT.Position = mgl32.Vec3{1, 0, 0}
	childT.HasParent = true
	childT.Parent = parent
	ecs.addComponents(child, childT)

	TransformHierarchySystem(&ecs)

	gotChild := GetComponent[Transform](&ecs, child)
	wantPos := parentT.LocalMatrix().Mul4(childT.LocalMatrix()).Col(3)
	gotPos := gotChild.WorldMatrix.Col(3)
	if gotPos != wantPos {
		t.Errorf("expected child world position composed through parent, got %v want %v", gotPos, wantPos)
	}
}
