package naive

// TransformHierarchySystem recomputes world matrices for every Transform,
// propagating parent-to-child in document order. Entities are processed in
// waves: a child's world matrix is only resolved once its parent's is, so
// the pass repeats until a full sweep makes no further progress. Scenes are
// shallow in practice; this converges in one or two passes.
func TransformHierarchySystem(ecs *Ecs) {
	q := MakeQuery1[Transform](ecs)

	resolved := map[EntityId]bool{}
	for changed := true; changed; {
		changed = false
		q.Map(func(id EntityId, t *Transform) bool {
			if resolved[id] {
				return true
			}
			if !t.HasParent {
				t.WorldMatrix = t.LocalMatrix()
				resolved[id] = true
				changed = true
				t.Dirty = false
				return true
			}
			if !resolved[t.Parent] {
				return true
			}
			parent := GetComponent[Transform](ecs, t.Parent)
			if parent == nil {
				t.WorldMatrix = t.LocalMatrix()
			} else {
				t.WorldMatrix = parent.WorldMatrix.Mul4(t.LocalMatrix())
			}
			resolved[id] = true
			changed = true
			t.Dirty = false
			return true
		})
	}
}
