package naive

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPhysicsWorld_AddDynamicAndStep(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{0, -9.8, 0})

	bh, _ := w.AddDynamic(1, BodyParams{
		Position: mgl32.Vec3{0, 10, 0},
		Shape:    ShapeSphere,
		Radius:   0.5,
		Mass:     1,
	})

	w.Step(1.0)

	b := w.bodies[bh]
	if b.velocity.Y() >= 0 {
		t.Errorf("expected downward velocity after one step under gravity, got %v", b.velocity)
	}
	if b.position.Y() >= 10 {
		t.Errorf("expected position to have fallen, got %v", b.position)
	}
}

func TestPhysicsWorld_SetVelocity(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{0, 0, 0})

	bh, _ := w.AddDynamic(1, BodyParams{
		Position: mgl32.Vec3{0, 0, 0},
		Shape:    ShapeSphere,
		Radius:   0.5,
		Mass:     1,
	})

	w.SetVelocity(bh, mgl32.Vec3{5, 0, 0})
	if got := w.bodies[bh].velocity; got != (mgl32.Vec3{5, 0, 0}) {
		t.Fatalf("expected velocity to be set directly, got %v", got)
	}

	w.Step(1.0)
	if got := w.bodies[bh].position; got.X() != 5 {
		t.Errorf("expected velocity to integrate into position, got %v", got)
	}
}

func TestPhysicsWorld_SetVelocityUnknownHandleIsNoop(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{})
	w.SetVelocity(BodyHandle(999), mgl32.Vec3{1, 2, 3})
}

func TestPhysicsWorld_AddRemoveBody(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{})

	bh, _ := w.AddStatic(42, BodyParams{Shape: ShapeBox, HalfExtents: mgl32.Vec3{1, 1, 1}})

	if e, ok := w.EntityOf(bh); !ok || e != 42 {
		t.Fatalf("expected EntityOf to resolve back to 42, got %v %v", e, ok)
	}
	if h, ok := w.BodyOf(42); !ok || h != bh {
		t.Fatalf("expected BodyOf to resolve back to %v, got %v %v", bh, h, ok)
	}

	w.RemoveBody(bh)

	if _, ok := w.EntityOf(bh); ok {
		t.Errorf("expected EntityOf to fail after RemoveBody")
	}
	if _, ok := w.BodyOf(42); ok {
		t.Errorf("expected BodyOf to fail after RemoveBody")
	}
}

func TestPhysicsWorld_ContactEventFiresOncePerTransition(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{})

	w.AddDynamic(1, BodyParams{Position: mgl32.Vec3{0, 0, 0}, Shape: ShapeSphere, Radius: 1})
	w.AddDynamic(2, BodyParams{Position: mgl32.Vec3{0.5, 0, 0}, Shape: ShapeSphere, Radius: 1})

	w.Step(0)
	if len(w.Events) != 1 {
		t.Fatalf("expected exactly one contact event on first overlapping step, got %d", len(w.Events))
	}

	w.Events = nil
	w.Step(0)
	if len(w.Events) != 0 {
		t.Errorf("expected no repeated contact event for a still-active pair, got %d", len(w.Events))
	}
}

func TestPhysicsWorld_Raycast(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{})

	w.AddStatic(7, BodyParams{Position: mgl32.Vec3{0, 0, 5}, Shape: ShapeSphere, Radius: 1})

	hit, ok := w.Raycast(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, 10, nil)
	if !ok {
		t.Fatal("expected raycast to hit the body")
	}
	if hit.Entity != 7 {
		t.Errorf("expected hit entity 7, got %v", hit.Entity)
	}
}

func TestPhysicsWorld_RaycastExcludesEntity(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{})

	w.AddStatic(7, BodyParams{Position: mgl32.Vec3{0, 0, 5}, Shape: ShapeSphere, Radius: 1})

	self := EntityId(7)
	_, ok := w.Raycast(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, 10, &self)
	if ok {
		t.Error("expected the excluded entity's own body to not be hit")
	}
}

func TestPhysicsWorld_MoveCharacterSlidesAlongStaticObstacle(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{})

	ch, _ := w.AddCharacter(1, BodyParams{
		Position: mgl32.Vec3{0, 0, 0},
		Shape:    ShapeCapsule,
		Radius:   0.5,
	})
	w.AddStatic(2, BodyParams{
		Position: mgl32.Vec3{1, 0, 0},
		Shape:    ShapeSphere,
		Radius:   0.5,
	})

	achieved, _ := w.MoveCharacter(ch, mgl32.Vec3{1, 0, 0}, 1.0/60)

	if achieved.X() >= 1 {
		t.Fatalf("expected horizontal move into the obstacle to be clipped, got %v", achieved)
	}
}

func TestPhysicsWorld_MoveCharacterUnobstructedKeepsFullDisplacement(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{})

	ch, _ := w.AddCharacter(1, BodyParams{
		Position: mgl32.Vec3{0, 0, 0},
		Shape:    ShapeCapsule,
		Radius:   0.5,
	})
	w.AddStatic(2, BodyParams{
		Position: mgl32.Vec3{0, 0, 50},
		Shape:    ShapeSphere,
		Radius:   0.5,
	})

	achieved, _ := w.MoveCharacter(ch, mgl32.Vec3{1, 0, 0}, 1.0/60)

	if achieved.X() != 1 {
		t.Errorf("expected unobstructed horizontal move to be unclipped, got %v", achieved)
	}
}

func TestPhysicsWorld_MoveCharacterIgnoresDynamicAndTriggerBodies(t *testing.T) {
	w := NewPhysicsWorld(mgl32.Vec3{})

	ch, _ := w.AddCharacter(1, BodyParams{
		Position: mgl32.Vec3{0, 0, 0},
		Shape:    ShapeCapsule,
		Radius:   0.5,
	})
	// Neither a dynamic body nor a static trigger directly in the path may
	// block the character; only static, non-trigger colliders participate in
	// horizontal collision resolution.
	w.AddDynamic(2, BodyParams{
		Position: mgl32.Vec3{1, 0, 0},
		Shape:    ShapeSphere,
		Radius:   0.5,
		Mass:     1,
	})
	w.AddStatic(3, BodyParams{
		Position:  mgl32.Vec3{1, 0, 0},
		Shape:     ShapeSphere,
		Radius:    0.5,
		IsTrigger: true,
	})

	achieved, _ := w.MoveCharacter(ch, mgl32.Vec3{1, 0, 0}, 1.0/60)

	if achieved.X() != 1 {
		t.Errorf("expected dynamic and trigger bodies to not obstruct character movement, got %v", achieved)
	}
}

func TestPhysicsWorld_SyncToWorld(t *testing.T) {
	ecs := MakeEcs()
	e := ecs.addEntity()
	ecs.addComponents(e, Transform{})

	w := NewPhysicsWorld(mgl32.Vec3{})
	bh, _ := w.AddDynamic(e, BodyParams{Position: mgl32.Vec3{1, 2, 3}, Shape: ShapeSphere, Radius: 1})
	w.bodies[bh].position = mgl32.Vec3{4, 5, 6}

	w.SyncToWorld(&ecs)

	tr := GetComponent[Transform](&ecs, e)
	if tr.Position != (mgl32.Vec3{4, 5, 6}) {
		t.Errorf("expected transform position synced from body, got %v", tr.Position)
	}
	if !tr.Dirty {
		t.Error("expected transform marked dirty after sync")
	}
}
