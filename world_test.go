package naive

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestWorld() *World {
	return NewWorld(nil, nil)
}

func TestRuntimeSpawnId_PassesThroughNonEmpty(t *testing.T) {
	if got := runtimeSpawnId("explosion-1"); got != "explosion-1" {
		t.Errorf("expected explicit id to pass through unchanged, got %q", got)
	}
}

func TestRuntimeSpawnId_MintsUniqueIdsWhenEmpty(t *testing.T) {
	a := runtimeSpawnId("")
	b := runtimeSpawnId("")

	if !strings.HasPrefix(a, "runtime-") || !strings.HasPrefix(b, "runtime-") {
		t.Fatalf("expected runtime- prefixed ids, got %q and %q", a, b)
	}
	if a == b {
		t.Errorf("expected two empty-id calls to mint distinct ids, got %q twice", a)
	}
}

func TestWorld_SpawnRuntimeEntity(t *testing.T) {
	w := newTestWorld()

	e := w.SpawnRuntimeEntity("", IdentityTransform(), InvalidMeshHandle, 0, "")

	name, ok := w.NameOf(e)
	if !ok || !strings.HasPrefix(name, "runtime-") {
		t.Fatalf("expected entity registered under a minted runtime id, got %q ok=%v", name, ok)
	}
	if _, ok := w.Lookup(name); !ok {
		t.Errorf("expected registry lookup to resolve the minted id back to the entity")
	}
}

func TestWorld_SpawnProjectileSetsVelocity(t *testing.T) {
	w := newTestWorld()

	e, err := w.SpawnProjectile("bolt-1", IdentityTransform(), MeshHandle(1), MaterialHandle(1), mgl32.Vec3{3, 0, 0}, 10, 2, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bh, ok := w.Physics.BodyOf(e)
	if !ok {
		t.Fatal("expected projectile to have a physics body")
	}
	if got := w.Physics.bodies[bh].velocity; got != (mgl32.Vec3{3, 0, 0}) {
		t.Errorf("expected spawn velocity to be applied to the body, got %v", got)
	}

	proj := GetComponent[Projectile](w.Ecs, e)
	if proj == nil || proj.Damage != 10 || proj.Lifetime != 2 {
		t.Errorf("expected Projectile component with damage/lifetime set, got %+v", proj)
	}
}

func TestWorld_SpawnProjectileRequiresMesh(t *testing.T) {
	w := newTestWorld()

	_, err := w.SpawnProjectile("bolt-1", IdentityTransform(), InvalidMeshHandle, 0, mgl32.Vec3{}, 0, 0, 0, false)
	if err == nil {
		t.Error("expected an error when spawning a projectile with no mesh handle")
	}
}

func TestWorld_SpawnDynamicEntity(t *testing.T) {
	w := newTestWorld()

	transform := IdentityTransform()
	transform.Scale = mgl32.Vec3{2, 4, 6}

	e := w.SpawnDynamicEntity("crate-1", transform, MeshHandle(1), MaterialHandle(1), 5)

	rb := GetComponent[RigidBody](w.Ecs, e)
	if rb == nil || rb.Kind != BodyDynamic {
		t.Fatalf("expected dynamic RigidBody component, got %+v", rb)
	}
	col := GetComponent[Collider](w.Ecs, e)
	if col == nil || col.Shape != ShapeBox {
		t.Fatalf("expected box Collider component, got %+v", col)
	}
	mr := GetComponent[MeshRenderer](w.Ecs, e)
	if mr == nil || mr.Mesh != MeshHandle(1) {
		t.Fatalf("expected MeshRenderer component, got %+v", mr)
	}

	bh, ok := w.Physics.BodyOf(e)
	if !ok {
		t.Fatal("expected a physics body for the dynamic entity")
	}
	body := w.Physics.bodies[bh]
	if body.mass != 5 {
		t.Errorf("expected mass 5, got %v", body.mass)
	}
	wantHalf := mgl32.Vec3{1, 2, 3}
	if got := w.Physics.colliders[body.collider].halfExtents; got != wantHalf {
		t.Errorf("expected half-extents %v derived from scale, got %v", wantHalf, got)
	}
}

func TestWorld_SpawnDynamicEntityMintsIdWhenEmpty(t *testing.T) {
	w := newTestWorld()

	e := w.SpawnDynamicEntity("", IdentityTransform(), InvalidMeshHandle, 0, 1)

	name, ok := w.NameOf(e)
	if !ok || !strings.HasPrefix(name, "runtime-") {
		t.Fatalf("expected minted runtime id, got %q ok=%v", name, ok)
	}
}

func TestWorld_DestroyEntityRemovesRegistryAndBody(t *testing.T) {
	w := newTestWorld()

	e := w.SpawnDynamicEntity("crate-1", IdentityTransform(), InvalidMeshHandle, 0, 1)
	bh, ok := w.Physics.BodyOf(e)
	if !ok {
		t.Fatal("expected physics body before destroy")
	}

	w.DestroyEntity(e)

	if _, ok := w.Lookup("crate-1"); ok {
		t.Error("expected registry entry removed after destroy")
	}
	if _, ok := w.Physics.EntityOf(bh); ok {
		t.Error("expected physics body removed after destroy")
	}
}
