package naive

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// runtimeSpawnId returns id unchanged unless it's empty, in which case it
// mints a fresh unique registry name so anonymous script-triggered spawns
// never collide with each other or with scene-authored ids.
func runtimeSpawnId(id string) string {
	if id != "" {
		return id
	}
	return "runtime-" + uuid.NewString()
}

// World owns the component store, the name registry bijecting string scene
// ids to live entities, and the scene-to-ECS spawn/reconcile operations.
type World struct {
	Ecs      *Ecs
	Physics  *PhysicsWorld
	Assets   *AssetServer
	Log      Logger

	registry map[string]EntityId
	byEntity map[EntityId]string

	// CurrentScene is the last scene successfully spawned, kept for
	// reconciliation diffing against a newly loaded scene file.
	CurrentScene *SceneFile
}

func NewWorld(assets *AssetServer, log Logger) *World {
	if log == nil {
		log = NewNopLogger()
	}
	ecs := MakeEcs()
	return &World{
		Ecs:      &ecs,
		Physics:  NewPhysicsWorld(mgl32.Vec3{0, 0, 0}),
		Assets:   assets,
		Log:      log,
		registry: map[string]EntityId{},
		byEntity: map[EntityId]string{},
	}
}

func (w *World) Lookup(id string) (EntityId, bool) {
	e, ok := w.registry[id]
	return e, ok
}

func (w *World) NameOf(e EntityId) (string, bool) {
	n, ok := w.byEntity[e]
	return n, ok
}

func (w *World) register(id string, e EntityId) {
	w.registry[id] = e
	w.byEntity[e] = id
}

func (w *World) unregister(e EntityId) {
	if id, ok := w.byEntity[e]; ok {
		delete(w.registry, id)
		delete(w.byEntity, e)
	}
}

// DestroyEntity runs the physics teardown and registry bookkeeping common to
// every despawn path (script destroy, projectile expiry, collision damage,
// reconciliation). Callers are responsible for invoking a scripted entity's
// on_destroy hook before calling this.
func (w *World) DestroyEntity(e EntityId) {
	if h, ok := w.Physics.BodyOf(e); ok {
		w.Physics.RemoveBody(h)
	}
	w.unregister(e)
	w.Ecs.removeEntity(e)
}

// SpawnFromScene applies the scene spawn contract (§4.1): document-order
// entity creation with Identity/Transform defaulting, cache resolution
// (skip-on-failure, never fatal), optional components, and physics
// attachment per the rule table. headless omits GPU-bound components for the
// test runner.
func (w *World) SpawnFromScene(sf *SceneFile, headless bool) {
	gravity := vec3FromSlice(sf.Settings.Gravity, mgl32.Vec3{0, 0, 0})
	w.Physics = NewPhysicsWorld(gravity)

	for _, def := range sf.Entities {
		w.spawnEntityDef(def, headless)
	}
	w.CurrentScene = sf
}

func (w *World) spawnEntityDef(def EntityDef, headless bool) EntityId {
	e := w.Ecs.addEntity(NewIdentity(def.Id, def.Tags...))
	w.register(def.Id, e)

	transform := IdentityTransform()
	if t := def.Components.Transform; t != nil {
		transform.Position = vec3FromSlice(t.Position, transform.Position)
		transform.Rotation = eulerDegToQuat(t.Rotation)
		transform.Scale = vec3FromSlice(t.Scale, transform.Scale)
	}
	w.Ecs.addComponents(e, transform)

	isSplat := def.Components.GaussianSplat != nil
	if !headless && isSplat {
		if handle, err := w.Assets.LoadSplat(def.Components.GaussianSplat.Splat); err != nil {
			w.Log.Warnf("spawn %s: splat load failed: %v", def.Id, err)
		} else {
			w.Ecs.addComponents(e, GaussianSplat{Splat: handle})
		}
	} else if !headless && def.Components.MeshRenderer != nil {
		mr := def.Components.MeshRenderer
		meshH, meshErr := w.Assets.LoadMesh(mr.Mesh)
		matH, matErr := w.Assets.LoadMaterial(mr.Material)
		if meshErr != nil || matErr != nil {
			w.Log.Warnf("spawn %s: mesh/material load failed: mesh=%v material=%v", def.Id, meshErr, matErr)
		} else {
			w.Ecs.addComponents(e, MeshRenderer{Mesh: meshH, Material: matH})
		}
	}

	if c := def.Components.Camera; c != nil {
		role := CameraRole(c.Role)
		w.Ecs.addComponents(e, Camera{Fov: c.Fov, Near: c.Near, Far: c.Far, Role: role})
	}
	if pl := def.Components.PointLight; pl != nil {
		w.Ecs.addComponents(e, PointLight{Color: color3FromSlice(pl.Color), Intensity: pl.Intensity, Range: pl.Range})
	}
	if dl := def.Components.DirectionalLight; dl != nil {
		w.Ecs.addComponents(e, DirectionalLight{
			Direction:        vec3FromSlice(dl.Direction, mgl32.Vec3{0, -1, 0}),
			Color:            color3FromSlice(dl.Color),
			Intensity:        dl.Intensity,
			ShadowHalfExtent: dl.ShadowHalfExtent,
		})
	}
	if pe := def.Components.ParticleEmitter; pe != nil {
		w.Ecs.addComponents(e, ParticleEmitter{
			Enabled:    pe.Enabled,
			Rate:       pe.Rate,
			Lifetime:   pe.Lifetime,
			StartColor: color4FromSlice(pe.StartColor),
			EndColor:   color4FromSlice(pe.EndColor),
			StartSize:  pe.StartSize,
			EndSize:    pe.EndSize,
		})
	}
	if h := def.Components.Health; h != nil {
		w.Ecs.addComponents(e, Health{Current: h.Current, Max: h.Max})
	}
	if cd := def.Components.CollisionDamage; cd != nil {
		w.Ecs.addComponents(e, CollisionDamage{Damage: cd.Damage, DestroyOnHit: cd.DestroyOnHit})
	}
	if s := def.Components.Script; s != nil {
		w.Ecs.addComponents(e, Script{Source: s.Source})
	}

	w.attachPhysics(e, def, transform)

	return e
}

// attachPhysics implements the first-match-wins physics rule table.
func (w *World) attachPhysics(e EntityId, def EntityDef, transform Transform) {
	cc := def.Components.CharacterController
	col := def.Components.Collider
	rb := def.Components.RigidBody

	switch {
	case cc != nil:
		bh, ch := w.Physics.AddCharacter(e, BodyParams{
			Position:   transform.Position,
			Rotation:   transform.Rotation,
			Shape:      ShapeCapsule,
			Radius:     cc.CapsuleRadius,
			HalfHeight: cc.CapsuleHeight / 2,
		})
		w.Ecs.addComponents(e,
			RigidBody{Handle: bh, Kind: BodyKinematic},
			Collider{Handle: ch, Shape: ShapeCapsule},
			CharacterController{
				MoveSpeed:        cc.MoveSpeed,
				SprintMultiplier: cc.SprintMultiplier,
				JumpImpulse:      cc.JumpImpulse,
				StepHeight:       cc.StepHeight,
			},
			Player{CapsuleHeight: cc.CapsuleHeight, CapsuleRadius: cc.CapsuleRadius},
		)
	case col != nil && rb != nil && rb.Kind == "dynamic":
		params := colliderParams(col, transform)
		params.Mass, params.Restitution, params.Friction, params.CCD = rb.Mass, rb.Restitution, rb.Friction, rb.Ccd
		bh, ch := w.Physics.AddDynamic(e, params)
		w.Ecs.addComponents(e,
			RigidBody{Handle: bh, Kind: BodyDynamic},
			Collider{Handle: ch, Shape: colliderShapeOf(col.Shape), IsTrigger: col.IsTrigger},
		)
	case col != nil:
		params := colliderParams(col, transform)
		if rb != nil {
			params.Restitution, params.Friction = rb.Restitution, rb.Friction
		}
		bh, ch := w.Physics.AddStatic(e, params)
		w.Ecs.addComponents(e,
			RigidBody{Handle: bh, Kind: BodyStatic},
			Collider{Handle: ch, Shape: colliderShapeOf(col.Shape), IsTrigger: col.IsTrigger},
		)
	}
}

func colliderParams(col *struct {
	Shape       string    `yaml:"shape"`
	HalfExtents []float32 `yaml:"half_extents"`
	Radius      float32   `yaml:"radius"`
	HalfHeight  float32   `yaml:"half_height"`
	IsTrigger   bool      `yaml:"is_trigger"`
}, transform Transform) BodyParams {
	return BodyParams{
		Position:    transform.Position,
		Rotation:    transform.Rotation,
		Shape:       colliderShapeOf(col.Shape),
		HalfExtents: vec3FromSlice(col.HalfExtents, mgl32.Vec3{0.5, 0.5, 0.5}),
		Radius:      col.Radius,
		HalfHeight:  col.HalfHeight,
		IsTrigger:   col.IsTrigger,
	}
}

func colliderShapeOf(s string) ColliderShape {
	switch s {
	case "sphere":
		return ShapeSphere
	case "capsule":
		return ShapeCapsule
	case "trimesh":
		return ShapeTrimesh
	default:
		return ShapeBox
	}
}

// Reconcile implements hot-reload reconciliation (§4.1): despawn ids removed
// from the new scene, spawn ids newly added, and in-place patch
// Transform/Camera/PointLight for ids present in both. Never calls script
// hooks; scripts keep running across scene edits.
func (w *World) Reconcile(next *SceneFile) {
	old := w.CurrentScene
	oldIds := map[string]EntityDef{}
	if old != nil {
		for _, d := range old.Entities {
			oldIds[d.Id] = d
		}
	}
	newIds := map[string]EntityDef{}
	for _, d := range next.Entities {
		newIds[d.Id] = d
	}

	for id := range oldIds {
		if _, stillPresent := newIds[id]; !stillPresent {
			if e, ok := w.Lookup(id); ok {
				w.DestroyEntity(e)
			}
		}
	}
	for id, def := range newIds {
		if _, existed := oldIds[id]; !existed {
			w.spawnEntityDef(def, false)
		}
	}
	for id, def := range newIds {
		if _, existed := oldIds[id]; !existed {
			continue
		}
		e, ok := w.Lookup(id)
		if !ok {
			continue
		}
		w.patchInPlace(e, def)
	}
	w.CurrentScene = next
}

func (w *World) patchInPlace(e EntityId, def EntityDef) {
	if t := GetComponent[Transform](w.Ecs, e); t != nil && def.Components.Transform != nil {
		dt := def.Components.Transform
		t.Position = vec3FromSlice(dt.Position, t.Position)
		t.Rotation = eulerDegToQuat(dt.Rotation)
		t.Scale = vec3FromSlice(dt.Scale, t.Scale)
		t.Dirty = true
	}
	if c := GetComponent[Camera](w.Ecs, e); c != nil && def.Components.Camera != nil {
		dc := def.Components.Camera
		c.Fov, c.Near, c.Far = dc.Fov, dc.Near, dc.Far
		if dc.Role != "" {
			c.Role = CameraRole(dc.Role)
		}
	}
	if pl := GetComponent[PointLight](w.Ecs, e); pl != nil && def.Components.PointLight != nil {
		dpl := def.Components.PointLight
		pl.Color = color3FromSlice(dpl.Color)
		pl.Intensity = dpl.Intensity
		pl.Range = dpl.Range
	}
}

// SpawnRuntimeEntity creates a bare scripted/mesh entity outside of scene
// load, used by the deferred command processor's simple-spawn sub-queue.
func (w *World) SpawnRuntimeEntity(id string, transform Transform, mesh MeshHandle, material MaterialHandle, scriptSource string) EntityId {
	id = runtimeSpawnId(id)
	e := w.Ecs.addEntity(NewIdentity(id))
	w.register(id, e)
	w.Ecs.addComponents(e, transform)
	if mesh != InvalidMeshHandle {
		w.Ecs.addComponents(e, MeshRenderer{Mesh: mesh, Material: material})
	}
	if scriptSource != "" {
		w.Ecs.addComponents(e, Script{Source: scriptSource})
	}
	return e
}

// SpawnProjectile creates a projectile entity with its dynamic physics body,
// per the invariant that every Projectile carries (RigidBody dynamic,
// Collider, MeshRenderer).
func (w *World) SpawnProjectile(id string, transform Transform, mesh MeshHandle, material MaterialHandle, velocity mgl32.Vec3, damage, lifetime float32, owner EntityId, hasOwner bool) (EntityId, error) {
	if mesh == InvalidMeshHandle {
		return 0, fmt.Errorf("spawn projectile %s: mesh handle required", id)
	}
	id = runtimeSpawnId(id)
	e := w.Ecs.addEntity(NewIdentity(id))
	w.register(id, e)
	w.Ecs.addComponents(e, transform, MeshRenderer{Mesh: mesh, Material: material})

	bh, ch := w.Physics.AddDynamic(e, BodyParams{
		Position: transform.Position,
		Rotation: transform.Rotation,
		Shape:    ShapeSphere,
		Radius:   0.1,
	})
	w.Physics.SetVelocity(bh, velocity)
	w.Ecs.addComponents(e,
		RigidBody{Handle: bh, Kind: BodyDynamic},
		Collider{Handle: ch, Shape: ShapeSphere},
		Projectile{Damage: damage, Lifetime: lifetime, Owner: owner, HasOwner: hasOwner},
	)
	return e, nil
}

// SpawnDynamicEntity creates a mesh entity with a dynamic rigid body (a box
// collider sized to its mesh-default scale), used by the deferred command
// processor's dynamic-spawn sub-queue.
func (w *World) SpawnDynamicEntity(id string, transform Transform, mesh MeshHandle, material MaterialHandle, mass float32) EntityId {
	id = runtimeSpawnId(id)
	e := w.Ecs.addEntity(NewIdentity(id))
	w.register(id, e)
	w.Ecs.addComponents(e, transform)
	if mesh != InvalidMeshHandle {
		w.Ecs.addComponents(e, MeshRenderer{Mesh: mesh, Material: material})
	}
	bh, ch := w.Physics.AddDynamic(e, BodyParams{
		Position:    transform.Position,
		Rotation:    transform.Rotation,
		Shape:       ShapeBox,
		HalfExtents: transform.Scale.Mul(0.5),
		Mass:        mass,
	})
	w.Ecs.addComponents(e, RigidBody{Handle: bh, Kind: BodyDynamic}, Collider{Handle: ch, Shape: ShapeBox})
	return e
}
