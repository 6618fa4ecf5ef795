package naive

import "github.com/go-gl/mathgl/mgl32"

// Identity carries an entity's stable string id and its tag set. The id is
// the key the name registry uses; tags are free-form gameplay labels.
type Identity struct {
	Id   string
	Tags map[string]struct{}
}

func NewIdentity(id string, tags ...string) Identity {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return Identity{Id: id, Tags: set}
}

func (i Identity) HasTag(tag string) bool {
	_, ok := i.Tags[tag]
	return ok
}

// Transform is position/rotation/scale plus the cached world matrix the
// renderer and physics sync read from. Dirty is set whenever any field below
// changes and cleared once the world matrix is recomputed for the frame.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	WorldMatrix mgl32.Mat4
	Dirty       bool

	Parent    EntityId
	HasParent bool
}

func IdentityTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Dirty:    true,
	}
}

func (t *Transform) LocalMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// MeshRenderer binds an entity to cached GPU mesh/material resources.
type MeshRenderer struct {
	Mesh     MeshHandle
	Material MaterialHandle
}

// MaterialOverride applies per-entity parameter overrides at draw time,
// without mutating the shared MaterialAsset the entity's mesh references.
type MaterialOverride struct {
	BaseColor    *[4]float32
	Roughness    *float32
	Metallic     *float32
	Emission     *[3]float32
}

// PointLight is an omnidirectional light. Its values are copied into the
// render frame inputs; no falloff is computed from them.
type PointLight struct {
	Color     [3]float32
	Intensity float32
	Range     float32
}

// DirectionalLight additionally drives the shadow orthographic projection.
type DirectionalLight struct {
	Direction         mgl32.Vec3
	Color             [3]float32
	Intensity         float32
	ShadowHalfExtent  float32
}

type CameraRole string

const CameraRoleMain CameraRole = "main"

// Camera is the projection definition; CameraRoleMain picks the active one.
type Camera struct {
	Fov    float32
	Near   float32
	Far    float32
	Aspect float32
	Role   CameraRole
}

type CameraModeKind int

const (
	CameraFirstPerson CameraModeKind = iota
	CameraThirdPerson
)

// CameraMode selects first/third person camera behavior for the frame loop's
// camera-state step. ThirdPerson carries the wall-pullback state.
type CameraMode struct {
	Mode CameraModeKind

	OrbitDistance float32
	HeightOffset  float32
	MinPitch      float32
	MaxPitch      float32

	currentDistance float32 // smoothed, eases back out once unobstructed
}

// Player is the first-person/third-person controller's orientation state.
type Player struct {
	Yaw, Pitch   float32
	CapsuleHeight float32
	CapsuleRadius float32
}

// CharacterController drives a kinematic capsule via PhysicsWorld.MoveCharacter.
type CharacterController struct {
	MoveSpeed       float32
	SprintMultiplier float32
	JumpImpulse     float32
	StepHeight      float32

	Grounded bool
	Velocity mgl32.Vec3
}

type BodyKind int

const (
	BodyStatic BodyKind = iota
	BodyDynamic
	BodyKinematic
)

// RigidBody is the ECS-side handle to a body in PhysicsWorld.
type RigidBody struct {
	Handle BodyHandle
	Kind   BodyKind
}

type ColliderShape int

const (
	ShapeBox ColliderShape = iota
	ShapeSphere
	ShapeCapsule
	ShapeTrimesh
)

// Collider is the ECS-side handle to a collider in PhysicsWorld.
type Collider struct {
	Handle    ColliderHandle
	Shape     ColliderShape
	IsTrigger bool
}

// Health tracks hit points; Dead latches true the first frame Current <= 0.
type Health struct {
	Current float32
	Max     float32
	Dead    bool
}

// CollisionDamage is applied to whatever Health component it contacts.
type CollisionDamage struct {
	Damage        float32
	DestroyOnHit  bool
}

// Projectile entities age out once Age >= Lifetime; Owner excludes the firer
// from collision damage.
type Projectile struct {
	Damage   float32
	Lifetime float32
	Age      float32
	Owner    EntityId
	HasOwner bool
}

// ParticleEmitter configuration; the particle system reads Enabled each
// frame and otherwise owns its runtime state out-of-band.
type ParticleEmitter struct {
	Enabled       bool
	Rate          float32
	Lifetime      float32
	StartColor    [4]float32
	EndColor      [4]float32
	StartSize     float32
	EndSize       float32
	Velocity      mgl32.Vec3
	VelocityJitter mgl32.Vec3
}

// Script is the source path for a per-entity Lua environment.
type Script struct {
	Source      string
	Initialized bool
}

// Hidden excludes an entity from mesh rendering (but not from physics,
// scripts, or transforms).
type Hidden struct{}

// Pooled marks an entity as belonging to a named object pool.
type Pooled struct {
	Pool   string
	Active bool
}

// GaussianSplat binds an entity to a cached splat asset, rendered by the
// splat pass instead of the mesh/material path.
type GaussianSplat struct {
	Splat SplatHandle
}
