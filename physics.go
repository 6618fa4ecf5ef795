package naive

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BodyHandle and ColliderHandle are opaque indices into PhysicsWorld's body
// and collider tables. No third-party rigid-body simulator is available to
// wrap here, so PhysicsWorld is a small hand-rolled broad/narrow-phase over
// spheres, boxes and capsules — enough to support the character controller,
// raycasts, and trigger/collision events the scripting bridge needs.
type BodyHandle uint32
type ColliderHandle uint32

const InvalidBodyHandle BodyHandle = 0
const InvalidColliderHandle ColliderHandle = 0

type body struct {
	kind     BodyKind
	position mgl32.Vec3
	rotation mgl32.Quat
	velocity mgl32.Vec3

	mass        float32
	restitution float32
	friction    float32
	ccd         bool

	collider ColliderHandle
	entity   EntityId
}

type collider struct {
	shape     ColliderShape
	isTrigger bool
	body      BodyHandle

	// shape extras: box half-extents, sphere/capsule radius, capsule half-height
	halfExtents mgl32.Vec3
	radius      float32
	halfHeight  float32
}

type contactPair struct {
	a, b BodyHandle
}

// ContactEvent is emitted once per frame a pair transitions from inactive to
// active. Separating ("ended") events are not required by the scripting
// bridge and are not generated.
type ContactEvent struct {
	A, B      EntityId
	IsTrigger bool
}

// PhysicsWorld wraps body/collider storage with entity bidirection, a fixed
// step, contact-edge events, a kinematic character controller and raycasts.
type PhysicsWorld struct {
	Gravity mgl32.Vec3

	bodies     map[BodyHandle]*body
	colliders  map[ColliderHandle]*collider
	bodyOf     map[EntityId]BodyHandle
	entityOf   map[BodyHandle]EntityId
	nextBody   BodyHandle
	nextCollid ColliderHandle

	activePairs map[contactPair]struct{}
	Events      []ContactEvent
}

func NewPhysicsWorld(gravity mgl32.Vec3) *PhysicsWorld {
	return &PhysicsWorld{
		Gravity:     gravity,
		bodies:      map[BodyHandle]*body{},
		colliders:   map[ColliderHandle]*collider{},
		bodyOf:      map[EntityId]BodyHandle{},
		entityOf:    map[BodyHandle]EntityId{},
		activePairs: map[contactPair]struct{}{},
	}
}

type BodyParams struct {
	Position    mgl32.Vec3
	Rotation    mgl32.Quat
	Shape       ColliderShape
	HalfExtents mgl32.Vec3
	Radius      float32
	HalfHeight  float32
	IsTrigger   bool

	Mass        float32
	Restitution float32
	Friction    float32
	CCD         bool
}

func (w *PhysicsWorld) addBody(kind BodyKind, entity EntityId, p BodyParams) (BodyHandle, ColliderHandle) {
	w.nextBody++
	bh := w.nextBody
	w.nextCollid++
	ch := w.nextCollid

	w.bodies[bh] = &body{
		kind:        kind,
		position:    p.Position,
		rotation:    p.Rotation,
		mass:        p.Mass,
		restitution: p.Restitution,
		friction:    p.Friction,
		ccd:         p.CCD,
		collider:    ch,
		entity:      entity,
	}
	w.colliders[ch] = &collider{
		shape:       p.Shape,
		isTrigger:   p.IsTrigger,
		body:        bh,
		halfExtents: p.HalfExtents,
		radius:      p.Radius,
		halfHeight:  p.HalfHeight,
	}
	w.bodyOf[entity] = bh
	w.entityOf[bh] = entity
	return bh, ch
}

func (w *PhysicsWorld) AddStatic(entity EntityId, p BodyParams) (BodyHandle, ColliderHandle) {
	return w.addBody(BodyStatic, entity, p)
}

func (w *PhysicsWorld) AddDynamic(entity EntityId, p BodyParams) (BodyHandle, ColliderHandle) {
	return w.addBody(BodyDynamic, entity, p)
}

func (w *PhysicsWorld) AddCharacter(entity EntityId, p BodyParams) (BodyHandle, ColliderHandle) {
	return w.addBody(BodyKinematic, entity, p)
}

// SetVelocity sets a dynamic body's linear velocity directly, used for
// projectile launch and other one-shot impulses that bypass integration.
func (w *PhysicsWorld) SetVelocity(h BodyHandle, v mgl32.Vec3) {
	if b, ok := w.bodies[h]; ok {
		b.velocity = v
	}
}

// RemoveBody drops a body and its collider. Used by despawn.
func (w *PhysicsWorld) RemoveBody(h BodyHandle) {
	b, ok := w.bodies[h]
	if !ok {
		return
	}
	delete(w.colliders, b.collider)
	delete(w.entityOf, h)
	delete(w.bodyOf, b.entity)
	delete(w.bodies, h)
}

func (w *PhysicsWorld) EntityOf(h BodyHandle) (EntityId, bool) {
	e, ok := w.entityOf[h]
	return e, ok
}

func (w *PhysicsWorld) BodyOf(e EntityId) (BodyHandle, bool) {
	h, ok := w.bodyOf[e]
	return h, ok
}

// Step integrates dynamic bodies under gravity, then recomputes the active
// contact set and emits started-only edge events.
func (w *PhysicsWorld) Step(dt float32) {
	for _, b := range w.bodies {
		if b.kind != BodyDynamic {
			continue
		}
		b.velocity = b.velocity.Add(w.Gravity.Mul(dt))
		b.position = b.position.Add(b.velocity.Mul(dt))
	}
	w.updateContacts()
}

func (w *PhysicsWorld) updateContacts() {
	current := map[contactPair]struct{}{}
	var handles []BodyHandle
	for h := range w.bodies {
		handles = append(handles, h)
	}
	for i := 0; i < len(handles); i++ {
		for j := i + 1; j < len(handles); j++ {
			a, b := handles[i], handles[j]
			if !w.bodiesOverlap(a, b) {
				continue
			}
			pair := contactPair{a: a, b: b}
			if a > b {
				pair = contactPair{a: b, b: a}
			}
			current[pair] = struct{}{}
			if _, was := w.activePairs[pair]; !was {
				ea, _ := w.entityOf[pair.a]
				eb, _ := w.entityOf[pair.b]
				trig := w.colliders[w.bodies[pair.a].collider].isTrigger ||
					w.colliders[w.bodies[pair.b].collider].isTrigger
				w.Events = append(w.Events, ContactEvent{A: ea, B: eb, IsTrigger: trig})
			}
		}
	}
	w.activePairs = current
}

func (w *PhysicsWorld) bodiesOverlap(a, b BodyHandle) bool {
	ba, bb := w.bodies[a], w.bodies[b]
	ca, cb := w.colliders[ba.collider], w.colliders[bb.collider]
	ra := colliderRadius(ca)
	rb := colliderRadius(cb)
	return ba.position.Sub(bb.position).Len() <= ra+rb
}

// colliderRadius approximates any shape as its bounding sphere for the
// broad/narrow contact test and for raycast candidate selection.
func colliderRadius(c *collider) float32 {
	switch c.shape {
	case ShapeSphere:
		return c.radius
	case ShapeCapsule:
		return c.radius + c.halfHeight
	case ShapeBox:
		return c.halfExtents.Len()
	default:
		return c.halfExtents.Len()
	}
}

// MoveCharacter clips the horizontal part of a desired displacement against
// static colliders, reports the character grounded when a downward probe of
// groundSnap+stepHeight from its center hits a body, drops the vertical part
// of a downward move steeper than slopeClimbMaxDeg, and commits the achieved
// displacement as the body's new kinematic position. It does not lift the
// character onto steps and does not move it down onto the ground.
func (w *PhysicsWorld) MoveCharacter(h BodyHandle, desired mgl32.Vec3, dt float32) (achieved mgl32.Vec3, grounded bool) {
	const stepHeight = 0.3
	const groundSnap = 0.05
	const slopeClimbMaxDeg = 45.0
	const slopeSlideMinDeg = 30.0

	b, ok := w.bodies[h]
	if !ok {
		return mgl32.Vec3{}, false
	}

	achieved = w.resolveHorizontalCollisions(h, desired)

	below := b.position.Sub(mgl32.Vec3{0, groundSnap + stepHeight, 0})
	grounded = w.raycastGroundSupport(b.position, below)

	if achieved.Y() < 0 {
		slopeAngle := verticalAngleDeg(achieved)
		switch {
		case slopeAngle <= slopeClimbMaxDeg:
			// climbable, keep full displacement
		case slopeAngle >= slopeSlideMinDeg:
			achieved = mgl32.Vec3{achieved.X(), 0, achieved.Z()}
		}
	}

	b.position = b.position.Add(achieved)
	if grounded && achieved.Y() <= 0 {
		b.position = mgl32.Vec3{b.position.X(), b.position.Y(), b.position.Z()}
	}
	return achieved, grounded
}

// resolveHorizontalCollisions clips the horizontal (X/Z) component of a
// character's desired move against static, non-trigger colliders it would otherwise
// tunnel into or lodge inside, using the same bounding-sphere approximation
// as contact detection and raycasts. Any component of the move pointing into
// an overlapping obstacle is removed, leaving the tangential component so
// the character slides along the surface instead of stopping dead. Vertical
// motion (autostep/slope/gravity) is untouched.
func (w *PhysicsWorld) resolveHorizontalCollisions(self BodyHandle, desired mgl32.Vec3) mgl32.Vec3 {
	b, ok := w.bodies[self]
	if !ok {
		return desired
	}
	horiz := mgl32.Vec3{desired.X(), 0, desired.Z()}
	if horiz.Len() == 0 {
		return desired
	}
	selfRadius := colliderRadius(w.colliders[b.collider])

	for h, ob := range w.bodies {
		if h == self || ob.kind != BodyStatic || w.colliders[ob.collider].isTrigger {
			continue
		}
		obRadius := colliderRadius(w.colliders[ob.collider])
		minDist := selfRadius + obRadius

		if math.Abs(float64(b.position.Y()-ob.position.Y())) > float64(minDist) {
			continue
		}

		target := mgl32.Vec3{b.position.X() + horiz.X(), 0, b.position.Z() + horiz.Z()}
		obstacle := mgl32.Vec3{ob.position.X(), 0, ob.position.Z()}
		toObstacle := target.Sub(obstacle)
		dist := toObstacle.Len()
		if dist >= minDist {
			continue
		}

		// A target exactly on the obstacle's center has no direction of its
		// own; push back along the move instead.
		normal := horiz.Normalize().Mul(-1)
		if dist > 0 {
			normal = toObstacle.Mul(1 / dist)
		}
		if along := horiz.Dot(normal); along < 0 {
			horiz = horiz.Sub(normal.Mul(along))
		}
	}

	return mgl32.Vec3{horiz.X(), desired.Y(), horiz.Z()}
}

func verticalAngleDeg(v mgl32.Vec3) float32 {
	horiz := mgl32.Vec2{v.X(), v.Z()}.Len()
	if horiz == 0 {
		return 0
	}
	return mgl32.RadToDeg(float32(math.Atan2(float64(-v.Y()), float64(horiz))))
}

func (w *PhysicsWorld) raycastGroundSupport(from, to mgl32.Vec3) bool {
	dir := to.Sub(from)
	dist := dir.Len()
	if dist == 0 {
		return false
	}
	dir = dir.Normalize()
	_, hit := w.Raycast(from, dir, dist, nil)
	return hit
}

// RaycastHit is the result of a successful PhysicsWorld.Raycast call.
type RaycastHit struct {
	Entity EntityId
	Toi    float32
	Point  mgl32.Vec3
	Normal mgl32.Vec3
}

// Raycast returns the first hit along the ray, excluding the given entity's
// body (if any) from candidates. Uses the same bounding-sphere approximation
// as contact detection.
func (w *PhysicsWorld) Raycast(origin, dir mgl32.Vec3, maxDist float32, exclude *EntityId) (RaycastHit, bool) {
	var excludedBody BodyHandle
	if exclude != nil {
		if h, ok := w.bodyOf[*exclude]; ok {
			excludedBody = h
		}
	}

	var best RaycastHit
	bestToi := maxDist
	found := false

	for h, b := range w.bodies {
		if h == excludedBody {
			continue
		}
		c := w.colliders[b.collider]
		r := colliderRadius(c)
		toi, point, ok := raySphereIntersect(origin, dir, b.position, r)
		if !ok || toi > bestToi {
			continue
		}
		normal := point.Sub(b.position).Normalize()
		best = RaycastHit{Entity: b.entity, Toi: toi, Point: point, Normal: normal}
		bestToi = toi
		found = true
	}
	return best, found
}

func raySphereIntersect(origin, dir, center mgl32.Vec3, radius float32) (toi float32, point mgl32.Vec3, ok bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, mgl32.Vec3{}, false
	}
	sqrtDisc := float32(math.Sqrt(float64(disc)))
	t := -b - sqrtDisc
	if t < 0 {
		t = -b + sqrtDisc
	}
	if t < 0 {
		return 0, mgl32.Vec3{}, false
	}
	return t, origin.Add(dir.Mul(t)), true
}

// SyncToWorld writes each mapped body's position/rotation into its entity's
// Transform, marking it dirty for the world-matrix recompute pass.
func (w *PhysicsWorld) SyncToWorld(ecs *Ecs) {
	for h, b := range w.bodies {
		e, ok := w.entityOf[h]
		if !ok {
			continue
		}
		t := GetComponent[Transform](ecs, e)
		if t == nil {
			continue
		}
		t.Position = b.position
		t.Rotation = b.rotation
		t.Dirty = true
	}
}
