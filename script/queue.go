package script

import "github.com/go-gl/mathgl/mgl32"

// CommandQueue is the deferred entity-command queue (§4.4.4): every
// structural mutation a script triggers is appended here instead of
// mutating the world synchronously, then drained once per frame at a
// defined point in the loop.
type CommandQueue struct {
	Spawns           []SpawnCommand
	ProjectileSpawns []ProjectileSpawnCommand
	DynamicSpawns    []DynamicSpawnCommand
	Destroys         []EntityId
	Scales           []ScaleCommand
	Visibilities     []VisibilityCommand
	PoolReleases     []PoolReleaseCommand
	PendingSceneLoad string
}

type SpawnCommand struct {
	Id       string
	Position mgl32.Vec3
	Mesh     string
	Material string
	Script   string
}

type ProjectileSpawnCommand struct {
	Id       string
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Mesh     string
	Material string
	Damage   float32
	Lifetime float32
	Owner    EntityId
	HasOwner bool
}

type DynamicSpawnCommand struct {
	Id       string
	Position mgl32.Vec3
	Mesh     string
	Material string
	Mass     float32
}

type ScaleCommand struct {
	Entity EntityId
	Scale  mgl32.Vec3
}

type VisibilityCommand struct {
	Entity  EntityId
	Visible bool
}

type PoolReleaseCommand struct {
	Pool   string
	Entity EntityId
}

func NewCommandQueue() *CommandQueue { return &CommandQueue{} }

// Drain returns and clears every sub-queue. Callers apply them in the order
// mandated by §4.5 step 11: destroys, spawns, projectile spawns, dynamic
// spawns, pool releases, scale updates, visibility updates.
func (q *CommandQueue) Drain() CommandQueue {
	out := *q
	*q = CommandQueue{}
	return out
}
