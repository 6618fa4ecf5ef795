package naive

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// ParticleInstance is one live particle's packed render state, sampled after
// an update. The renderer does not yet consume these (no particle pass is
// compiled from pipeline YAML); scripts and tests observe them instead.
type ParticleInstance struct {
	Position mgl32.Vec3
	Color    [4]float32
	Size     float32
	LifePct  float32 // 0 at spawn, 1 at death
}

type particle struct {
	pos, vel mgl32.Vec3
	age      float32
}

// particlePool is the per-emitter CPU simulation state ParticleEmitter's doc
// comment calls "runtime state out-of-band": it lives here, not as an ECS
// component, so emitters stay cheap to spawn and query.
type particlePool struct {
	live     []particle
	spawnAcc float32
}

// ParticleSystem owns every entity's particlePool and simulates them each
// frame (§ frame loop step 14). Pools are created lazily and dropped on
// scene load alongside the rest of the per-scene runtime state.
type ParticleSystem struct {
	pools map[EntityId]*particlePool
	rng   *rand.Rand
}

func NewParticleSystem() *ParticleSystem {
	return &ParticleSystem{
		pools: map[EntityId]*particlePool{},
		rng:   rand.New(rand.NewSource(1)),
	}
}

// Reset drops every emitter's live particles, called on scene load (§4.4.6
// lists "clears ... particle system" among the state a scene swap resets).
func (ps *ParticleSystem) Reset() {
	ps.pools = map[EntityId]*particlePool{}
}

func jitterComponent(rng *rand.Rand, jitter float32) float32 {
	if jitter == 0 {
		return 0
	}
	return (rng.Float32()*2 - 1) * jitter
}

// Update advances every enabled emitter's pool by dt: spawns new particles at
// Rate per second (fractional spawns accumulate across frames), integrates
// position by velocity (plus per-axis VelocityJitter noise), and retires
// particles once their age passes Lifetime via swap-remove.
func (ps *ParticleSystem) Update(dt float32, q Query2[Transform, ParticleEmitter]) {
	seen := map[EntityId]bool{}
	q.Map(func(id EntityId, t *Transform, em *ParticleEmitter) bool {
		seen[id] = true
		pool, ok := ps.pools[id]
		if !ok {
			pool = &particlePool{}
			ps.pools[id] = pool
		}
		ps.updatePool(pool, t, em, dt)
		return true
	})
	for id := range ps.pools {
		if !seen[id] {
			delete(ps.pools, id)
		}
	}
}

func (ps *ParticleSystem) updatePool(pool *particlePool, t *Transform, em *ParticleEmitter, dt float32) {
	if !em.Enabled {
		pool.live = pool.live[:0]
		pool.spawnAcc = 0
		return
	}

	pool.spawnAcc += em.Rate * dt
	spawnCount := int(pool.spawnAcc)
	pool.spawnAcc -= float32(spawnCount)

	for i := 0; i < spawnCount; i++ {
		vel := em.Velocity
		vel[0] += jitterComponent(ps.rng, em.VelocityJitter.X())
		vel[1] += jitterComponent(ps.rng, em.VelocityJitter.Y())
		vel[2] += jitterComponent(ps.rng, em.VelocityJitter.Z())
		pool.live = append(pool.live, particle{pos: t.Position, vel: vel, age: 0})
	}

	i := 0
	for i < len(pool.live) {
		p := &pool.live[i]
		p.age += dt
		if em.Lifetime > 0 && p.age >= em.Lifetime {
			last := len(pool.live) - 1
			pool.live[i] = pool.live[last]
			pool.live = pool.live[:last]
			continue
		}
		p.pos = p.pos.Add(p.vel.Mul(dt))
		i++
	}
}

// Instances packs one emitter's live particles for rendering, interpolating
// StartColor/StartSize toward EndColor/EndSize across each particle's age.
func (ps *ParticleSystem) Instances(id EntityId, em *ParticleEmitter) []ParticleInstance {
	pool, ok := ps.pools[id]
	if !ok {
		return nil
	}
	out := make([]ParticleInstance, len(pool.live))
	for i, p := range pool.live {
		t := float32(0)
		if em.Lifetime > 0 {
			t = p.age / em.Lifetime
		}
		if t > 1 {
			t = 1
		}
		var color [4]float32
		for c := 0; c < 4; c++ {
			color[c] = em.StartColor[c] + (em.EndColor[c]-em.StartColor[c])*t
		}
		out[i] = ParticleInstance{
			Position: p.pos,
			Color:    color,
			Size:     em.StartSize + (em.EndSize-em.StartSize)*t,
			LifePct:  t,
		}
	}
	return out
}

// LiveCount reports how many particles an emitter currently has alive, for
// tests and diagnostics.
func (ps *ParticleSystem) LiveCount(id EntityId) int {
	pool, ok := ps.pools[id]
	if !ok {
		return 0
	}
	return len(pool.live)
}
