package naive

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func emitterEntity(t *testing.T, ecs *Ecs, em ParticleEmitter) EntityId {
	t.Helper()
	e := ecs.addEntity()
	tr := IdentityTransform()
	tr.Position = mgl32.Vec3{1, 2, 3}
	ecs.addComponents(e, tr, em)
	return e
}

func TestParticleSystemSpawnsAtConfiguredRate(t *testing.T) {
	ecs := MakeEcs()
	e := emitterEntity(t, &ecs, ParticleEmitter{
		Enabled:   true,
		Rate:      10, // 10/sec
		Lifetime:  100,
		StartSize: 1,
		EndSize:   1,
	})

	ps := NewParticleSystem()
	ps.Update(0.5, MakeQuery2[Transform, ParticleEmitter](&ecs))

	if got := ps.LiveCount(e); got != 5 {
		t.Fatalf("expected 5 particles spawned over 0.5s at rate 10, got %d", got)
	}
}

func TestParticleSystemRetiresExpiredParticles(t *testing.T) {
	ecs := MakeEcs()
	e := emitterEntity(t, &ecs, ParticleEmitter{
		Enabled:  true,
		Rate:     100,
		Lifetime: 1,
	})

	ps := NewParticleSystem()
	q := MakeQuery2[Transform, ParticleEmitter](&ecs)
	ps.Update(0.1, q)
	if ps.LiveCount(e) == 0 {
		t.Fatal("expected particles alive after first update")
	}

	// Stop emitting so only the particles already alive remain to be retired.
	GetComponent[ParticleEmitter](&ecs, e).Rate = 0

	for i := 0; i < 20; i++ {
		ps.Update(0.1, q)
	}

	if got := ps.LiveCount(e); got != 0 {
		t.Fatalf("expected all particles to have died off by t=2.1s with lifetime 1s, got %d alive", got)
	}
}

func TestParticleSystemDisabledEmitterStaysEmpty(t *testing.T) {
	ecs := MakeEcs()
	e := emitterEntity(t, &ecs, ParticleEmitter{Enabled: false, Rate: 50, Lifetime: 1})

	ps := NewParticleSystem()
	ps.Update(1, MakeQuery2[Transform, ParticleEmitter](&ecs))

	if got := ps.LiveCount(e); got != 0 {
		t.Fatalf("expected disabled emitter to spawn nothing, got %d", got)
	}
}

func TestParticleSystemResetClearsAllPools(t *testing.T) {
	ecs := MakeEcs()
	e := emitterEntity(t, &ecs, ParticleEmitter{Enabled: true, Rate: 10, Lifetime: 100})

	ps := NewParticleSystem()
	ps.Update(1, MakeQuery2[Transform, ParticleEmitter](&ecs))
	if ps.LiveCount(e) == 0 {
		t.Fatal("expected particles alive before reset")
	}

	ps.Reset()

	if got := ps.LiveCount(e); got != 0 {
		t.Fatalf("expected Reset to drop all pools, got %d live", got)
	}
}

func TestParticleInstancesInterpolateColorAndSizeOverLifetime(t *testing.T) {
	ecs := MakeEcs()
	e := emitterEntity(t, &ecs, ParticleEmitter{
		Enabled:    true,
		Rate:       1,
		Lifetime:   1,
		StartSize:  2,
		EndSize:    4,
		StartColor: [4]float32{1, 0, 0, 1},
		EndColor:   [4]float32{0, 0, 1, 1},
	})

	ps := NewParticleSystem()
	q := MakeQuery2[Transform, ParticleEmitter](&ecs)
	ps.Update(0.6, q) // accumulate 0.6 of a spawn, nothing spawned yet
	ps.Update(0.5, q) // spawn one particle and age it to half its lifetime

	em := GetComponent[ParticleEmitter](&ecs, e)
	instances := ps.Instances(e, em)
	if len(instances) != 1 {
		t.Fatalf("expected exactly 1 live particle, got %d", len(instances))
	}

	inst := instances[0]
	if inst.Size <= 2 || inst.Size >= 4 {
		t.Errorf("expected interpolated size strictly between 2 and 4, got %v", inst.Size)
	}
	if inst.Color[0] <= 0 || inst.Color[0] >= 1 {
		t.Errorf("expected interpolated red channel strictly between 0 and 1, got %v", inst.Color[0])
	}
}
