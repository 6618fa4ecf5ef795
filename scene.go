package naive

import (
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

type SceneFile struct {
	Name     string `yaml:"name"`
	Settings struct {
		Gravity []float32 `yaml:"gravity"`
	} `yaml:"settings"`
	Entities []EntityDef `yaml:"entities"`
}

type EntityDef struct {
	Id         string              `yaml:"id"`
	Tags       []string            `yaml:"tags"`
	Components EntityComponentsDef `yaml:"components"`
}

type EntityComponentsDef struct {
	Transform *struct {
		Position []float32 `yaml:"position"`
		Rotation []float32 `yaml:"rotation"` // euler degrees, xyz
		Scale    []float32 `yaml:"scale"`
	} `yaml:"transform"`

	MeshRenderer *struct {
		Mesh     string `yaml:"mesh"`
		Material string `yaml:"material"`
	} `yaml:"mesh_renderer"`

	Camera *struct {
		Fov    float32 `yaml:"fov"`
		Near   float32 `yaml:"near"`
		Far    float32 `yaml:"far"`
		Role   string  `yaml:"role"`
	} `yaml:"camera"`

	PointLight *struct {
		Color     []float32 `yaml:"color"`
		Intensity float32   `yaml:"intensity"`
		Range     float32   `yaml:"range"`
	} `yaml:"point_light"`

	DirectionalLight *struct {
		Direction        []float32 `yaml:"direction"`
		Color            []float32 `yaml:"color"`
		Intensity        float32   `yaml:"intensity"`
		ShadowHalfExtent float32   `yaml:"shadow_half_extent"`
	} `yaml:"directional_light"`

	Collider *struct {
		Shape       string    `yaml:"shape"`
		HalfExtents []float32 `yaml:"half_extents"`
		Radius      float32   `yaml:"radius"`
		HalfHeight  float32   `yaml:"half_height"`
		IsTrigger   bool      `yaml:"is_trigger"`
	} `yaml:"collider"`

	RigidBody *struct {
		Kind        string  `yaml:"kind"` // "static" | "dynamic"
		Mass        float32 `yaml:"mass"`
		Restitution float32 `yaml:"restitution"`
		Friction    float32 `yaml:"friction"`
		Ccd         bool    `yaml:"ccd"`
	} `yaml:"rigid_body"`

	CharacterController *struct {
		MoveSpeed        float32 `yaml:"move_speed"`
		SprintMultiplier float32 `yaml:"sprint_multiplier"`
		JumpImpulse      float32 `yaml:"jump_impulse"`
		StepHeight       float32 `yaml:"step_height"`
		CapsuleHeight    float32 `yaml:"capsule_height"`
		CapsuleRadius    float32 `yaml:"capsule_radius"`
	} `yaml:"character_controller"`

	Script *struct {
		Source string `yaml:"source"`
	} `yaml:"script"`

	Health *struct {
		Current float32 `yaml:"current"`
		Max     float32 `yaml:"max"`
	} `yaml:"health"`

	CollisionDamage *struct {
		Damage       float32 `yaml:"damage"`
		DestroyOnHit bool    `yaml:"destroy_on_hit"`
	} `yaml:"collision_damage"`

	ParticleEmitter *struct {
		Enabled    bool      `yaml:"enabled"`
		Rate       float32   `yaml:"rate"`
		Lifetime   float32   `yaml:"lifetime"`
		StartColor []float32 `yaml:"start_color"`
		EndColor   []float32 `yaml:"end_color"`
		StartSize  float32   `yaml:"start_size"`
		EndSize    float32   `yaml:"end_size"`
	} `yaml:"particle_emitter"`

	GaussianSplat *struct {
		Splat string `yaml:"splat"`
	} `yaml:"gaussian_splat"`
}

func LoadSceneFile(path string) (*SceneFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf SceneFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, err
	}
	return &sf, nil
}

func vec3FromSlice(v []float32, fallback mgl32.Vec3) mgl32.Vec3 {
	if len(v) != 3 {
		return fallback
	}
	return mgl32.Vec3{v[0], v[1], v[2]}
}

func eulerDegToQuat(v []float32) mgl32.Quat {
	if len(v) != 3 {
		return mgl32.QuatIdent()
	}
	x := mgl32.DegToRad(v[0])
	y := mgl32.DegToRad(v[1])
	z := mgl32.DegToRad(v[2])
	return mgl32.AnglesToQuat(z, y, x, mgl32.ZYX)
}

func color3FromSlice(v []float32) [3]float32 {
	var c [3]float32
	for i := 0; i < len(v) && i < 3; i++ {
		c[i] = v[i]
	}
	return c
}

func color4FromSlice(v []float32) [4]float32 {
	c := [4]float32{0, 0, 0, 1}
	for i := 0; i < len(v) && i < 4; i++ {
		c[i] = v[i]
	}
	return c
}
