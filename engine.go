package naive

import (
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"

	"github.com/naive-engine/naive/render"
	"github.com/naive-engine/naive/script"
)

// Engine owns every subsystem and drives the single-threaded cooperative
// frame loop (§4.5). All of its state is touched only from the main thread;
// the command socket and file watcher communicate by channel only (§5).
type Engine struct {
	World    *World
	Scripts  *script.Runtime
	Events   *EventBus
	Input    *InputState
	Commands *CommandSocket
	Watcher  *Watcher
	Time     *Time
	Log      Logger

	Gpu          *render.GpuState
	Pipeline     *render.Pipeline
	PipelinePath string

	ProjectRoot string
	ScenePath   string

	Paused bool
	Window *glfw.Window

	ui        *UiSystem
	audio     *AudioSystem
	particles *ParticleSystem
	meshGpu   *MeshGpuCache

	pendingSceneLoad string
	shake            cameraShakeState
}

type cameraShakeState struct {
	intensity float32
	duration  float32
	remaining float32
	seed      float32
}

// TriggerCameraShake records a new shake; remaining decays linearly each
// frame until it reaches zero (§4.5).
func (e *Engine) TriggerCameraShake(intensity, duration, seed float32) {
	e.shake = cameraShakeState{intensity: intensity, duration: duration, remaining: duration, seed: seed}
}

func (e *Engine) cameraShakeOffset() mgl32.Vec3 {
	if e.shake.remaining <= 0 {
		return mgl32.Vec3{}
	}
	t := e.shake.remaining + e.shake.seed
	scale := e.shake.intensity * e.shake.remaining / e.shake.duration
	return mgl32.Vec3{
		float32(math.Sin(float64(t*13.1))) * scale,
		float32(math.Sin(float64(t*17.3))) * scale,
		float32(math.Sin(float64(t*9.7))) * scale,
	}
}

func NewEngine(projectRoot string, assets *AssetServer, log Logger) *Engine {
	if log == nil {
		log = NewNopLogger()
	}
	e := &Engine{
		World:       NewWorld(assets, log),
		Events:      NewEventBus(),
		Time:        NewTime(),
		Log:         log,
		ProjectRoot: projectRoot,
		ui:          NewUiSystem(),
		audio:       NewAudioSystem(),
		particles:   NewParticleSystem(),
	}
	e.Scripts = script.NewRuntime(func(format string, args ...any) { log.Warnf(format, args...) })
	e.Scripts.SetHost(&engineScriptHost{e: e})
	return e
}

func toScriptId(id EntityId) script.EntityId   { return script.EntityId(id) }
func fromScriptId(id script.EntityId) EntityId { return EntityId(id) }

func readScriptSource(projectRoot, relPath string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(projectRoot, relPath))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// LoadScene performs the initial scene spawn (not a reconcile): parses the
// scene file, rebuilds the physics world from its gravity, spawns every
// entity, and loads+inits every scripted entity's environment in document
// order.
func (e *Engine) LoadScene(path string) error {
	sf, err := LoadSceneFile(path)
	if err != nil {
		return err
	}
	e.World.SpawnFromScene(sf, e.Gpu == nil)
	e.ScenePath = path
	e.attachAndInitScripts()
	return nil
}

func (e *Engine) attachAndInitScripts() {
	q := MakeQuery1[Script](e.World.Ecs)
	q.Map(func(id EntityId, s *Script) bool {
		if s.Initialized {
			return true
		}
		code, err := readScriptSource(e.ProjectRoot, s.Source)
		if err != nil {
			e.Log.Warnf("script %s: %v", s.Source, err)
			return true
		}
		name, _ := e.World.NameOf(id)
		if err := e.Scripts.LoadScript(toScriptId(id), name, s.Source, code); err != nil {
			e.Log.Warnf("script %s: %v", s.Source, err)
			return true
		}
		s.Initialized = true
		e.Scripts.RunInit(toScriptId(id))
		return true
	})
}

// Tick runs exactly one iteration of the frame loop in the order mandated
// by §4.5. Steps 4 through 15 are skipped while paused; the renderer still
// executes and the command socket/hot-reload are still serviced.
func (e *Engine) Tick() {
	e.Time.Tick()
	dt := float32(e.Time.Dt)

	if e.Commands != nil {
		e.DispatchCommands()
	}
	if e.Input != nil {
		e.Input.Poll()
	}
	e.handleSpecialKeys()
	e.serviceFileWatch()

	if !e.Paused {
		e.driveCameraController(dt)
		e.World.Physics.Step(dt)
		e.World.Physics.SyncToWorld(e.World.Ecs)
		e.dispatchContactEvents()
		e.processCollisionDamage()
		e.ageProjectiles(dt)
		e.runHealthSystem()
		e.updateScripts(dt)
		e.drainCommandQueue()
		e.processPendingSceneLoad()
		e.tickEventBus()
		e.updateParticlesAndAudio(dt)
		TransformHierarchySystem(e.World.Ecs)
	}
	e.updateCameraState(dt)

	e.renderFrame()

	if e.Input != nil {
		e.Input.ClearTransient()
	}
}

func (e *Engine) handleSpecialKeys() {
	if e.Window == nil || e.Input == nil {
		return
	}
	if e.Input.JustPressed("toggle_cursor") {
		e.Input.CursorGrabbed = !e.Input.CursorGrabbed
		mode := glfw.CursorNormal
		if e.Input.CursorGrabbed {
			mode = glfw.CursorDisabled
		}
		e.Window.SetInputMode(glfw.CursorMode, mode)
	}
}

func (e *Engine) serviceFileWatch() {
	if e.Watcher == nil {
		return
	}
	var batch []ReloadEvent
drain:
	for {
		select {
		case ev := <-e.Watcher.Events():
			batch = append(batch, ev)
		default:
			break drain
		}
	}
	batch = OrderReloads(DedupReloads(batch))
	for _, ev := range batch {
		e.applyReload(ev)
	}
}

func (e *Engine) applyReload(ev ReloadEvent) {
	switch ev.Kind {
	case ReloadShader, ReloadPipeline:
		e.rebuildPipeline()
	case ReloadScene:
		sf, err := LoadSceneFile(ev.Path)
		if err != nil {
			e.Log.Warnf("reload scene %s: %v", ev.Path, err)
			return
		}
		e.World.Reconcile(sf)
	case ReloadMaterial:
		e.World.Assets.Materials.Invalidate(ev.Path)
	case ReloadSplat:
		e.World.Assets.Splats.Invalidate(ev.Path)
	case ReloadScript:
		e.reloadScript(ev.Path)
	}
}

func (e *Engine) rebuildPipeline() {
	if e.Gpu == nil || e.PipelinePath == "" {
		return
	}
	def, err := render.LoadPipelineDef(e.PipelinePath)
	if err != nil {
		e.Log.Warnf("pipeline reload: %v", err)
		return
	}
	compiled, err := render.Compile(e.Gpu, def)
	if err != nil {
		e.Log.Warnf("pipeline recompile failed, keeping previous: %v", err)
		return
	}
	e.Pipeline = compiled
}

func (e *Engine) reloadScript(path string) {
	q := MakeQuery1[Script](e.World.Ecs)
	q.Map(func(id EntityId, s *Script) bool {
		if s.Source != path {
			return true
		}
		code, err := readScriptSource(e.ProjectRoot, s.Source)
		if err != nil {
			e.Log.Warnf("reload script %s: %v", path, err)
			return true
		}
		name, _ := e.World.NameOf(id)
		if err := e.Scripts.Reload(toScriptId(id), name, s.Source, code); err != nil {
			e.Log.Warnf("reload script %s: %v", path, err)
		}
		return true
	})
}

func (e *Engine) driveCameraController(dt float32) {
	if e.Input == nil || !e.Input.CursorGrabbed {
		return
	}
	q := MakeQuery3[Player, CharacterController, RigidBody](e.World.Ecs)
	q.Map(func(id EntityId, p *Player, cc *CharacterController, rb *RigidBody) bool {
		cam := GetComponent[Camera](e.World.Ecs, id)
		if cam == nil || cam.Role != CameraRoleMain {
			return true
		}
		dx, dy := e.Input.MouseDelta()
		p.Yaw += dx * 0.1
		p.Pitch -= dy * 0.1
		if p.Pitch > 89 {
			p.Pitch = 89
		}
		if p.Pitch < -89 {
			p.Pitch = -89
		}

		yawRad := float64(mgl32.DegToRad(p.Yaw))
		forward := mgl32.Vec3{float32(math.Sin(yawRad)), 0, float32(math.Cos(yawRad))}
		right := mgl32.Vec3{forward.Z(), 0, -forward.X()}

		var move mgl32.Vec3
		if e.Input.Pressed("move_forward") {
			move = move.Add(forward)
		}
		if e.Input.Pressed("move_back") {
			move = move.Sub(forward)
		}
		if e.Input.Pressed("move_right") {
			move = move.Add(right)
		}
		if e.Input.Pressed("move_left") {
			move = move.Sub(right)
		}
		if move.Len() > 0 {
			move = move.Normalize()
		}
		speed := cc.MoveSpeed
		if e.Input.Pressed("sprint") {
			speed *= cc.SprintMultiplier
		}
		desired := move.Mul(speed * dt)

		achieved, grounded := e.World.Physics.MoveCharacter(rb.Handle, desired, dt)
		cc.Velocity = achieved
		cc.Grounded = grounded
		return true
	})
}

func (e *Engine) dispatchContactEvents() {
	for _, ev := range e.World.Physics.Events {
		hook := "on_collision"
		if ev.IsTrigger {
			hook = "on_trigger_enter"
		}
		e.Scripts.CallHook(toScriptId(ev.A), hook, lua.LNumber(ev.B))
		e.Scripts.CallHook(toScriptId(ev.B), hook, lua.LNumber(ev.A))
	}
}

func (e *Engine) processCollisionDamage() {
	for _, ev := range e.World.Physics.Events {
		e.applyCollisionDamage(ev.A, ev.B)
		e.applyCollisionDamage(ev.B, ev.A)
	}
	e.World.Physics.Events = nil
}

func (e *Engine) applyCollisionDamage(attacker, target EntityId) {
	cd := GetComponent[CollisionDamage](e.World.Ecs, attacker)
	health := GetComponent[Health](e.World.Ecs, target)
	if cd == nil || health == nil {
		return
	}
	if proj := GetComponent[Projectile](e.World.Ecs, attacker); proj != nil && proj.HasOwner && proj.Owner == target {
		return
	}
	health.Current -= cd.Damage
	if health.Current < 0 {
		health.Current = 0
	}
	e.Scripts.CallHook(toScriptId(target), "on_damage", lua.LNumber(cd.Damage), lua.LNumber(attacker))
	if cd.DestroyOnHit {
		e.enqueueDestroy(attacker)
	}
}

func (e *Engine) enqueueDestroy(id EntityId) {
	e.Scripts.Queue.Destroys = append(e.Scripts.Queue.Destroys, toScriptId(id))
}

func (e *Engine) ageProjectiles(dt float32) {
	q := MakeQuery1[Projectile](e.World.Ecs)
	q.Map(func(id EntityId, p *Projectile) bool {
		p.Age += dt
		if p.Age >= p.Lifetime {
			e.enqueueDestroy(id)
		}
		return true
	})
}

func (e *Engine) runHealthSystem() {
	q := MakeQuery1[Health](e.World.Ecs)
	q.Map(func(id EntityId, h *Health) bool {
		if h.Current <= 0 && !h.Dead {
			h.Dead = true
			e.Scripts.CallHook(toScriptId(id), "on_death")
		}
		return true
	})
}

func (e *Engine) updateScripts(dt float32) {
	for _, id := range e.Scripts.ScriptedEntities() {
		e.Scripts.CallHook(id, "update", lua.LNumber(dt))
	}
}

func (e *Engine) drainCommandQueue() {
	q := e.Scripts.Queue.Drain()

	for _, id := range q.Destroys {
		entity := fromScriptId(id)
		if !e.World.Ecs.Exists(entity) {
			continue
		}
		e.Scripts.CallHook(id, "on_destroy")
		e.Scripts.Unload(id)
		e.World.DestroyEntity(entity)
	}
	for _, s := range q.Spawns {
		meshH, _ := e.World.Assets.LoadMesh(s.Mesh)
		matH, _ := e.World.Assets.LoadMaterial(s.Material)
		t := IdentityTransform()
		t.Position = s.Position
		newId := e.World.SpawnRuntimeEntity(s.Id, t, meshH, matH, s.Script)
		if s.Script != "" {
			code, err := readScriptSource(e.ProjectRoot, s.Script)
			if err == nil {
				name, _ := e.World.NameOf(newId)
				if err := e.Scripts.LoadScript(toScriptId(newId), name, s.Script, code); err == nil {
					e.Scripts.RunInit(toScriptId(newId))
				}
			}
		}
	}
	for _, ps := range q.ProjectileSpawns {
		meshH, _ := e.World.Assets.LoadMesh(ps.Mesh)
		matH, _ := e.World.Assets.LoadMaterial(ps.Material)
		t := IdentityTransform()
		t.Position = ps.Position
		if _, err := e.World.SpawnProjectile(ps.Id, t, meshH, matH, ps.Velocity, ps.Damage, ps.Lifetime, fromScriptId(ps.Owner), ps.HasOwner); err != nil {
			e.Log.Warnf("spawn projectile: %v", err)
		}
	}
	for _, ds := range q.DynamicSpawns {
		meshH, _ := e.World.Assets.LoadMesh(ds.Mesh)
		matH, _ := e.World.Assets.LoadMaterial(ds.Material)
		t := IdentityTransform()
		t.Position = ds.Position
		e.World.SpawnDynamicEntity(ds.Id, t, meshH, matH, ds.Mass)
	}
	for _, pr := range q.PoolReleases {
		if pooled := GetComponent[Pooled](e.World.Ecs, fromScriptId(pr.Entity)); pooled != nil {
			pooled.Active = false
		}
	}
	for _, sc := range q.Scales {
		if t := GetComponent[Transform](e.World.Ecs, fromScriptId(sc.Entity)); t != nil {
			t.Scale = sc.Scale
			t.Dirty = true
		}
	}
	for _, v := range q.Visibilities {
		id := fromScriptId(v.Entity)
		hasHidden := HasComponent[Hidden](e.World.Ecs, id)
		if v.Visible && hasHidden {
			e.World.Ecs.removeComponents(id, Hidden{})
		} else if !v.Visible && !hasHidden {
			e.World.Ecs.addComponents(id, Hidden{})
		}
	}

	if q.PendingSceneLoad != "" {
		e.pendingSceneLoad = q.PendingSceneLoad
	}
}

func (e *Engine) processPendingSceneLoad() {
	if e.pendingSceneLoad == "" {
		return
	}
	path := e.pendingSceneLoad
	e.pendingSceneLoad = ""

	for _, id := range e.Scripts.ScriptedEntities() {
		e.Scripts.CallHook(id, "on_destroy")
		e.Scripts.Unload(id)
	}
	e.Scripts.ClearListeners()
	e.particles.Reset()

	e.World.Ecs.Reset()
	e.World.registry = map[string]EntityId{}
	e.World.byEntity = map[EntityId]string{}
	e.World.CurrentScene = nil
	e.shake = cameraShakeState{}

	if err := e.LoadScene(path); err != nil {
		e.Log.Warnf("scene load %s: %v", path, err)
	}
}

func (e *Engine) tickEventBus() {
	for _, ev := range e.Events.Flush() {
		e.Scripts.DispatchEvent(ev.Name, ev.Payload)
	}
}

func (e *Engine) updateParticlesAndAudio(dt float32) {
	e.particles.Update(dt, MakeQuery2[Transform, ParticleEmitter](e.World.Ecs))

	camQ := MakeQuery2[Transform, Camera](e.World.Ecs)
	camQ.Map(func(id EntityId, t *Transform, cam *Camera) bool {
		if cam.Role != CameraRoleMain {
			return true
		}
		e.audio.SetListenerPosition(t.Position.X(), t.Position.Y(), t.Position.Z())
		return false
	})

	e.ui.AgeFlashes(dt)
}

func (e *Engine) updateCameraState(dt float32) {
	e.shake.remaining -= dt
	if e.shake.remaining < 0 {
		e.shake.remaining = 0
	}

	q := MakeQuery3[Player, Camera, CameraMode](e.World.Ecs)
	q.Map(func(id EntityId, p *Player, cam *Camera, mode *CameraMode) bool {
		if cam.Role != CameraRoleMain {
			return true
		}
		t := GetComponent[Transform](e.World.Ecs, id)
		if t == nil || mode.Mode != CameraThirdPerson {
			return true
		}
		desired := mode.OrbitDistance
		origin := t.Position.Add(mgl32.Vec3{0, mode.HeightOffset, 0})
		pitchRad := float64(mgl32.DegToRad(p.Pitch))
		yawRad := float64(mgl32.DegToRad(p.Yaw))
		dir := mgl32.Vec3{
			float32(math.Sin(yawRad)) * float32(math.Cos(pitchRad)),
			float32(math.Sin(pitchRad)),
			float32(math.Cos(yawRad)) * float32(math.Cos(pitchRad)),
		}
		hit, ok := e.World.Physics.Raycast(origin, dir.Mul(-1), desired, &id)
		if ok {
			mode.currentDistance = hit.Toi
		} else {
			mode.currentDistance += (desired - mode.currentDistance) * 0.1
		}
		return true
	})
}

func (e *Engine) renderFrame() {
	defer e.ui.ClearDraws()
	if e.Pipeline == nil {
		return
	}
	frame := e.buildFrameInputs()
	if err := e.Pipeline.Execute(frame); err != nil {
		e.Log.Warnf("render execute: %v", err)
	}
}

// buildFrameInputs extracts every render-relevant entity into the render
// package's decoupled value types (§4.2.3): draws, point lights (capped),
// the single directional light, and splats, ready for sorting and execution.
func (e *Engine) buildFrameInputs() render.FrameInputs {
	var frame render.FrameInputs

	if e.meshGpu == nil && e.Gpu != nil {
		e.meshGpu = NewMeshGpuCache(e.Gpu.Device)
	}

	drawQ := MakeQuery2[Transform, MeshRenderer](e.World.Ecs)
	drawQ.Map(func(id EntityId, t *Transform, mr *MeshRenderer) bool {
		mesh, ok := e.World.Assets.Meshes.Get(uint32(mr.Mesh))
		if !ok {
			return true
		}
		mat, _ := e.World.Assets.Materials.Get(uint32(mr.Material))
		item := render.DrawItem{
			Model:        t.WorldMatrix,
			NormalMatrix: t.WorldMatrix.Mat3().Inv().Transpose(),
			BaseColor:    mat.BaseColor,
			Roughness:    mat.Roughness,
			Metallic:     mat.Metallic,
			Emission:     mat.Emission,
			Hidden:       HasComponent[Hidden](e.World.Ecs, id),
		}
		if e.meshGpu != nil {
			item.VertexBuffer, item.IndexBuffer, item.IndexCount = e.meshGpu.Get(uint32(mr.Mesh), mesh)
		}
		if ov := GetComponent[MaterialOverride](e.World.Ecs, id); ov != nil {
			if ov.BaseColor != nil {
				item.BaseColor = *ov.BaseColor
			}
			if ov.Roughness != nil {
				item.Roughness = *ov.Roughness
			}
			if ov.Metallic != nil {
				item.Metallic = *ov.Metallic
			}
			if ov.Emission != nil {
				item.Emission = *ov.Emission
			}
		}
		frame.Draws = append(frame.Draws, item)
		return true
	})

	lightQ := MakeQuery2[Transform, PointLight](e.World.Ecs)
	lightQ.Map(func(id EntityId, t *Transform, pl *PointLight) bool {
		if len(frame.PointLights) >= render.MaxPointLights {
			return false
		}
		frame.PointLights = append(frame.PointLights, render.PointLightItem{
			Position: t.Position, Color: pl.Color, Intensity: pl.Intensity, Range: pl.Range,
		})
		return true
	})

	dirQ := MakeQuery1[DirectionalLight](e.World.Ecs)
	dirQ.Map(func(id EntityId, dl *DirectionalLight) bool {
		if frame.DirectionalLight != nil {
			return false
		}
		frame.DirectionalLight = &render.DirectionalLightItem{
			Direction: dl.Direction, Color: dl.Color, Intensity: dl.Intensity, ShadowHalfExtent: dl.ShadowHalfExtent,
		}
		return true
	})

	splatQ := MakeQuery2[Transform, GaussianSplat](e.World.Ecs)
	splatQ.Map(func(id EntityId, t *Transform, gs *GaussianSplat) bool {
		splat, ok := e.World.Assets.Splats.Get(uint32(gs.Splat))
		if !ok {
			return true
		}
		frame.Splats = append(frame.Splats, render.SplatItem{Positions: splat.Positions, Count: len(splat.Positions)})
		return true
	})

	camQ := MakeQuery2[Transform, Camera](e.World.Ecs)
	camQ.Map(func(id EntityId, t *Transform, cam *Camera) bool {
		if cam.Role != CameraRoleMain {
			return true
		}
		frame.ViewMatrix = t.WorldMatrix.Inv()
		frame.ProjMatrix = mgl32.Perspective(mgl32.DegToRad(cam.Fov), cam.Aspect, cam.Near, cam.Far)
		return false
	})

	return frame
}
