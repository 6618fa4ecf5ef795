package naive

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/naive-engine/naive/script"
)

// engineScriptHost is the Engine-backed implementation of script.Host: every
// non-structural API call a script makes (get/set transform, point light,
// material override, input queries, raycasts, UI draw calls, audio, camera
// projection) resolves here. Structural mutations never reach this type —
// they're appended to Scripts.Queue by api.go and drained by Engine instead.
type engineScriptHost struct {
	e *Engine
}

func (h *engineScriptHost) Log(msg string) { h.e.Log.Infof("script: %s", msg) }

func (h *engineScriptHost) InputPressed(action string) bool {
	if h.e.Input == nil {
		return false
	}
	return h.e.Input.Pressed(action)
}

func (h *engineScriptHost) InputJustPressed(action string) bool {
	if h.e.Input == nil {
		return false
	}
	return h.e.Input.JustPressed(action)
}

func (h *engineScriptHost) InputJustReleased(action string) bool {
	if h.e.Input == nil {
		return false
	}
	return h.e.Input.JustReleased(action)
}

func (h *engineScriptHost) InputMouseDelta() (float32, float32) {
	if h.e.Input == nil {
		return 0, 0
	}
	return h.e.Input.MouseDelta()
}

func (h *engineScriptHost) InputAxis(name string) float32 {
	if h.e.Input == nil {
		return 0
	}
	return h.e.Input.Axis(name)
}

func (h *engineScriptHost) PhysicsRaycast(origin, dir mgl32.Vec3, maxDist float32, excludeId script.EntityId, hasExclude bool) (bool, float32, mgl32.Vec3) {
	var exclude *EntityId
	if hasExclude {
		id := fromScriptId(excludeId)
		exclude = &id
	}
	hit, ok := h.e.World.Physics.Raycast(origin, dir, maxDist, exclude)
	if !ok {
		return false, 0, mgl32.Vec3{}
	}
	return true, hit.Toi, hit.Normal
}

func (h *engineScriptHost) EntityExists(id script.EntityId) bool {
	return h.e.World.Ecs.Exists(fromScriptId(id))
}

func (h *engineScriptHost) EntityGetTransform(id script.EntityId) (mgl32.Vec3, mgl32.Vec3, bool) {
	t := GetComponent[Transform](h.e.World.Ecs, fromScriptId(id))
	if t == nil {
		return mgl32.Vec3{}, mgl32.Vec3{}, false
	}
	return t.Position, quatToEulerDeg(t.Rotation), true
}

func (h *engineScriptHost) EntitySetTransform(id script.EntityId, pos, eulerDeg mgl32.Vec3) {
	t := GetComponent[Transform](h.e.World.Ecs, fromScriptId(id))
	if t == nil {
		return
	}
	t.Position = pos
	t.Rotation = eulerDegToQuat([]float32{eulerDeg.X(), eulerDeg.Y(), eulerDeg.Z()})
	t.Dirty = true
}

func (h *engineScriptHost) EntityGetScale(id script.EntityId) (mgl32.Vec3, bool) {
	t := GetComponent[Transform](h.e.World.Ecs, fromScriptId(id))
	if t == nil {
		return mgl32.Vec3{}, false
	}
	return t.Scale, true
}

func (h *engineScriptHost) EntityGetPointLight(id script.EntityId) ([3]float32, float32, bool) {
	pl := GetComponent[PointLight](h.e.World.Ecs, fromScriptId(id))
	if pl == nil {
		return [3]float32{}, 0, false
	}
	return pl.Color, pl.Intensity, true
}

func (h *engineScriptHost) EntitySetPointLight(id script.EntityId, color [3]float32, intensity float32) {
	pl := GetComponent[PointLight](h.e.World.Ecs, fromScriptId(id))
	if pl == nil {
		return
	}
	pl.Color = color
	pl.Intensity = intensity
}

func (h *engineScriptHost) EntityGetMaterialOverride(id script.EntityId) ([4]float32, float32, float32, [3]float32, bool) {
	ov := GetComponent[MaterialOverride](h.e.World.Ecs, fromScriptId(id))
	if ov == nil {
		return [4]float32{}, 0, 0, [3]float32{}, false
	}
	var base [4]float32
	if ov.BaseColor != nil {
		base = *ov.BaseColor
	}
	var rough, metal float32
	if ov.Roughness != nil {
		rough = *ov.Roughness
	}
	if ov.Metallic != nil {
		metal = *ov.Metallic
	}
	var emission [3]float32
	if ov.Emission != nil {
		emission = *ov.Emission
	}
	return base, rough, metal, emission, true
}

func (h *engineScriptHost) EntitySetMaterialOverride(id script.EntityId, baseColor [4]float32, roughness, metallic float32, emission [3]float32) {
	entity := fromScriptId(id)
	ov := GetComponent[MaterialOverride](h.e.World.Ecs, entity)
	if ov == nil {
		h.e.World.Ecs.addComponents(entity, MaterialOverride{})
		ov = GetComponent[MaterialOverride](h.e.World.Ecs, entity)
	}
	ov.BaseColor = &baseColor
	ov.Roughness = &roughness
	ov.Metallic = &metallic
	ov.Emission = &emission
}

// EntityDestroyByPrefix is structural, but driven synchronously from a
// script-land string match rather than a per-entity command: resolve the
// matching set here, then enqueue each one the usual deferred way.
func (h *engineScriptHost) EntityDestroyByPrefix(prefix string) int {
	n := 0
	for id, name := range h.e.World.byEntity {
		if strings.HasPrefix(name, prefix) {
			h.e.enqueueDestroy(id)
			n++
		}
	}
	return n
}

func (h *engineScriptHost) CameraWorldToScreen(pos mgl32.Vec3) (float32, float32, bool) {
	frame := h.e.buildFrameInputs()
	if h.e.Gpu == nil {
		return 0, 0, false
	}
	clip := frame.ProjMatrix.Mul4(frame.ViewMatrix).Mul4x1(mgl32.Vec4{pos.X(), pos.Y(), pos.Z(), 1})
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	x := (ndcX*0.5 + 0.5) * float32(h.e.Gpu.Width)
	y := (1 - (ndcY*0.5 + 0.5)) * float32(h.e.Gpu.Height)
	visible := ndcX >= -1 && ndcX <= 1 && ndcY >= -1 && ndcY <= 1
	return x, y, visible
}

func (h *engineScriptHost) UiText(x, y float32, text string)                  { h.e.ui.Text(x, y, text) }
func (h *engineScriptHost) UiRect(x, y, w, hh float32, color [4]float32)      { h.e.ui.Rect(x, y, w, hh, color) }
func (h *engineScriptHost) UiScreenFlash(color [4]float32, duration float32) { h.e.ui.Flash(color, duration) }
func (h *engineScriptHost) UiMeasureText(text string) (float32, float32)     { return h.e.ui.MeasureText(text) }
func (h *engineScriptHost) UiScreenDimensions() (float32, float32) {
	if h.e.Gpu == nil {
		return 0, 0
	}
	return float32(h.e.Gpu.Width), float32(h.e.Gpu.Height)
}

func (h *engineScriptHost) EventsEmit(name string, payload map[string]any) {
	h.e.Events.Emit(name, payload)
}

func (h *engineScriptHost) AudioPlay(id, clip string, volume, fadeIn float32, isMusic bool) {
	h.e.audio.Play(id, clip, volume, fadeIn, isMusic)
}

func (h *engineScriptHost) AudioStop(id string, fadeOut float32) {
	h.e.audio.Stop(id, fadeOut)
}

// quatToEulerDeg extracts XYZ intrinsic Tait-Bryan angles in degrees,
// matching eulerDegToQuat's AnglesToQuat(z,y,x, ZYX) convention.
func quatToEulerDeg(q mgl32.Quat) mgl32.Vec3 {
	w, x, y, z := q.W, q.V.X(), q.V.Y(), q.V.Z()

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll := math.Atan2(float64(sinrCosp), float64(cosrCosp))

	sinp := 2 * (w*y - z*x)
	var pitch float64
	if sinp >= 1 {
		pitch = math.Pi / 2
	} else if sinp <= -1 {
		pitch = -math.Pi / 2
	} else {
		pitch = math.Asin(float64(sinp))
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw := math.Atan2(float64(sinyCosp), float64(cosyCosp))

	return mgl32.Vec3{
		mgl32.RadToDeg(float32(roll)),
		mgl32.RadToDeg(float32(pitch)),
		mgl32.RadToDeg(float32(yaw)),
	}
}
