package script

import "github.com/go-gl/mathgl/mgl32"

// Host is the engine-side implementation the API namespaces delegate to.
// Keeping it as an interface lets the script package stay free of the ECS,
// physics and renderer packages it would otherwise have to import.
type Host interface {
	Log(msg string)

	InputPressed(action string) bool
	InputJustPressed(action string) bool
	InputJustReleased(action string) bool
	InputMouseDelta() (dx, dy float32)
	InputAxis(name string) float32

	PhysicsRaycast(origin, dir mgl32.Vec3, maxDist float32, excludeId EntityId, hasExclude bool) (hit bool, distance float32, normal mgl32.Vec3)

	EntityExists(id EntityId) bool
	EntityGetTransform(id EntityId) (pos mgl32.Vec3, eulerDeg mgl32.Vec3, ok bool)
	EntitySetTransform(id EntityId, pos mgl32.Vec3, eulerDeg mgl32.Vec3)
	EntityGetScale(id EntityId) (mgl32.Vec3, bool)
	EntityGetPointLight(id EntityId) (color [3]float32, intensity float32, ok bool)
	EntitySetPointLight(id EntityId, color [3]float32, intensity float32)
	EntityGetMaterialOverride(id EntityId) (baseColor [4]float32, roughness, metallic float32, emission [3]float32, ok bool)
	EntitySetMaterialOverride(id EntityId, baseColor [4]float32, roughness, metallic float32, emission [3]float32)
	EntityDestroyByPrefix(prefix string) int

	CameraWorldToScreen(pos mgl32.Vec3) (x, y float32, visible bool)

	UiText(x, y float32, text string)
	UiRect(x, y, w, h float32, color [4]float32)
	UiScreenFlash(color [4]float32, duration float32)
	UiMeasureText(text string) (w, h float32)
	UiScreenDimensions() (w, h float32)

	EventsEmit(name string, payload map[string]any)

	AudioPlay(id, clip string, volume, fadeIn float32, isMusic bool)
	AudioStop(id string, fadeOut float32)
}

// NopHost is a Host that does nothing; useful for headless test runs whose
// scripts don't exercise engine-facing API calls.
type NopHost struct{}

func (NopHost) Log(string)                                                            {}
func (NopHost) InputPressed(string) bool                                              { return false }
func (NopHost) InputJustPressed(string) bool                                          { return false }
func (NopHost) InputJustReleased(string) bool                                         { return false }
func (NopHost) InputMouseDelta() (float32, float32)                                    { return 0, 0 }
func (NopHost) InputAxis(string) float32                                              { return 0 }
func (NopHost) PhysicsRaycast(mgl32.Vec3, mgl32.Vec3, float32, EntityId, bool) (bool, float32, mgl32.Vec3) {
	return false, 0, mgl32.Vec3{}
}
func (NopHost) EntityExists(EntityId) bool { return false }
func (NopHost) EntityGetTransform(EntityId) (mgl32.Vec3, mgl32.Vec3, bool) {
	return mgl32.Vec3{}, mgl32.Vec3{}, false
}
func (NopHost) EntitySetTransform(EntityId, mgl32.Vec3, mgl32.Vec3) {}
func (NopHost) EntityGetScale(EntityId) (mgl32.Vec3, bool) { return mgl32.Vec3{}, false }
func (NopHost) EntityGetPointLight(EntityId) ([3]float32, float32, bool) {
	return [3]float32{}, 0, false
}
func (NopHost) EntitySetPointLight(EntityId, [3]float32, float32) {}
func (NopHost) EntityGetMaterialOverride(EntityId) ([4]float32, float32, float32, [3]float32, bool) {
	return [4]float32{}, 0, 0, [3]float32{}, false
}
func (NopHost) EntitySetMaterialOverride(EntityId, [4]float32, float32, float32, [3]float32) {}
func (NopHost) EntityDestroyByPrefix(string) int                                            { return 0 }
func (NopHost) CameraWorldToScreen(mgl32.Vec3) (float32, float32, bool)                      { return 0, 0, false }
func (NopHost) UiText(float32, float32, string)                                             {}
func (NopHost) UiRect(float32, float32, float32, float32, [4]float32)                        {}
func (NopHost) UiScreenFlash([4]float32, float32)                                            {}
func (NopHost) UiMeasureText(string) (float32, float32)                                      { return 0, 0 }
func (NopHost) UiScreenDimensions() (float32, float32)                                       { return 0, 0 }
func (NopHost) EventsEmit(string, map[string]any)                                            {}
func (NopHost) AudioPlay(string, string, float32, float32, bool)                             {}
func (NopHost) AudioStop(string, float32)                                                    {}
