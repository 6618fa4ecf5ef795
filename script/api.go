package script

import (
	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"
)

func (r *Runtime) SetHost(h Host) { r.host = h }

// installApi wires every engine API namespace (§4.4.3) onto r.globals, the
// table every entity environment inherits from via __index. Namespaces that
// can structurally mutate the world (spawn/destroy/scene-load/pool-release)
// append to the command queue instead of calling the host directly (§4.4.4).
func (r *Runtime) installApi() {
	L := r.L

	logFn := L.NewFunction(func(l *lua.LState) int {
		r.apiLog(l.ToString(1))
		return 0
	})
	r.globals.RawSetString("log", logFn)
	r.globals.RawSetString("print", logFn)

	mathNS := L.NewTable()
	mathNS.RawSetString("lerp", L.NewFunction(func(l *lua.LState) int {
		a, b, t := float32(l.ToNumber(1)), float32(l.ToNumber(2)), float32(l.ToNumber(3))
		l.Push(lua.LNumber(a + (b-a)*t))
		return 1
	}))
	mathNS.RawSetString("clamp", L.NewFunction(func(l *lua.LState) int {
		v, lo, hi := float32(l.ToNumber(1)), float32(l.ToNumber(2)), float32(l.ToNumber(3))
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		l.Push(lua.LNumber(v))
		return 1
	}))
	r.globals.RawSetString("math_ext", mathNS)

	input := L.NewTable()
	input.RawSetString("pressed", L.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.host.InputPressed(l.ToString(1))))
		return 1
	}))
	input.RawSetString("just_pressed", L.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.host.InputJustPressed(l.ToString(1))))
		return 1
	}))
	input.RawSetString("just_released", L.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.host.InputJustReleased(l.ToString(1))))
		return 1
	}))
	input.RawSetString("mouse_delta", L.NewFunction(func(l *lua.LState) int {
		dx, dy := r.host.InputMouseDelta()
		l.Push(lua.LNumber(dx))
		l.Push(lua.LNumber(dy))
		return 2
	}))
	input.RawSetString("axis", L.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LNumber(r.host.InputAxis(l.ToString(1))))
		return 1
	}))
	r.globals.RawSetString("input", input)

	physicsNS := L.NewTable()
	physicsNS.RawSetString("raycast", L.NewFunction(func(l *lua.LState) int {
		origin := vecArg(l, 1)
		dir := vecArg(l, 4)
		maxDist := float32(l.ToNumber(7))
		hit, dist, normal := r.host.PhysicsRaycast(origin, dir, maxDist, 0, false)
		l.Push(lua.LBool(hit))
		l.Push(lua.LNumber(dist))
		pushVec(l, normal)
		return 5
	}))
	r.globals.RawSetString("physics", physicsNS)

	entity := L.NewTable()
	entity.RawSetString("exists", L.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.host.EntityExists(EntityId(l.ToInt64(1)))))
		return 1
	}))
	entity.RawSetString("get_transform", L.NewFunction(func(l *lua.LState) int {
		pos, euler, ok := r.host.EntityGetTransform(EntityId(l.ToInt64(1)))
		if !ok {
			l.Push(lua.LBool(false))
			return 1
		}
		l.Push(lua.LBool(true))
		pushVec(l, pos)
		pushVec(l, euler)
		return 7
	}))
	entity.RawSetString("set_transform", L.NewFunction(func(l *lua.LState) int {
		id := EntityId(l.ToInt64(1))
		pos := vecArg(l, 2)
		euler := vecArg(l, 5)
		r.host.EntitySetTransform(id, pos, euler)
		return 0
	}))
	entity.RawSetString("set_visible", L.NewFunction(func(l *lua.LState) int {
		r.Queue.Visibilities = append(r.Queue.Visibilities, VisibilityCommand{
			Entity: EntityId(l.ToInt64(1)), Visible: l.ToBool(2),
		})
		return 0
	}))
	entity.RawSetString("set_scale", L.NewFunction(func(l *lua.LState) int {
		r.Queue.Scales = append(r.Queue.Scales, ScaleCommand{
			Entity: EntityId(l.ToInt64(1)), Scale: vecArg(l, 2),
		})
		return 0
	}))
	entity.RawSetString("get_scale", L.NewFunction(func(l *lua.LState) int {
		scale, ok := r.host.EntityGetScale(EntityId(l.ToInt64(1)))
		if !ok {
			l.Push(lua.LBool(false))
			return 1
		}
		l.Push(lua.LBool(true))
		pushVec(l, scale)
		return 4
	}))
	entity.RawSetString("get_point_light", L.NewFunction(func(l *lua.LState) int {
		color, intensity, ok := r.host.EntityGetPointLight(EntityId(l.ToInt64(1)))
		if !ok {
			l.Push(lua.LBool(false))
			return 1
		}
		l.Push(lua.LBool(true))
		l.Push(lua.LNumber(color[0]))
		l.Push(lua.LNumber(color[1]))
		l.Push(lua.LNumber(color[2]))
		l.Push(lua.LNumber(intensity))
		return 5
	}))
	entity.RawSetString("set_point_light", L.NewFunction(func(l *lua.LState) int {
		id := EntityId(l.ToInt64(1))
		color := [3]float32{float32(l.ToNumber(2)), float32(l.ToNumber(3)), float32(l.ToNumber(4))}
		r.host.EntitySetPointLight(id, color, float32(l.ToNumber(5)))
		return 0
	}))
	entity.RawSetString("set_material_override", L.NewFunction(func(l *lua.LState) int {
		id := EntityId(l.ToInt64(1))
		base := [4]float32{float32(l.ToNumber(2)), float32(l.ToNumber(3)), float32(l.ToNumber(4)), float32(l.ToNumber(5))}
		emission := [3]float32{float32(l.ToNumber(8)), float32(l.ToNumber(9)), float32(l.ToNumber(10))}
		r.host.EntitySetMaterialOverride(id, base, float32(l.ToNumber(6)), float32(l.ToNumber(7)), emission)
		return 0
	}))
	entity.RawSetString("get_material_override", L.NewFunction(func(l *lua.LState) int {
		base, roughness, metallic, emission, ok := r.host.EntityGetMaterialOverride(EntityId(l.ToInt64(1)))
		if !ok {
			l.Push(lua.LBool(false))
			return 1
		}
		l.Push(lua.LBool(true))
		l.Push(lua.LNumber(base[0]))
		l.Push(lua.LNumber(base[1]))
		l.Push(lua.LNumber(base[2]))
		l.Push(lua.LNumber(base[3]))
		l.Push(lua.LNumber(roughness))
		l.Push(lua.LNumber(metallic))
		l.Push(lua.LNumber(emission[0]))
		l.Push(lua.LNumber(emission[1]))
		l.Push(lua.LNumber(emission[2]))
		return 10
	}))
	entity.RawSetString("spawn", L.NewFunction(func(l *lua.LState) int {
		r.Queue.Spawns = append(r.Queue.Spawns, SpawnCommand{
			Id: l.ToString(1), Position: vecArg(l, 2), Mesh: l.ToString(5), Material: l.ToString(6), Script: l.ToString(7),
		})
		return 0
	}))
	entity.RawSetString("spawn_projectile", L.NewFunction(func(l *lua.LState) int {
		cmd := ProjectileSpawnCommand{
			Id: l.ToString(1), Position: vecArg(l, 2), Velocity: vecArg(l, 5),
			Mesh: l.ToString(8), Material: l.ToString(9),
			Damage: float32(l.ToNumber(10)), Lifetime: float32(l.ToNumber(11)),
		}
		if l.GetTop() >= 12 {
			cmd.Owner = EntityId(l.ToInt64(12))
			cmd.HasOwner = true
		}
		r.Queue.ProjectileSpawns = append(r.Queue.ProjectileSpawns, cmd)
		return 0
	}))
	entity.RawSetString("spawn_dynamic", L.NewFunction(func(l *lua.LState) int {
		r.Queue.DynamicSpawns = append(r.Queue.DynamicSpawns, DynamicSpawnCommand{
			Id: l.ToString(1), Position: vecArg(l, 2), Mesh: l.ToString(5), Material: l.ToString(6), Mass: float32(l.ToNumber(7)),
		})
		return 0
	}))
	entity.RawSetString("release_to_pool", L.NewFunction(func(l *lua.LState) int {
		r.Queue.PoolReleases = append(r.Queue.PoolReleases, PoolReleaseCommand{
			Pool: l.ToString(1), Entity: EntityId(l.ToInt64(2)),
		})
		return 0
	}))
	entity.RawSetString("destroy", L.NewFunction(func(l *lua.LState) int {
		r.Queue.Destroys = append(r.Queue.Destroys, EntityId(l.ToInt64(1)))
		return 0
	}))
	entity.RawSetString("destroy_by_prefix", L.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LNumber(r.host.EntityDestroyByPrefix(l.ToString(1))))
		return 1
	}))
	r.globals.RawSetString("entity", entity)

	camera := L.NewTable()
	camera.RawSetString("world_to_screen", L.NewFunction(func(l *lua.LState) int {
		x, y, visible := r.host.CameraWorldToScreen(vecArg(l, 1))
		l.Push(lua.LNumber(x))
		l.Push(lua.LNumber(y))
		l.Push(lua.LBool(visible))
		return 3
	}))
	r.globals.RawSetString("camera", camera)

	ui := L.NewTable()
	ui.RawSetString("text", L.NewFunction(func(l *lua.LState) int {
		r.host.UiText(float32(l.ToNumber(1)), float32(l.ToNumber(2)), l.ToString(3))
		return 0
	}))
	ui.RawSetString("rect", L.NewFunction(func(l *lua.LState) int {
		color := [4]float32{float32(l.ToNumber(5)), float32(l.ToNumber(6)), float32(l.ToNumber(7)), float32(l.ToNumber(8))}
		r.host.UiRect(float32(l.ToNumber(1)), float32(l.ToNumber(2)), float32(l.ToNumber(3)), float32(l.ToNumber(4)), color)
		return 0
	}))
	ui.RawSetString("screen_flash", L.NewFunction(func(l *lua.LState) int {
		color := [4]float32{float32(l.ToNumber(1)), float32(l.ToNumber(2)), float32(l.ToNumber(3)), float32(l.ToNumber(4))}
		r.host.UiScreenFlash(color, float32(l.ToNumber(5)))
		return 0
	}))
	ui.RawSetString("measure_text", L.NewFunction(func(l *lua.LState) int {
		w, h := r.host.UiMeasureText(l.ToString(1))
		l.Push(lua.LNumber(w))
		l.Push(lua.LNumber(h))
		return 2
	}))
	ui.RawSetString("screen_dimensions", L.NewFunction(func(l *lua.LState) int {
		w, h := r.host.UiScreenDimensions()
		l.Push(lua.LNumber(w))
		l.Push(lua.LNumber(h))
		return 2
	}))
	r.globals.RawSetString("ui", ui)

	events := L.NewTable()
	events.RawSetString("emit", L.NewFunction(func(l *lua.LState) int {
		var payload map[string]any
		if tbl, ok := l.Get(2).(*lua.LTable); ok {
			payload = luaTableToMap(tbl)
		}
		r.host.EventsEmit(l.ToString(1), payload)
		return 0
	}))
	events.RawSetString("listen", L.NewFunction(func(l *lua.LState) int {
		name := l.ToString(1)
		fn := l.Get(2)
		r.listeners[name] = append(r.listeners[name], fn)
		return 0
	}))
	events.RawSetString("unlisten", L.NewFunction(func(l *lua.LState) int {
		delete(r.listeners, l.ToString(1))
		return 0
	}))
	r.globals.RawSetString("events", events)

	audio := L.NewTable()
	audio.RawSetString("play", L.NewFunction(func(l *lua.LState) int {
		r.host.AudioPlay(l.ToString(1), l.ToString(2), float32(l.ToNumber(3)), float32(l.ToNumber(4)), l.ToBool(5))
		return 0
	}))
	audio.RawSetString("stop", L.NewFunction(func(l *lua.LState) int {
		r.host.AudioStop(l.ToString(1), float32(l.ToNumber(2)))
		return 0
	}))
	r.globals.RawSetString("audio", audio)

	scene := L.NewTable()
	scene.RawSetString("load", L.NewFunction(func(l *lua.LState) int {
		r.Queue.PendingSceneLoad = l.ToString(1)
		return 0
	}))
	r.globals.RawSetString("scene", scene)

	r.globals.RawSetString("game", L.NewTable())
}

func (r *Runtime) apiLog(msg string) {
	if r.host != nil {
		r.host.Log(msg)
	} else {
		r.logf("%s", msg)
	}
}

func vecArg(l *lua.LState, start int) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(l.ToNumber(start)),
		float32(l.ToNumber(start + 1)),
		float32(l.ToNumber(start + 2)),
	}
}

func pushVec(l *lua.LState, v mgl32.Vec3) {
	l.Push(lua.LNumber(v.X()))
	l.Push(lua.LNumber(v.Y()))
	l.Push(lua.LNumber(v.Z()))
}

// DispatchEvent invokes every Lua listener registered for name (§4.4.3
// events.listen), called once per flushed event from the engine's event bus
// (step 13 of the frame loop). Each listener receives a single {type, data}
// table carrying the event name and whatever payload events.emit passed.
func (r *Runtime) DispatchEvent(name string, payload map[string]any) {
	listeners := r.listeners[name]
	if len(listeners) == 0 {
		return
	}
	evt := r.L.NewTable()
	evt.RawSetString("type", lua.LString(name))
	evt.RawSetString("data", goValueToLua(r.L, payload))
	for _, fn := range listeners {
		if err := r.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, evt); err != nil {
			r.logf("event listener %s: %v", name, err)
		}
	}
}

// luaTableToMap and goValueToLua round-trip events.emit payloads between Lua
// tables and the map[string]any the engine's event bus (events.go) carries,
// so a payload survives the Go-side Event.Payload hop intact.
func luaTableToMap(t *lua.LTable) map[string]any {
	m := map[string]any{}
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = luaValueToGo(v)
	})
	return m
}

func luaValueToGo(v lua.LValue) any {
	switch vv := v.(type) {
	case lua.LBool:
		return bool(vv)
	case lua.LNumber:
		return float64(vv)
	case lua.LString:
		return string(vv)
	case *lua.LTable:
		return luaTableToMap(vv)
	default:
		return nil
	}
}

func goValueToLua(L *lua.LState, v any) lua.LValue {
	switch vv := v.(type) {
	case bool:
		return lua.LBool(vv)
	case string:
		return lua.LString(vv)
	case float64:
		return lua.LNumber(vv)
	case float32:
		return lua.LNumber(vv)
	case int:
		return lua.LNumber(vv)
	case map[string]any:
		tbl := L.NewTable()
		for k, val := range vv {
			tbl.RawSetString(k, goValueToLua(L, val))
		}
		return tbl
	default:
		return lua.LNil
	}
}
