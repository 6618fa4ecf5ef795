// Package script implements the sandboxed per-entity Lua scripting bridge:
// one shared VM, per-entity environment tables inheriting shared globals,
// documented lifecycle hooks, and a deferred command queue that funnels
// every structural mutation through a single per-frame drain point.
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// EntityId mirrors the engine's entity handle without importing the ECS
// package, keeping script decoupled from the component store's internals.
type EntityId uint64

type entityEnv struct {
	table       *lua.LTable
	source      string
	initialized bool
}

// Runtime owns the single Lua VM, every entity's environment table, and the
// command queue scripts append to instead of mutating the world directly.
type Runtime struct {
	L       *lua.LState
	Queue   *CommandQueue
	Log     func(format string, args ...any)

	envs          map[EntityId]*entityEnv
	scriptSources map[string]string
	globals       *lua.LTable
	host          Host
	listeners     map[string][]lua.LValue
}

func NewRuntime(logf func(format string, args ...any)) *Runtime {
	L := lua.NewState(lua.Options{SkipOpenLibs: false})

	// Sandbox: nil out OS/filesystem/dynamic-load surfaces (§4.4.1).
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("load", lua.LNil)

	r := &Runtime{
		L:             L,
		Queue:         NewCommandQueue(),
		Log:           logf,
		envs:          map[EntityId]*entityEnv{},
		scriptSources: map[string]string{},
		globals:       L.NewTable(),
		host:          NopHost{},
		listeners:     map[string][]lua.LValue{},
	}
	// Shared globals fall back to the VM's own global table, so scripts see
	// the standard library minus the surfaces removed above.
	globalsMeta := L.NewTable()
	globalsMeta.RawSetString("__index", L.G.Global)
	L.SetMetatable(r.globals, globalsMeta)
	r.installApi()
	return r
}

// LoadScript reads source, compiles it in a fresh environment inheriting the
// shared globals via __index, and registers (but does not yet run init) the
// entity's environment. stringId is the entity's scene name registry entry
// (§4.1); it may be empty for anonymous runtime spawns.
func (r *Runtime) LoadScript(id EntityId, stringId, source, code string) error {
	env := r.newEnvironment(id, stringId)
	if err := r.runInEnv(env.table, code, source); err != nil {
		return fmt.Errorf("load script %s: %w", source, err)
	}
	env.source = source
	r.scriptSources[source] = code
	r.envs[id] = env
	return nil
}

// newEnvironment builds the table a script's init/update/on_* hooks run in.
// Per §4.4.1 it holds the entity's numeric id, its string id, and a self
// table scripts use for their own per-entity state.
func (r *Runtime) newEnvironment(id EntityId, stringId string) *entityEnv {
	env := r.L.NewTable()
	meta := r.L.NewTable()
	meta.RawSetString("__index", r.globals)
	r.L.SetMetatable(env, meta)

	env.RawSetString("id", lua.LNumber(id))
	env.RawSetString("string_id", lua.LString(stringId))
	env.RawSetString("self", r.L.NewTable())

	return &entityEnv{table: env}
}

func (r *Runtime) runInEnv(env *lua.LTable, code, chunkName string) error {
	fn, err := r.L.LoadString(code)
	if err != nil {
		return err
	}
	r.L.SetFEnv(fn, env)
	r.L.Push(fn)
	return r.L.PCall(0, lua.MultRet, nil)
}

// HasHook reports whether an entity's environment defines the named hook
// function; used so the engine can skip calling absent hooks (silent-success
// per §4.4.2) without paying a protected-call cost every frame.
func (r *Runtime) HasHook(id EntityId, hook string) bool {
	env, ok := r.envs[id]
	if !ok {
		return false
	}
	fn := env.table.RawGetString(hook)
	return fn != lua.LNil
}

// CallHook invokes a lifecycle hook on an entity's environment. Missing
// hooks are silent success; hook errors are logged and do not abort the
// frame or unload the script (§4.4.2).
func (r *Runtime) CallHook(id EntityId, hook string, args ...lua.LValue) {
	env, ok := r.envs[id]
	if !ok {
		return
	}
	fn := env.table.RawGetString(hook)
	if fn == lua.LNil {
		return
	}
	if err := r.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		r.logf("script hook %s on entity %d: %v", hook, id, err)
	}
}

// RunInit invokes init exactly once per entity, expected to be called the
// frame the script is loaded, after physics attachment (§4.4.2).
func (r *Runtime) RunInit(id EntityId) {
	env, ok := r.envs[id]
	if !ok || env.initialized {
		return
	}
	env.initialized = true
	r.CallHook(id, "init")
}

// Unload drops an entity's environment, called from on_destroy handling
// before the body is removed and the entity despawned.
func (r *Runtime) Unload(id EntityId) {
	delete(r.envs, id)
}

// ClearListeners drops every events.listen registration, used on scene load
// (§4.4.5) so listeners registered by the outgoing scene's scripts don't
// fire against the new scene.
func (r *Runtime) ClearListeners() {
	r.listeners = map[string][]lua.LValue{}
}

// Reload implements §4.4.6: identical source is a no-op; otherwise snapshot
// self, drop the old environment, load the new source fresh, restore self,
// call on_reload if present.
func (r *Runtime) Reload(id EntityId, stringId, source, newCode string) error {
	if cached, ok := r.scriptSources[source]; ok && cached == newCode {
		return nil
	}
	old, had := r.envs[id]
	var self lua.LValue = lua.LNil
	if had {
		self = old.table.RawGetString("self")
	}

	env := r.newEnvironment(id, stringId)
	if had {
		env.table.RawSetString("self", self)
	}
	if err := r.runInEnv(env.table, newCode, source); err != nil {
		return fmt.Errorf("reload script %s: %w", source, err)
	}
	env.source = source
	env.initialized = true
	r.scriptSources[source] = newCode
	r.envs[id] = env

	r.CallHook(id, "on_reload")
	return nil
}

func (r *Runtime) logf(format string, args ...any) {
	if r.Log != nil {
		r.Log(format, args...)
	}
}

// ScriptedEntities returns every entity with a live environment, in
// unspecified order; callers needing deterministic iteration should sort.
func (r *Runtime) ScriptedEntities() []EntityId {
	ids := make([]EntityId, 0, len(r.envs))
	for id := range r.envs {
		ids = append(ids, id)
	}
	return ids
}
