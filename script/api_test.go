package script

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnProjectileQueuesCommand(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "ent-1", "a.lua", `entity.spawn_projectile("bolt-1", 1, 2, 3, 4, 5, 6, "bolt_mesh", "bolt_material", 10, 2.5)`)
	require.NoError(t, err)

	require.Len(t, r.Queue.ProjectileSpawns, 1)
	cmd := r.Queue.ProjectileSpawns[0]
	assert.Equal(t, "bolt-1", cmd.Id)
	assert.Equal(t, float32(1), cmd.Position.X())
	assert.Equal(t, float32(4), cmd.Velocity.X())
	assert.Equal(t, "bolt_mesh", cmd.Mesh)
	assert.Equal(t, "bolt_material", cmd.Material)
	assert.Equal(t, float32(10), cmd.Damage)
	assert.Equal(t, float32(2.5), cmd.Lifetime)
	assert.False(t, cmd.HasOwner)
}

func TestSpawnProjectileWithOwner(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "ent-1", "a.lua", `entity.spawn_projectile("bolt-1", 0, 0, 0, 0, 0, 0, "m", "mat", 1, 1, 42)`)
	require.NoError(t, err)

	require.Len(t, r.Queue.ProjectileSpawns, 1)
	cmd := r.Queue.ProjectileSpawns[0]
	assert.True(t, cmd.HasOwner)
	assert.Equal(t, EntityId(42), cmd.Owner)
}

func TestSpawnDynamicQueuesCommand(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "ent-1", "a.lua", `entity.spawn_dynamic("crate-1", 1, 2, 3, "crate_mesh", "crate_material", 5)`)
	require.NoError(t, err)

	require.Len(t, r.Queue.DynamicSpawns, 1)
	cmd := r.Queue.DynamicSpawns[0]
	assert.Equal(t, "crate-1", cmd.Id)
	assert.Equal(t, "crate_mesh", cmd.Mesh)
	assert.Equal(t, float32(5), cmd.Mass)
}

func TestReleaseToPoolQueuesCommand(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "ent-1", "a.lua", `entity.release_to_pool("bullets", 7)`)
	require.NoError(t, err)

	require.Len(t, r.Queue.PoolReleases, 1)
	cmd := r.Queue.PoolReleases[0]
	assert.Equal(t, "bullets", cmd.Pool)
	assert.Equal(t, EntityId(7), cmd.Entity)
}

func TestClearListenersDropsRegistrations(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "ent-1", "a.lua", `events.listen("collision", function() end)`)
	require.NoError(t, err)

	assert.Len(t, r.listeners["collision"], 1)

	r.ClearListeners()

	assert.Empty(t, r.listeners["collision"])
	assert.NotPanics(t, func() { r.DispatchEvent("collision", nil) })
}

type recordingHost struct {
	NopHost
	name    string
	payload map[string]any
}

func (h *recordingHost) EventsEmit(name string, payload map[string]any) {
	h.name = name
	h.payload = payload
}

func TestEmitPassesPayloadToHost(t *testing.T) {
	r := NewRuntime(nil)
	host := &recordingHost{}
	r.SetHost(host)
	err := r.LoadScript(1, "ent-1", "a.lua", `events.emit("score", {amount = 10, reason = "kill"})`)
	require.NoError(t, err)

	assert.Equal(t, "score", host.name)
	assert.Equal(t, float64(10), host.payload["amount"])
	assert.Equal(t, "kill", host.payload["reason"])
}

func TestDispatchEventPassesTypeAndDataToListener(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "ent-1", "a.lua", `
received = nil
events.listen("score", function(evt) received = evt end)`)
	require.NoError(t, err)

	r.DispatchEvent("score", map[string]any{"amount": float64(10)})

	env := r.envs[1]
	received := env.table.RawGetString("received")
	tbl, ok := received.(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, "score", tbl.RawGetString("type").String())
	data, ok := tbl.RawGetString("data").(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, lua.LNumber(10), data.RawGetString("amount"))
}
