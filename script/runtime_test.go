package script

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScriptRunsInitOnce(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "ent-1", "a.lua", `self.count = 0
function init() self.count = self.count + 1 end`)
	require.NoError(t, err)

	r.RunInit(1)
	r.RunInit(1)

	assert.True(t, r.HasHook(1, "init"))
	self, ok := r.envs[1].table.RawGetString("self").(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, lua.LNumber(1), self.RawGetString("count"))
}

func TestSandboxDisablesOsAndIo(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "ent-1", "a.lua", `assert(os == nil)
assert(io == nil)
assert(loadfile == nil)`)
	require.NoError(t, err)
}

func TestHookAbsenceIsSilent(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "ent-1", "a.lua", `function init() end`)
	require.NoError(t, err)

	assert.False(t, r.HasHook(1, "on_destroy"))
	r.CallHook(1, "on_destroy") // must not panic
}

func TestHookErrorIsLoggedNotFatal(t *testing.T) {
	var logged string
	r := NewRuntime(func(format string, args ...any) { logged = format })
	err := r.LoadScript(1, "ent-1", "a.lua", `function update(dt) error("boom") end`)
	require.NoError(t, err)

	r.CallHook(1, "update")
	assert.NotEmpty(t, logged)
}

func TestReloadNoopOnIdenticalSource(t *testing.T) {
	r := NewRuntime(nil)
	code := `self.x = 1`
	require.NoError(t, r.LoadScript(1, "ent-1", "a.lua", code))
	require.NoError(t, r.Reload(1, "ent-1", "a.lua", code))
}

func TestEnvironmentExposesNumericAndStringId(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "crate-7", "a.lua", `assert(id == 1)
assert(string_id == "crate-7")
assert(type(self) == "table")`)
	require.NoError(t, err)
}

func TestEnvironmentStringIdEmptyForAnonymousSpawn(t *testing.T) {
	r := NewRuntime(nil)
	err := r.LoadScript(1, "", "a.lua", `assert(string_id == "")`)
	require.NoError(t, err)
}

func TestCommandQueueDrainClears(t *testing.T) {
	q := NewCommandQueue()
	q.Destroys = append(q.Destroys, EntityId(1))
	drained := q.Drain()
	assert.Len(t, drained.Destroys, 1)
	assert.Empty(t, q.Destroys)
}
