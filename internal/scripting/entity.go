package scripting

import (
	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/outliner"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// LuaFilter is an outliner.Filter backed by a Lua predicate.
type LuaFilter struct {
	engine *Engine
	name   string
	fn     *lua.LFunction
}

func (f *LuaFilter) Name() string { return f.name }

// Passes calls the predicate. A script error lets the entity through.
func (f *LuaFilter) Passes(w outliner.World, id ecs.EntityID) bool {
	res, err := f.engine.call(f.fn, f.engine.entityTable(w, id))
	if err != nil {
		f.engine.log.Error("lua filter error", zap.String("filter", f.name), zap.Error(err))
		return true
	}
	return lua.LVAsBool(res)
}

// LuaColumn is an outliner.Column backed by a Lua comparator.
type LuaColumn struct {
	engine *Engine
	id     string
	fn     *lua.LFunction
}

func (c *LuaColumn) ID() string { return c.id }

// Compare calls the comparator. Only the sign of a numeric result matters;
// nil, non-numbers and script errors mean no opinion.
func (c *LuaColumn) Compare(w outliner.World, a, b ecs.EntityID) (int, bool) {
	res, err := c.engine.call(c.fn, c.engine.entityTable(w, a), c.engine.entityTable(w, b))
	if err != nil {
		c.engine.log.Error("lua column error", zap.String("column", c.id), zap.Error(err))
		return 0, false
	}
	n, ok := res.(lua.LNumber)
	if !ok {
		return 0, false
	}
	switch {
	case n < 0:
		return -1, true
	case n > 0:
		return 1, true
	}
	return 0, true
}

func (e *Engine) entityTable(w outliner.World, id ecs.EntityID) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(id.Index()))
	t.RawSetString("label", lua.LString(w.Label(id)))
	t.RawSetString("class", lua.LString(w.Class(id)))
	t.RawSetString("folder", lua.LString(w.FolderPath(id)))
	t.RawSetString("ephemeral", lua.LBool(w.Ephemeral(id)))
	_, attached := w.Parent(id)
	t.RawSetString("attached", lua.LBool(attached))
	if members := w.GroupMembers(id); members != nil {
		t.RawSetString("members", lua.LNumber(len(members)))
	}
	return t
}
