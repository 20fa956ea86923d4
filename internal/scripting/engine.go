// Package scripting runs user-authored Lua that extends the outliner with
// extra filters and sort columns.
//
// A script registers callbacks through two globals:
//
//	filter("lit-only", function(e) return e.class == "Light" end)
//	column("depth", function(a, b) return #a.folder - #b.folder end)
//
// Entities reach Lua as plain tables with id, label, class, folder,
// ephemeral and attached fields. A column returning nil has no opinion.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM.
// Single-goroutine access only (editor loop).
type Engine struct {
	vm      *lua.LState
	log     *zap.Logger
	filters []*LuaFilter
	columns []*LuaColumn
}

// NewEngine creates a Lua engine and loads all scripts from dir. Scripts in
// the root are loaded first, then the filters and columns sub-directories.
// A missing directory loads nothing.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if dir == "" {
		return e, nil
	}
	for _, sub := range []string{"", "filters", "columns"} {
		p := filepath.Join(dir, sub)
		if err := e.loadDir(p); err != nil {
			e.Close()
			return nil, fmt.Errorf("load scripts %s: %w", p, err)
		}
	}
	e.log.Info("lua scripts loaded",
		zap.String("dir", dir),
		zap.Int("filters", len(e.filters)),
		zap.Int("columns", len(e.columns)),
	)
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	vm.SetGlobal("filter", vm.NewFunction(e.registerFilter))
	vm.SetGlobal("column", vm.NewFunction(e.registerColumn))
	return e
}

func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs src as a chunk called name.
func (e *Engine) LoadString(name, src string) error {
	fn, err := e.vm.Load(strings.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	e.vm.Push(fn)
	if err := e.vm.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// Filters returns the filters registered so far, in registration order.
func (e *Engine) Filters() []*LuaFilter {
	return append([]*LuaFilter(nil), e.filters...)
}

// Columns returns the columns registered so far, in registration order.
func (e *Engine) Columns() []*LuaColumn {
	return append([]*LuaColumn(nil), e.columns...)
}

// Filter returns the filter called name, or nil.
func (e *Engine) Filter(name string) *LuaFilter {
	for _, f := range e.filters {
		if f.name == name {
			return f
		}
	}
	return nil
}

func (e *Engine) registerFilter(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	f := &LuaFilter{engine: e, name: name, fn: fn}
	for i, old := range e.filters {
		if old.name == name {
			e.filters[i] = f
			return 0
		}
	}
	e.filters = append(e.filters, f)
	return 0
}

func (e *Engine) registerColumn(L *lua.LState) int {
	id := L.CheckString(1)
	fn := L.CheckFunction(2)
	c := &LuaColumn{engine: e, id: id, fn: fn}
	for i, old := range e.columns {
		if old.id == id {
			e.columns[i] = c
			return 0
		}
	}
	e.columns = append(e.columns, c)
	return 0
}

// call invokes fn with args and returns its single result.
func (e *Engine) call(fn *lua.LFunction, args ...lua.LValue) (lua.LValue, error) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, err
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return result, nil
}
