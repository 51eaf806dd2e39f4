// Package scripting provides a sandboxed GopherLua environment for
// stat-effect applicability predicates. Predicates are boolean Lua
// expressions evaluated against a combatant's base stats; any runtime
// error fails safe and the effect is treated as inapplicable by the caller.
package scripting

import (
	lua "github.com/yuin/gopher-lua"
)

// newSandboxedState creates a GopherLua LState with only the safe standard
// libraries loaded (base, table, string, math) and the dangerous globals
// removed (dofile, loadfile, load, collectgarbage, require).
//
// Postcondition: Returns a non-nil LState; the caller owns it and must
// call Close when done.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, pair := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(pair.fn))
		L.Push(lua.LString(pair.name))
		L.Call(1, 0)
	}

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	return L
}
