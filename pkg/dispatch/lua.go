package dispatch

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LuaBlock compiles script into a BlockFunc that runs it in a fresh Lua
// state each invocation, exposing the call's board and arguments as Lua
// globals before running. It is a scriptable alternative to writing a Go
// closure for a board function table entry, in the same spirit as the
// teacher's @minz[[[ ... ]]] compile-time Lua blocks — repurposed here as a
// runtime dispatch mechanism instead of a compile-time code generator.
//
// Inside script, "board" is the board name string, "args" is a Lua table
// of the call's positional arguments (1-indexed), and "kwargs" is a Lua
// table keyed by name.
func LuaBlock(script string) BlockFunc {
	return func(call Call) error {
		L := lua.NewState()
		defer L.Close()

		L.SetGlobal("board", lua.LString(call.Board))
		L.SetGlobal("args", toLuaTable(L, call.Args))
		L.SetGlobal("kwargs", toLuaKwargs(L, call.Kwargs))

		if err := L.DoString(script); err != nil {
			return fmt.Errorf("dispatch: lua block failed on board %s: %w", call.Board, err)
		}
		return nil
	}
}

func toLuaTable(L *lua.LState, args []any) *lua.LTable {
	t := L.NewTable()
	for i, a := range args {
		t.RawSetInt(i+1, toLuaValue(a))
	}
	return t
}

func toLuaKwargs(L *lua.LState, kwargs map[string]any) *lua.LTable {
	t := L.NewTable()
	for k, v := range kwargs {
		t.RawSetString(k, toLuaValue(v))
	}
	return t
}

func toLuaValue(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	default:
		return lua.LString(fmt.Sprintf("%v", x))
	}
}
