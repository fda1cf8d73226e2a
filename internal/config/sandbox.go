package config

import (
	lua "github.com/yuin/gopher-lua"
)

// blockedGlobals are removed before a config runs. A catalog file only
// describes packages; it never needs the OS, the filesystem or code loading.
var blockedGlobals = []string{
	"os", "io", "debug",
	"require", "dofile", "loadfile", "load", "loadstring",
}

// newSandboxedVM returns a Lua state with string, table and math available
// and every global in blockedGlobals set to nil.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
