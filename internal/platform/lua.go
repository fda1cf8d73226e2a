package platform

import (
	lua "github.com/yuin/gopher-lua"
)

const luaGlobal = "platform"

// InjectPlatformTable exposes info to a font config as the read-only
// global "platform". A nil info is treated as an unknown platform.
//
//	platform.os, platform.arch       strings
//	platform.is_linux, is_macos      booleans
//	platform.distro                  {id, family, version} or nil
//	platform.extract_hint            install command for 7z, or ""
//	platform.when(cond, value)       value if cond, else nil
func InjectPlatformTable(L *lua.LState, info *Info) error {
	if info == nil {
		info = &Info{}
	}
	t := L.NewTable()

	L.SetField(t, "os", lua.LString(info.OS))
	L.SetField(t, "arch", lua.LString(info.Arch))
	L.SetField(t, "is_linux", lua.LBool(info.IsLinux()))
	L.SetField(t, "is_macos", lua.LBool(info.IsMacOS()))
	L.SetField(t, "extract_hint", lua.LString(ExtractorInstallHint(info)))

	distro := lua.LValue(lua.LNil)
	if info.HasDistro() {
		d := L.NewTable()
		L.SetField(d, "id", lua.LString(info.Platform))
		L.SetField(d, "family", lua.LString(info.Family))
		L.SetField(d, "version", lua.LString(info.Version))
		distro = d
	}
	L.SetField(t, "distro", distro)

	L.SetField(t, "when", L.NewFunction(luaWhen))

	L.SetGlobal(luaGlobal, readOnly(L, t))
	return nil
}

// luaWhen lets package lists include entries conditionally; a nil result is
// skipped by the config parser.
func luaWhen(L *lua.LState) int {
	if L.CheckBool(1) {
		L.Push(L.Get(2))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

func readOnly(L *lua.LState, t *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__index", t)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("%s table is read-only", luaGlobal)
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
