package script

import (
	"strings"

	"github.com/holoplot/go-evdev"
	lua "github.com/yuin/gopher-lua"
)

// installConstants publishes the kernel code tables to scripts. Each becomes
// a global named after its prefix, with the prefix stripped from the keys:
// KEY.A, BTN.LEFT, SYN.REPORT. KEY and BTN share one kernel namespace and
// are split by prefix.
func installConstants(L *lua.LState) {
	L.SetGlobal("EV", codeTable(L, "EV_", evdev.EVFromString))
	L.SetGlobal("SYN", codeTable(L, "SYN_", evdev.SYNFromString))
	L.SetGlobal("KEY", codeTable(L, "KEY_", evdev.KEYFromString))
	L.SetGlobal("BTN", codeTable(L, "BTN_", evdev.KEYFromString))
	L.SetGlobal("REL", codeTable(L, "REL_", evdev.RELFromString))
	L.SetGlobal("ABS", codeTable(L, "ABS_", evdev.ABSFromString))
}

// codeTable keeps the names carrying prefix. Range markers such as KEY_MAX
// and KEY_CNT are not codes and are left out.
func codeTable[T ~uint16](L *lua.LState, prefix string, codes map[string]T) *lua.LTable {
	t := L.CreateTable(0, len(codes))
	for name, code := range codes {
		short, ok := strings.CutPrefix(name, prefix)
		if !ok || short == "MAX" || short == "CNT" {
			continue
		}
		t.RawSetString(short, lua.LNumber(code))
	}
	return t
}
