package script

import (
	lua "github.com/yuin/gopher-lua"
)

// RemovedGlobals are base-library functions a script never sees. Each one
// either loads code from outside the script or reaches host internals.
var RemovedGlobals = []string{
	"dofile",     // Load and execute file
	"loadfile",   // Load file as function
	"load",       // Load chunk from a reader function
	"loadstring", // Load string as function
	"require",    // Module loader
	"module",     // Module loader
	"newproxy",   // Creates userdata that could pose as a handle
	"_printregs", // Dumps VM registers
}

// ClosedLibraries are never opened in a script state.
var ClosedLibraries = []string{
	lua.IoLibName,
	lua.OsLibName,
	lua.DebugLibName,
	lua.LoadLibName,
	lua.ChannelLibName,
}

// Sandbox restricts a Lua state to pure computation.
type Sandbox struct {
	L *lua.LState
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{L: L}
}

// Install removes every global in RemovedGlobals and ClosedLibraries.
func (s *Sandbox) Install() {
	for _, name := range RemovedGlobals {
		s.L.SetGlobal(name, lua.LNil)
	}
	for _, name := range ClosedLibraries {
		s.L.SetGlobal(name, lua.LNil)
	}
}
